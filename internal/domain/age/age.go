package age

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

// AdultAge is the age at which a member needs their own login account.
const AdultAge = 18

// ErrInvalidDate is returned when a birth date cannot be parsed.
var ErrInvalidDate = errors.New("invalid birth date")

// Classification is the result of classifying a birth date against a reference day.
type Classification struct {
	Age     int
	IsAdult bool
	Known   bool // false when no birth date was given
}

// Classify computes full elapsed years between birth and ref.
// PRE: none
// POST: Age is decremented when ref's month/day precedes birth's month/day
// INVARIANT: IsAdult == (Age >= AdultAge)
func Classify(birth, ref time.Time) Classification {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return Classification{Age: years, IsAdult: years >= AdultAge, Known: true}
}

// ClassifyDate parses birth (YYYY-MM-DD) and classifies it against ref.
// PRE: none
// POST: An empty birth date is "age unknown, not adult" and not an error
func ClassifyDate(birth string, ref time.Time) (Classification, error) {
	birth = strings.TrimSpace(birth)
	if birth == "" {
		return Classification{}, nil
	}
	t, err := time.Parse(DateLayout, birth)
	if err != nil {
		return Classification{}, ErrInvalidDate
	}
	return Classify(t, ref), nil
}

// IsAdult is a convenience for callers that only need the flag; unknown or invalid
// birth dates are treated as not adult.
func IsAdult(birth string, ref time.Time) bool {
	c, err := ClassifyDate(birth, ref)
	return err == nil && c.IsAdult
}
