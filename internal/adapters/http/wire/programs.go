package wire

import (
	"net/url"
	"strconv"

	"household/internal/domain/fault"
	"household/internal/domain/program"
)

// ProgramQuery encodes f as the query string of GET /api/programs.
func ProgramQuery(f program.Filter) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.ActiveOnly {
		q.Set("active", "true")
	}
	if f.HasAge {
		q.Set("age", strconv.Itoa(f.Age))
	}
	return q
}

// ParseProgramQuery is the inverse of ProgramQuery. A malformed flag or age is a
// validation error.
func ParseProgramQuery(q url.Values) (program.Filter, error) {
	f := program.Filter{Category: q.Get("category")}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return program.Filter{}, fault.Invalid("active", "must be true or false")
		}
		f.ActiveOnly = active
	}
	if v := q.Get("age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil || age < 0 {
			return program.Filter{}, fault.Invalid("age", "must be a non-negative whole number")
		}
		f.Age, f.HasAge = age, true
	}
	return f, nil
}
