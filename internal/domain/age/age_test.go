package age_test

import (
	"errors"
	"testing"
	"time"

	"household/internal/domain/age"
)

func day(s string) time.Time {
	t, err := time.Parse(age.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestClassifyAdultBoundary verifies the 18th birthday is adult and the day before is not.
func TestClassifyAdultBoundary(t *testing.T) {
	ref := day("2026-10-16")

	exact := age.Classify(day("2008-10-16"), ref)
	if exact.Age != 18 || !exact.IsAdult {
		t.Errorf("birthday today: got %+v, want age 18 adult", exact)
	}

	dayLater := age.Classify(day("2008-10-17"), ref)
	if dayLater.Age != 17 || dayLater.IsAdult {
		t.Errorf("birthday tomorrow: got %+v, want age 17 minor", dayLater)
	}
}

// TestClassify covers month/day ordering around the reference date.
func TestClassify(t *testing.T) {
	ref := day("2026-03-01")
	tests := []struct {
		name  string
		birth string
		want  int
	}{
		{"earlier month", "2010-01-15", 16},
		{"later month", "2010-07-15", 15},
		{"same day", "2010-03-01", 16},
		{"leap day birth before birthday", "2008-02-29", 18},
		{"born on reference day", "2026-03-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := age.Classify(day(tt.birth), ref)
			if got.Age != tt.want {
				t.Errorf("Age = %d, want %d", got.Age, tt.want)
			}
			if got.IsAdult != (tt.want >= age.AdultAge) {
				t.Errorf("IsAdult = %v for age %d", got.IsAdult, got.Age)
			}
		})
	}
}

// TestClassifyDate verifies absent dates are not errors and bad dates are.
func TestClassifyDate(t *testing.T) {
	ref := day("2026-10-16")

	got, err := age.ClassifyDate("", ref)
	if err != nil {
		t.Fatalf("empty date: unexpected error %v", err)
	}
	if got.Known || got.IsAdult {
		t.Errorf("empty date: got %+v, want unknown minor", got)
	}

	if _, err := age.ClassifyDate("16/10/2000", ref); !errors.Is(err, age.ErrInvalidDate) {
		t.Errorf("bad date: err = %v, want ErrInvalidDate", err)
	}

	got, err = age.ClassifyDate("1990-05-05", ref)
	if err != nil || !got.IsAdult || got.Age != 36 {
		t.Errorf("adult date: got %+v, %v", got, err)
	}
}

// TestIsAdult verifies invalid input never counts as adult.
func TestIsAdult(t *testing.T) {
	ref := day("2026-10-16")
	if age.IsAdult("garbage", ref) {
		t.Error("garbage date classified as adult")
	}
	if !age.IsAdult("1980-01-01", ref) {
		t.Error("1980 birth not classified as adult")
	}
}
