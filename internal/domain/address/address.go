package address

import (
	"strings"

	"household/internal/domain/fault"
)

// Address is a mailing address split into the fields the forms edit.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Combine joins the non-empty parts with ", ".
// PRE: none
// POST: Returns "" when every part is empty
// INVARIANT: Combine(Parse(Combine(...))) == Combine(...)
func Combine(street, city, state, zip string) string {
	var parts []string
	for _, p := range []string{street, city, state, zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Parse splits a free-text address into its fields.
// Three or more comma parts yield street, city and "STATE ZIP"; two yield street and city;
// one is the street.
// PRE: none
// POST: Returns the zero Address for an empty string
func Parse(s string) Address {
	if strings.TrimSpace(s) == "" {
		return Address{}
	}
	raw := strings.Split(s, ",")
	parts := make([]string, len(raw))
	for i, p := range raw {
		parts[i] = strings.TrimSpace(p)
	}

	switch {
	case len(parts) >= 3:
		a := Address{Street: parts[0], City: parts[1]}
		tokens := strings.Fields(parts[2])
		if len(tokens) > 0 {
			a.State = tokens[0]
			a.Zip = strings.Join(tokens[1:], " ")
		}
		// Combine writes state and zip as separate parts.
		if a.Zip == "" && len(parts) >= 4 {
			a.Zip = parts[3]
		}
		return a
	case len(parts) == 2:
		return Address{Street: parts[0], City: parts[1]}
	default:
		return Address{Street: parts[0]}
	}
}

// String returns the combined single-line form.
func (a Address) String() string {
	return Combine(a.Street, a.City, a.State, a.Zip)
}

// IsZero reports whether every field is blank.
func (a Address) IsZero() bool {
	return a.String() == ""
}

// Validate checks a non-empty address has a street, city, 2-letter state and US zip.
// PRE: none
// POST: Returns nil for the zero Address
func (a Address) Validate() error {
	if a.IsZero() {
		return nil
	}
	if strings.TrimSpace(a.Street) == "" {
		return fault.Invalid("address.street", "is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return fault.Invalid("address.city", "is required")
	}
	if !isState(a.State) {
		return fault.Invalid("address.state", "must be a 2-letter state code")
	}
	if !isZip(a.Zip) {
		return fault.Invalid("address.zip", "must be 5 digits or ZIP+4")
	}
	return nil
}

func isState(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func isZip(s string) bool {
	digits := func(v string) bool {
		for _, r := range v {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	switch len(s) {
	case 5:
		return digits(s)
	case 10:
		return s[5] == '-' && digits(s[:5]) && digits(s[6:])
	}
	return false
}
