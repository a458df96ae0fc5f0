package draft

import (
	"slices"
	"strings"
	"time"

	"household/internal/domain/account"
	"household/internal/domain/address"
	"household/internal/domain/age"
	"household/internal/domain/enrollment"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
	"household/internal/domain/member"
)

// Section names one group of the per-member wizard.
type Section string

const (
	SectionContactInfo        Section = "contactInfo"
	SectionLoginSecurity      Section = "loginSecurity"
	SectionEnrollment         Section = "enrollment"
	SectionStatusVerification Section = "statusVerification"
)

// Order is the fixed advance order of the editable sections.
var Order = []Section{SectionContactInfo, SectionLoginSecurity, SectionEnrollment}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionContactInfo, SectionLoginSecurity, SectionEnrollment, SectionStatusVerification:
		return Section(s), nil
	}
	return "", fault.Invalid("section", "unknown section %q", s)
}

// Next returns the section that follows s. ok is false for the last editable section.
func (s Section) Next() (next Section, ok bool) {
	i := slices.Index(Order, s)
	if i < 0 || i == len(Order)-1 {
		return "", false
	}
	return Order[i+1], true
}

// Editable reports whether the section has commit semantics.
func (s Section) Editable() bool {
	return slices.Contains(Order, s)
}

// ContactInfo holds the contact section fields.
type ContactInfo struct {
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	DateOfBirth   string          `json:"dateOfBirth"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       address.Address `json:"address"`
	MedicalNotes  string          `json:"medicalNotes"`
	InternalFlags string          `json:"internalFlags"`
}

// FullName joins first and last name.
func (c ContactInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Validate checks the contact section before commit.
// PRE: none
// POST: Returns a *fault.ValidationError naming the first bad field
func (c ContactInfo) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return fault.Invalid("firstName", "is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return fault.Invalid("lastName", "is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fault.Invalid("email", "must contain '@'")
	}
	if c.Phone != "" {
		if n := countDigits(c.Phone); n < 10 || n > 15 {
			return fault.Invalid("phone", "must contain 10 to 15 digits")
		}
	}
	if dob := strings.TrimSpace(c.DateOfBirth); dob != "" {
		if _, err := time.Parse(age.DateLayout, dob); err != nil {
			return fault.Invalid("dateOfBirth", "must be YYYY-MM-DD")
		}
	}
	return c.Address.Validate()
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n++
		case strings.ContainsRune(" +-().", r):
		default:
			return -1
		}
	}
	return n
}

// LoginSecurity holds the login section fields. An empty Password keeps the stored one.
type LoginSecurity struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// HasLogin reports whether a username was entered.
func (l LoginSecurity) HasLogin() bool {
	return strings.TrimSpace(l.Username) != ""
}

// Validate checks the login section before commit.
func (l LoginSecurity) Validate() error {
	if l.Password != "" && !l.HasLogin() {
		return fault.Invalid("username", "is required when a password is set")
	}
	if l.Password != "" && len(l.Password) < account.MinPasswordLength {
		return fault.Invalid("password", "must be at least %d characters", account.MinPasswordLength)
	}
	if len(l.Username) > account.MaxUsernameLength {
		return fault.Invalid("username", "cannot exceed %d characters", account.MaxUsernameLength)
	}
	return nil
}

// ContactState is the contact section's display state and staged edit.
type ContactState struct {
	Expanded bool        `json:"expanded"`
	Temp     ContactInfo `json:"tempData"`
}

// LoginState is the login section's display state and staged edit.
type LoginState struct {
	Expanded bool          `json:"expanded"`
	Temp     LoginSecurity `json:"tempData"`
}

// EnrollmentState holds the form for the next enrollment entry.
type EnrollmentState struct {
	Expanded bool             `json:"expanded"`
	Temp     enrollment.Draft `json:"tempData"`
}

// StatusState is display-only.
type StatusState struct {
	Expanded bool `json:"expanded"`
}

// Sections groups the per-section state of one member.
type Sections struct {
	ContactInfo        ContactState    `json:"contactInfo"`
	LoginSecurity      LoginState      `json:"loginSecurity"`
	Enrollment         EnrollmentState `json:"enrollment"`
	StatusVerification StatusState     `json:"statusVerification"`
}

// Expanded reports whether section s is open.
func (s Sections) Expanded(sec Section) bool {
	switch sec {
	case SectionContactInfo:
		return s.ContactInfo.Expanded
	case SectionLoginSecurity:
		return s.LoginSecurity.Expanded
	case SectionEnrollment:
		return s.Enrollment.Expanded
	case SectionStatusVerification:
		return s.StatusVerification.Expanded
	}
	return false
}

// Draft is the in-memory staging copy of one family member. It is never persisted.
type Draft struct {
	Key         string             `json:"key"`
	AccountID   string             `json:"accountId,omitempty"`
	MemberID    string             `json:"memberId,omitempty"`
	Status      string             `json:"status,omitempty"`
	Contact     ContactInfo        `json:"contact"`
	Login       LoginSecurity      `json:"login"`
	Enrollments []enrollment.Draft `json:"enrollments"`
	Sections    Sections           `json:"sections"`
	Expanded    bool               `json:"expanded"`
	IsFinished  bool               `json:"isFinished"`
}

// New returns an empty draft with the contact section open.
func New(key string) Draft {
	d := Draft{Key: key, Expanded: true}
	d.Sections.ContactInfo.Expanded = true
	return d
}

// FromRecords populates a draft from stored records. acct and m may be nil.
func FromRecords(key string, acct *account.Account, m *member.Member, stored []enrollment.Enrollment) Draft {
	d := Draft{Key: key}
	if acct != nil {
		d.AccountID = acct.ID
		d.Contact.FirstName, d.Contact.LastName = splitFullName(acct.FullName)
		d.Contact.Email = acct.Email
		d.Contact.Phone = acct.Phone
		d.Contact.Address = address.Parse(acct.Address)
		d.Login.Username = acct.Username
	}
	if m != nil {
		d.MemberID = m.ID
		d.Status = m.Status
		d.Contact.FirstName, d.Contact.LastName = m.FirstName, m.LastName
		d.Contact.DateOfBirth = m.DateOfBirth
		d.Contact.MedicalNotes = m.MedicalNotes
		d.Contact.InternalFlags = m.InternalFlags
		if d.AccountID == "" {
			d.AccountID = m.AccountID
		}
	}
	for _, e := range stored {
		d.Enrollments = append(d.Enrollments, enrollment.Draft{
			ProgramID:    e.ProgramID,
			DaysPerWeek:  e.DaysPerWeek,
			SelectedDays: slices.Clone(e.SelectedDays),
			IsCompleted:  true,
		})
	}
	return d
}

// splitFullName treats the last word as the family name, so "Mary Ann Smith" keeps
// "Mary Ann" as the given names. A single word is a first name.
func splitFullName(full string) (first, last string) {
	words := strings.Fields(full)
	if len(words) < 2 {
		return strings.Join(words, ""), ""
	}
	return strings.Join(words[:len(words)-1], " "), words[len(words)-1]
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	if d.Enrollments != nil {
		out.Enrollments = make([]enrollment.Draft, len(d.Enrollments))
		for i, e := range d.Enrollments {
			out.Enrollments[i] = e.Clone()
		}
	}
	out.Sections.Enrollment.Temp = d.Sections.Enrollment.Temp.Clone()
	return out
}

// Identity returns the records currently backing d.
func (d Draft) Identity() (identity.Identity, bool) {
	return identity.Of(d.AccountID, d.MemberID)
}

// IsAdult classifies the committed birth date against today. Unknown dates are minors.
func (d Draft) IsAdult(today time.Time) bool {
	return age.IsAdult(d.Contact.DateOfBirth, today)
}

// ContactFor builds the account contact for role from the committed fields.
func (d Draft) ContactFor(role string) identity.Contact {
	return identity.Contact{
		MemberKey: d.Key,
		FullName:  d.Contact.FullName(),
		Email:     strings.TrimSpace(d.Contact.Email),
		Phone:     strings.TrimSpace(d.Contact.Phone),
		Username:  strings.TrimSpace(d.Login.Username),
		Password:  d.Login.Password,
		Address:   d.Contact.Address.String(),
		Role:      role,
	}
}

// ContactComplete reports whether the committed contact fields pass validation.
func (d Draft) ContactComplete() error {
	return d.Contact.Validate()
}

// LoginComplete reports whether d carries a login usable for a new account.
func (d Draft) LoginComplete() error {
	if strings.TrimSpace(d.Contact.Email) == "" {
		return fault.Invalid("email", "is required for a login")
	}
	if !d.Login.HasLogin() {
		return fault.Invalid("username", "is required")
	}
	if d.AccountID == "" && d.Login.Password == "" {
		return fault.Invalid("password", "is required for a new account")
	}
	return d.Login.Validate()
}

// Placed returns the enrollment entries with a program chosen.
func (d Draft) Placed() []enrollment.Draft {
	var out []enrollment.Draft
	for _, e := range d.Enrollments {
		if !e.IsPlaceholder() {
			out = append(out, e.Clone())
		}
	}
	return out
}
