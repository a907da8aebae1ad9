// Package progress holds the per-session facts the workflow derives its stage from.
package progress

import "time"

// AuthOption is the identifier the citizen chose to be looked up by.
type AuthOption string

const (
	AuthNHSNumber AuthOption = "nhs_number"
	AuthPostcode  AuthOption = "postcode"
)

// Channel is where the verification code is delivered.
type Channel string

const (
	ChannelSMS          Channel = "sms"
	ChannelEmail        Channel = "email"
	ChannelUnrecognised Channel = "unrecognised"
)

// Preference is the citizen's data-sharing choice.
type Preference string

const (
	PreferenceOptedIn  Preference = "optedIn"
	PreferenceOptedOut Preference = "optedOut"
)

// DateOfBirth is kept as entered; validation happens on capture.
type DateOfBirth struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Progress is everything known about one session's journey.
//
// At most one of NHSNumber and Postcode is non-empty; use SetNHSNumber and
// SetPostcode rather than assigning the fields directly.
type Progress struct {
	FirstName  string       `json:"first_name,omitempty"`
	LastName   string       `json:"last_name,omitempty"`
	DOB        *DateOfBirth `json:"dob,omitempty"`
	AuthOption AuthOption   `json:"auth_option,omitempty"`
	NHSNumber  string       `json:"nhs_number,omitempty"`
	Postcode   string       `json:"postcode,omitempty"`

	// NHSNumberPreviouslyRejected is the one-shot tolerance for a bad NHS number.
	NHSNumberPreviouslyRejected bool `json:"nhs_number_previously_rejected,omitempty"`

	// Contacts are only populated from a successful lookup.
	SMS   string `json:"sms,omitempty"`
	Email string `json:"email,omitempty"`

	Channel           Channel    `json:"channel,omitempty"`
	Preference        Preference `json:"preference,omitempty"`
	CurrentPreference string     `json:"current_preference,omitempty"`

	// Deadline bounds the wait in progress; nil when nothing is pending.
	Deadline *time.Time `json:"deadline,omitempty"`

	LookupSubmitted  bool `json:"lookup_submitted,omitempty"`
	LookupSucceeded  bool `json:"lookup_succeeded,omitempty"`
	CodeRequested    bool `json:"code_requested,omitempty"`
	Resent           bool `json:"resent,omitempty"`
	ResendMaxReached bool `json:"resend_max_reached,omitempty"`
	CodeVerified     bool `json:"code_verified,omitempty"`
	PreferenceSet    bool `json:"preference_set,omitempty"`
	Confirmed        bool `json:"confirmed,omitempty"`
	Stored           bool `json:"stored,omitempty"`

	// Outcome names a terminal stage once one has been reached.
	Outcome string `json:"outcome,omitempty"`
}

// New returns an empty progress record.
func New() *Progress {
	return &Progress{}
}

// IsEmpty reports whether nothing has been recorded for the session.
func (p *Progress) IsEmpty() bool {
	return *p == Progress{}
}

// SetNHSNumber records the NHS number and clears any postcode.
func (p *Progress) SetNHSNumber(n string) {
	p.NHSNumber = n
	if n != "" {
		p.Postcode = ""
	}
}

// SetPostcode records the postcode and clears any NHS number.
func (p *Progress) SetPostcode(pc string) {
	p.Postcode = pc
	if pc != "" {
		p.NHSNumber = ""
	}
}

// HasName reports whether both name parts are captured.
func (p *Progress) HasName() bool {
	return p.FirstName != "" && p.LastName != ""
}

// HasIdentifier reports whether an NHS number or postcode is captured.
func (p *Progress) HasIdentifier() bool {
	return p.NHSNumber != "" || p.Postcode != ""
}

// IdentityComplete reports whether a lookup can be submitted.
func (p *Progress) IdentityComplete() bool {
	return p.HasName() && p.DOB != nil && p.HasIdentifier()
}

// HasContacts reports whether the lookup returned any contact method.
func (p *Progress) HasContacts() bool {
	return p.SMS != "" || p.Email != ""
}

// StartDeadline sets the deadline to now+window unless one is already pending.
// It returns the effective deadline.
func (p *Progress) StartDeadline(now time.Time, window time.Duration) time.Time {
	if p.Deadline == nil {
		d := now.Add(window)
		p.Deadline = &d
	}
	return *p.Deadline
}

// DeadlinePassed reports whether a pending deadline is at or before now.
func (p *Progress) DeadlinePassed(now time.Time) bool {
	return p.Deadline != nil && !now.Before(*p.Deadline)
}

// ClearDeadline drops any pending deadline.
func (p *Progress) ClearDeadline() {
	p.Deadline = nil
}

// ResetVerification forgets the contact channel and any code state.
func (p *Progress) ResetVerification() {
	p.Channel = ""
	p.CodeRequested = false
	p.Resent = false
	p.ResendMaxReached = false
}

// Clone returns a deep copy.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	if p.DOB != nil {
		dob := *p.DOB
		c.DOB = &dob
	}
	if p.Deadline != nil {
		d := *p.Deadline
		c.Deadline = &d
	}
	return &c
}
