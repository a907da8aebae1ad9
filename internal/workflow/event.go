package workflow

import (
	"maps"

	"consentflow/internal/gateway"
)

// EventKind names what the citizen did.
type EventKind string

const (
	EventStart            EventKind = "start"
	EventView             EventKind = "view"
	EventPoll             EventKind = "poll"
	EventSetName          EventKind = "set_name"
	EventSetDOB           EventKind = "set_dob"
	EventChooseAuthOption EventKind = "choose_auth_option"
	EventSetNHSNumber     EventKind = "set_nhs_number"
	EventSetPostcode      EventKind = "set_postcode"
	EventSubmitLookup     EventKind = "submit_lookup"
	EventChooseChannel    EventKind = "choose_channel"
	EventSubmitCode       EventKind = "submit_code"
	EventResendCode       EventKind = "resend_code"
	EventChoosePreference EventKind = "choose_preference"
	EventSubmitPreference EventKind = "submit_preference"
	EventConfirm          EventKind = "confirm"
)

// Form value keys carried by events.
const (
	ValueFirstName  = "first_name"
	ValueLastName   = "last_name"
	ValueDay        = "day"
	ValueMonth      = "month"
	ValueYear       = "year"
	ValueAuthOption = "auth_option"
	ValueNHSNumber  = "nhs_number"
	ValuePostcode   = "postcode"
	ValueChannel    = "channel"
	ValueCode       = "code"
	ValuePreference = "preference"

	// FieldDOB keys the date of birth error; the date arrives as three values.
	FieldDOB = "dob"
)

var knownEvents = map[EventKind]bool{
	EventStart: true, EventView: true, EventPoll: true,
	EventSetName: true, EventSetDOB: true, EventChooseAuthOption: true,
	EventSetNHSNumber: true, EventSetPostcode: true, EventSubmitLookup: true,
	EventChooseChannel: true, EventSubmitCode: true, EventResendCode: true,
	EventChoosePreference: true, EventSubmitPreference: true, EventConfirm: true,
}

// Event is one citizen interaction with its submitted values.
type Event struct {
	Kind   EventKind         `json:"kind"`
	Values map[string]string `json:"values,omitempty"`
}

func (e Event) value(key string) string {
	return e.Values[key]
}

// Flags are render hints for the current stage.
type Flags struct {
	// Waiting is set while a downstream result is pending.
	Waiting bool `json:"waiting,omitempty"`
	// CodeIncorrect asks for the code to be entered again.
	CodeIncorrect bool `json:"code_incorrect,omitempty"`
	// Resent and ResendMaxReached reflect the last resend on EnterCode.
	Resent           bool `json:"resent,omitempty"`
	ResendMaxReached bool `json:"resend_max_reached,omitempty"`
}

// Decision is the outcome of one Advance call.
type Decision struct {
	Stage             Stage             `json:"stage"`
	Flags             Flags             `json:"flags"`
	Verdict           string            `json:"verdict,omitempty"`
	FieldErrors       map[string]string `json:"field_errors,omitempty"`
	CurrentPreference string            `json:"current_preference,omitempty"`
	Delivery          *gateway.Delivery `json:"delivery,omitempty"`
	ErrorDetail       string            `json:"error_detail,omitempty"`

	// RefreshAfterSeconds is the re-poll hint for waiting stages.
	RefreshAfterSeconds int `json:"refresh_after_seconds,omitempty"`
}

// Clone returns a copy that shares nothing mutable with d.
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	c := *d
	c.FieldErrors = maps.Clone(d.FieldErrors)
	if d.Delivery != nil {
		delivery := *d.Delivery
		c.Delivery = &delivery
	}
	return &c
}

// Safe error details reported with StageError.
const (
	DetailTimeout          = "timeout"
	DetailUnexpectedResult = "unexpected_result"
	DetailNoDelivery       = "missing_delivery_details"
	DetailNotConfirmed     = "not_confirmed"
	DetailPreferenceLookup = "preference_lookup_failed"
)
