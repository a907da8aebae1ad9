package audit

import "time"

// Audit actions for journey outcomes worth keeping a record of.
const (
	ActionPreferenceStored = "preference_stored"
	ActionChoiceNotSaved   = "choice_not_saved"
	ActionIdentityRejected = "identity_rejected"
	ActionCodeBlocked      = "code_blocked"
	ActionResendBlocked    = "resend_blocked"
	ActionAgeRestricted    = "age_restricted"
	ActionLookupFailed     = "lookup_failed"
	ActionSessionExpired   = "session_expired"
)

// Event is emitted from the workflow to capture a journey outcome. It never
// carries personal data: the session is referenced by a one-way fingerprint.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	SessionRef string    `json:"session_ref"`
	Action     string    `json:"action"`
	Stage      string    `json:"stage"`
	RequestID  string    `json:"request_id,omitempty"`
}
