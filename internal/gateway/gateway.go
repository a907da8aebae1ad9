// Package gateway talks to the downstream record lookup, verification code and
// preference service. Every call reduces the response to a ResultCode from a
// small closed set, or to a classified *Error when the response cannot be
// interpreted as a domain outcome.
package gateway

import "context"

// ResultCode is a normalized downstream outcome.
type ResultCode string

const (
	CodeSuccess          ResultCode = "success"
	CodeIncomplete       ResultCode = "incomplete"
	CodeInvalidUser      ResultCode = "invalid_user"
	CodeInsufficientData ResultCode = "insufficient_data"
	CodeAgeRestriction   ResultCode = "age_restriction_error"
	CodeInvalidAge       ResultCode = "invalid_age"
	CodeRequestTimeout   ResultCode = "request_timeout"
	CodeMaxCountReached  ResultCode = "max_count_reached"
	CodeMaxCountExceeded ResultCode = "max_count_exceeded"
	CodeCorrect          ResultCode = "correct"
	CodeIncorrect        ResultCode = "incorrect"
	CodeIncorrectMax     ResultCode = "incorrect_max_retries"
	CodeCorrectExpired   ResultCode = "correct_but_expired"
	CodeActive           ResultCode = "active"
	CodeInactive         ResultCode = "inactive"
	CodeEmpty            ResultCode = "empty"
	CodeFailure          ResultCode = "failure"
	CodeUnknown          ResultCode = "unknown"
)

// Identity is what a record lookup is performed with.
type Identity struct {
	FirstName string
	LastName  string
	DOBDay    int
	DOBMonth  int
	DOBYear   int
	NHSNumber string
	Postcode  string
}

// LookupResult is the answer to a lookup poll. Contacts are only set with CodeSuccess.
type LookupResult struct {
	Code  ResultCode
	SMS   string
	Email string
}

// Delivery describes where the confirmation of a stored preference is sent.
type Delivery struct {
	Method      string `json:"method"`
	Destination string `json:"destination"`
	Preference  string `json:"preference,omitempty"`
}

// Gateway is the downstream capability set the workflow consumes.
type Gateway interface {
	CreateSession(ctx context.Context) (string, error)
	CheckSession(ctx context.Context, sessionID string) (bool, error)
	LookupRecord(ctx context.Context, sessionID string, id Identity) (ResultCode, error)
	PollLookupResult(ctx context.Context, sessionID string) (LookupResult, error)
	RequestVerificationCode(ctx context.Context, sessionID, channel string) (ResultCode, error)
	ResendVerificationCode(ctx context.Context, sessionID string) (ResultCode, error)
	VerifyCode(ctx context.Context, sessionID, code string) (ResultCode, error)
	GetCurrentPreference(ctx context.Context, sessionID string) (ResultCode, error)
	SetPreference(ctx context.Context, sessionID, preference string) (bool, error)
	ConfirmationDelivery(ctx context.Context, sessionID string) (*Delivery, error)
	ConfirmPreference(ctx context.Context, sessionID string) (bool, error)
	PollStoreResult(ctx context.Context, sessionID string) (ResultCode, error)
	CleanState(ctx context.Context, sessionID string) error
}
