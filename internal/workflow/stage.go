package workflow

// Stage is where a session currently is in the journey. It is never stored;
// DeriveStage recomputes it from progress on every call.
type Stage string

const (
	// Identity capture.
	StageEnterName            Stage = "EnterName"
	StageEnterDOB             Stage = "EnterDOB"
	StageChooseAuthOption     Stage = "ChooseAuthOption"
	StageEnterNHSNumber       Stage = "EnterNHSNumber"
	StageEnterPostcode        Stage = "EnterPostcode"
	StageIdentityCaptured     Stage = "IdentityCaptured"
	StageNHSNumberNotAccepted Stage = "NHSNumberNotAccepted"

	// Lookup.
	StageWaitingForLookup       Stage = "WaitingForLookup"
	StageChooseVerificationChan Stage = "ChooseVerificationChannel"

	// Verification.
	StageEnterCode Stage = "EnterCode"

	// Preference.
	StageChoosePreference      Stage = "ChoosePreference"
	StageSubmitPreference      Stage = "SubmitPreference"
	StageReviewChoice          Stage = "ReviewChoice"
	StageWaitingForStoreResult Stage = "WaitingForStoreResult"
	StageThankYou              Stage = "ThankYou"

	// Terminal outcomes. Once reached they are remembered until the session restarts.
	StageInvalidNHSNumber            Stage = "InvalidNHSNumber"
	StageAgeRestricted               Stage = "AgeRestricted"
	StageLookupFailed                Stage = "LookupFailed"
	StageContactDetailsNotFound      Stage = "ContactDetailsNotFound"
	StageContactDetailsNotRecognised Stage = "ContactDetailsNotRecognised"
	StageCodeExpired                 Stage = "CodeExpired"
	StageCodeIncorrectBlocked        Stage = "CodeIncorrectBlocked"
	StageResendBlocked               Stage = "ResendBlocked"
	StagePreferenceError             Stage = "PreferenceError"
	StageChoiceNotSaved              Stage = "ChoiceNotSaved"

	// StageError ends the current attempt. It is reported, never stored.
	StageError Stage = "Error"

	// StageSessionExpired means the downstream session is gone. The journey
	// has to be started again; it is reported, never stored.
	StageSessionExpired Stage = "SessionExpired"
)

var terminalStages = map[Stage]bool{
	StageInvalidNHSNumber:            true,
	StageAgeRestricted:               true,
	StageLookupFailed:                true,
	StageContactDetailsNotFound:      true,
	StageContactDetailsNotRecognised: true,
	StageCodeExpired:                 true,
	StageCodeIncorrectBlocked:        true,
	StageResendBlocked:               true,
	StagePreferenceError:             true,
	StageChoiceNotSaved:              true,
}

// IsTerminal reports whether a stage ends the journey until it is restarted.
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

func (s Stage) isCapture() bool {
	switch s {
	case StageEnterName, StageEnterDOB, StageChooseAuthOption, StageEnterNHSNumber,
		StageEnterPostcode, StageIdentityCaptured, StageNHSNumberNotAccepted:
		return true
	}
	return false
}

func (s Stage) String() string {
	return string(s)
}
