package workflow

import "consentflow/internal/progress"

// DeriveStage computes the current stage from stored facts. Later facts win:
// a session that has confirmed its preference is waiting for the store result
// regardless of how it got there.
func DeriveStage(p *progress.Progress) Stage {
	if p == nil {
		return StageEnterName
	}
	if p.Outcome != "" {
		return Stage(p.Outcome)
	}
	switch {
	case p.Stored:
		return StageThankYou
	case p.Confirmed:
		return StageWaitingForStoreResult
	case p.PreferenceSet:
		return StageReviewChoice
	case p.Preference != "":
		return StageSubmitPreference
	case p.CodeVerified:
		return StageChoosePreference
	case p.CodeRequested:
		return StageEnterCode
	case p.LookupSucceeded:
		return StageChooseVerificationChan
	case p.LookupSubmitted:
		return StageWaitingForLookup
	}
	return captureStage(p)
}

func captureStage(p *progress.Progress) Stage {
	switch {
	case !p.HasName():
		return StageEnterName
	case p.DOB == nil:
		return StageEnterDOB
	case p.HasIdentifier():
		return StageIdentityCaptured
	}
	switch p.AuthOption {
	case progress.AuthNHSNumber:
		if p.NHSNumberPreviouslyRejected {
			return StageNHSNumberNotAccepted
		}
		return StageEnterNHSNumber
	case progress.AuthPostcode:
		return StageEnterPostcode
	}
	return StageChooseAuthOption
}
