package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"consentflow/internal/progress"
)

func TestDeriveStage(t *testing.T) {
	dob := &progress.DateOfBirth{Day: 1, Month: 1, Year: 1990}
	identity := func() progress.Progress {
		return progress.Progress{FirstName: "Ada", LastName: "Lovelace", DOB: dob, AuthOption: progress.AuthNHSNumber, NHSNumber: "9434765919"}
	}
	with := func(mutate func(p *progress.Progress)) *progress.Progress {
		p := identity()
		mutate(&p)
		return &p
	}

	tests := []struct {
		name string
		in   *progress.Progress
		want Stage
	}{
		{name: "nil", in: nil, want: StageEnterName},
		{name: "empty", in: &progress.Progress{}, want: StageEnterName},
		{name: "first name only", in: &progress.Progress{FirstName: "Ada"}, want: StageEnterName},
		{name: "name", in: &progress.Progress{FirstName: "Ada", LastName: "Lovelace"}, want: StageEnterDOB},
		{name: "dob", in: &progress.Progress{FirstName: "Ada", LastName: "Lovelace", DOB: dob}, want: StageChooseAuthOption},
		{name: "nhs option", in: &progress.Progress{FirstName: "Ada", LastName: "Lovelace", DOB: dob, AuthOption: progress.AuthNHSNumber}, want: StageEnterNHSNumber},
		{name: "postcode option", in: &progress.Progress{FirstName: "Ada", LastName: "Lovelace", DOB: dob, AuthOption: progress.AuthPostcode}, want: StageEnterPostcode},
		{name: "rejected nhs number", in: with(func(p *progress.Progress) { p.NHSNumber = ""; p.NHSNumberPreviouslyRejected = true }), want: StageNHSNumberNotAccepted},
		{name: "identity", in: with(func(p *progress.Progress) {}), want: StageIdentityCaptured},
		{name: "lookup submitted", in: with(func(p *progress.Progress) { p.LookupSubmitted = true }), want: StageWaitingForLookup},
		{name: "lookup succeeded", in: with(func(p *progress.Progress) { p.LookupSubmitted = true; p.LookupSucceeded = true }), want: StageChooseVerificationChan},
		{name: "code requested", in: with(func(p *progress.Progress) { p.LookupSucceeded = true; p.CodeRequested = true }), want: StageEnterCode},
		{name: "code verified", in: with(func(p *progress.Progress) { p.CodeRequested = true; p.CodeVerified = true }), want: StageChoosePreference},
		{name: "preference chosen", in: with(func(p *progress.Progress) { p.CodeVerified = true; p.Preference = progress.PreferenceOptedIn }), want: StageSubmitPreference},
		{name: "preference set", in: with(func(p *progress.Progress) { p.Preference = progress.PreferenceOptedIn; p.PreferenceSet = true }), want: StageReviewChoice},
		{name: "confirmed", in: with(func(p *progress.Progress) { p.PreferenceSet = true; p.Confirmed = true }), want: StageWaitingForStoreResult},
		{name: "stored", in: with(func(p *progress.Progress) { p.Confirmed = true; p.Stored = true }), want: StageThankYou},
		{name: "outcome wins", in: with(func(p *progress.Progress) { p.Stored = true; p.Outcome = StageChoiceNotSaved.String() }), want: StageChoiceNotSaved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStage(tt.in))
		})
	}
}

func TestDeriveStageIgnoresDeadline(t *testing.T) {
	deadline := time.Now().Add(-time.Hour)
	p := &progress.Progress{FirstName: "Ada", LastName: "Lovelace", Deadline: &deadline}
	assert.Equal(t, StageEnterDOB, DeriveStage(p))
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageResendBlocked.IsTerminal())
	assert.True(t, StageChoiceNotSaved.IsTerminal())
	assert.False(t, StageThankYou.IsTerminal())
	assert.False(t, StageError.IsTerminal())
	assert.False(t, StageEnterCode.IsTerminal())
}

func TestSessionLocksReleaseEntries(t *testing.T) {
	l := newSessionLocks()
	unlockA := l.lock("a")
	unlockB := l.lock("b")
	assert.Equal(t, 2, l.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, l.size())
}

func TestDecisionClone(t *testing.T) {
	d := &Decision{Stage: StageEnterCode, FieldErrors: map[string]string{ValueCode: msgCode}}
	c := d.Clone()
	c.FieldErrors[ValueCode] = "changed"
	assert.Equal(t, msgCode, d.FieldErrors[ValueCode])
}
