package workflow

import (
	"context"
	"fmt"

	"consentflow/internal/gateway"
	"consentflow/internal/progress"
)

// Field error messages.
const (
	msgFirstNameMissing = "Enter your first name"
	msgLastNameMissing  = "Enter your last name"
	msgDOBInvalid       = "Date of birth is missing or invalid"
	msgAuthOption       = "Select an option"
	msgNHSNumber        = "NHS number is missing or invalid"
	msgPostcode         = "Postcode is missing or invalid"
	msgChannel          = "Select how to receive your code"
	msgCode             = "Enter the 6 digit code"
	msgPreference       = "No choice selected"
)

func (o *Orchestrator) setName(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	first, okFirst := normalizeName(ev.value(ValueFirstName))
	last, okLast := normalizeName(ev.value(ValueLastName))
	if !okFirst || !okLast {
		d := o.decide(p)
		d.FieldErrors = map[string]string{}
		if !okFirst {
			d.FieldErrors[ValueFirstName] = msgFirstNameMissing
		}
		if !okLast {
			d.FieldErrors[ValueLastName] = msgLastNameMissing
		}
		return d, nil
	}
	p.FirstName, p.LastName = first, last
	return o.saveAndDecide(ctx, sessionID, p)
}

func (o *Orchestrator) setDOB(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	dob, ok := parseDOB(ev.value(ValueDay), ev.value(ValueMonth), ev.value(ValueYear))
	if !ok {
		return o.invalid(p, FieldDOB, msgDOBInvalid), nil
	}
	p.DOB = dob
	return o.saveAndDecide(ctx, sessionID, p)
}

func (o *Orchestrator) chooseAuthOption(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	switch progress.AuthOption(ev.value(ValueAuthOption)) {
	case progress.AuthNHSNumber:
		p.AuthOption = progress.AuthNHSNumber
		p.Postcode = ""
	case progress.AuthPostcode:
		p.AuthOption = progress.AuthPostcode
		p.NHSNumber = ""
	default:
		return o.invalid(p, ValueAuthOption, msgAuthOption), nil
	}
	return o.saveAndDecide(ctx, sessionID, p)
}

func (o *Orchestrator) setNHSNumber(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	n, ok := normalizeNHSNumber(ev.value(ValueNHSNumber))
	if !ok {
		return o.invalid(p, ValueNHSNumber, msgNHSNumber), nil
	}
	p.AuthOption = progress.AuthNHSNumber
	p.SetNHSNumber(n)
	return o.saveAndDecide(ctx, sessionID, p)
}

func (o *Orchestrator) setPostcode(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	pc, ok := normalizePostcode(ev.value(ValuePostcode))
	if !ok {
		return o.invalid(p, ValuePostcode, msgPostcode), nil
	}
	p.AuthOption = progress.AuthPostcode
	p.SetPostcode(pc)
	return o.saveAndDecide(ctx, sessionID, p)
}

// submitLookup checks the NHS number and hands the identity to the gateway.
// A number failing its check digit is tolerated once per session.
func (o *Orchestrator) submitLookup(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	if !p.IdentityComplete() {
		return nil, fmt.Errorf("%w: lookup submitted without a complete identity", ErrInvariant)
	}

	if p.NHSNumber != "" && !validNHSChecksum(p.NHSNumber) {
		if p.NHSNumberPreviouslyRejected {
			return o.conclude(ctx, sessionID, p, StageInvalidNHSNumber)
		}
		p.NHSNumberPreviouslyRejected = true
		p.NHSNumber = ""
		return o.saveAndDecide(ctx, sessionID, p)
	}

	code, err := o.gateway.LookupRecord(ctx, sessionID, gateway.Identity{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		DOBDay:    p.DOB.Day,
		DOBMonth:  p.DOB.Month,
		DOBYear:   p.DOB.Year,
		NHSNumber: p.NHSNumber,
		Postcode:  p.Postcode,
	})
	p.ClearDeadline()
	if err != nil {
		return o.failWait(ctx, sessionID, p, "lookup record", err)
	}

	switch code {
	case gateway.CodeSuccess:
		p.LookupSubmitted = true
		return o.saveAndDecide(ctx, sessionID, p)
	case gateway.CodeInvalidAge:
		return o.conclude(ctx, sessionID, p, StageAgeRestricted)
	case gateway.CodeRequestTimeout:
		return o.saveAndFail(ctx, sessionID, p, DetailTimeout)
	default:
		return o.saveAndFail(ctx, sessionID, p, DetailUnexpectedResult)
	}
}

// pollLookup waits for the lookup under the request deadline.
func (o *Orchestrator) pollLookup(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	if o.waitExpired(ctx, p) {
		p.LookupSubmitted = false
		return o.saveAndFail(ctx, sessionID, p, DetailTimeout)
	}

	res, err := o.gateway.PollLookupResult(ctx, sessionID)
	if err != nil {
		p.LookupSubmitted = false
		return o.failWait(ctx, sessionID, p, "poll lookup result", err)
	}

	if res.Code == gateway.CodeIncomplete {
		if err := o.save(ctx, sessionID, p); err != nil {
			return nil, err
		}
		return o.waiting(p), nil
	}

	p.ClearDeadline()
	switch res.Code {
	case gateway.CodeSuccess:
		if res.SMS == "" && res.Email == "" {
			return o.conclude(ctx, sessionID, p, StageContactDetailsNotFound)
		}
		p.SMS, p.Email = res.SMS, res.Email
		p.LookupSucceeded = true
		return o.saveAndDecide(ctx, sessionID, p)
	case gateway.CodeInvalidUser:
		o.cleanState(ctx, sessionID)
		return o.conclude(ctx, sessionID, p, StageLookupFailed)
	case gateway.CodeInsufficientData:
		return o.conclude(ctx, sessionID, p, StageContactDetailsNotFound)
	case gateway.CodeAgeRestriction:
		return o.conclude(ctx, sessionID, p, StageAgeRestricted)
	case gateway.CodeRequestTimeout:
		p.LookupSubmitted = false
		return o.saveAndFail(ctx, sessionID, p, DetailTimeout)
	default:
		p.LookupSubmitted = false
		return o.saveAndFail(ctx, sessionID, p, DetailUnexpectedResult)
	}
}
