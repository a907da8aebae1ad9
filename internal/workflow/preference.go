package workflow

import (
	"context"

	"consentflow/internal/audit"
	"consentflow/internal/gateway"
	"consentflow/internal/progress"
)

// fetchCurrentPreference loads the stored preference once, under the request
// deadline, before the citizen chooses.
func (o *Orchestrator) fetchCurrentPreference(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	if p.CurrentPreference != "" {
		return o.decide(p), nil
	}
	if o.waitExpired(ctx, p) {
		return o.saveAndFail(ctx, sessionID, p, DetailTimeout)
	}

	code, err := o.gateway.GetCurrentPreference(ctx, sessionID)
	if err != nil {
		return o.failWait(ctx, sessionID, p, "get current preference", err)
	}

	switch code {
	case gateway.CodeIncomplete:
		if err := o.save(ctx, sessionID, p); err != nil {
			return nil, err
		}
		return o.waiting(p), nil
	case gateway.CodeActive, gateway.CodeInactive, gateway.CodeEmpty:
		p.ClearDeadline()
		p.CurrentPreference = string(code)
		return o.saveAndDecide(ctx, sessionID, p)
	default:
		p.ClearDeadline()
		return o.saveAndFail(ctx, sessionID, p, DetailPreferenceLookup)
	}
}

func (o *Orchestrator) choosePreference(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	pref := progress.Preference(ev.value(ValuePreference))
	if pref != progress.PreferenceOptedIn && pref != progress.PreferenceOptedOut {
		return o.invalid(p, ValuePreference, msgPreference), nil
	}
	p.ClearDeadline()
	p.Preference = pref
	p.PreferenceSet = false
	return o.saveAndDecide(ctx, sessionID, p)
}

func (o *Orchestrator) submitPreference(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	ok, err := o.gateway.SetPreference(ctx, sessionID, string(p.Preference))
	if err != nil {
		return nil, err
	}
	if !ok {
		return o.conclude(ctx, sessionID, p, StagePreferenceError)
	}
	p.PreferenceSet = true
	return o.saveAndDecide(ctx, sessionID, p)
}

// reviewChoice reports where the confirmation will be delivered.
func (o *Orchestrator) reviewChoice(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	delivery, err := o.gateway.ConfirmationDelivery(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if delivery == nil || (delivery.Method != "sms" && delivery.Method != "email") {
		return errorDecision(DetailNoDelivery), nil
	}
	d := o.decide(p)
	d.Delivery = delivery
	return d, nil
}

func (o *Orchestrator) confirm(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	ok, err := o.gateway.ConfirmPreference(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return errorDecision(DetailNotConfirmed), nil
	}
	p.ClearDeadline()
	p.Confirmed = true
	return o.saveAndDecide(ctx, sessionID, p)
}

// pollStoreResult waits for the preference to be stored under the request deadline.
func (o *Orchestrator) pollStoreResult(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	if o.waitExpired(ctx, p) {
		p.Confirmed = false
		return o.saveAndFail(ctx, sessionID, p, DetailTimeout)
	}

	code, err := o.gateway.PollStoreResult(ctx, sessionID)
	if err != nil {
		p.Confirmed = false
		return o.failWait(ctx, sessionID, p, "poll store result", err)
	}

	switch code {
	case gateway.CodeSuccess:
		p.ClearDeadline()
		p.Stored = true
		d, err := o.saveAndDecide(ctx, sessionID, p)
		if err != nil {
			return nil, err
		}
		o.emit(ctx, sessionID, audit.ActionPreferenceStored, StageThankYou)
		return d, nil
	case gateway.CodeFailure:
		return o.conclude(ctx, sessionID, p, StageChoiceNotSaved)
	default:
		if err := o.save(ctx, sessionID, p); err != nil {
			return nil, err
		}
		return o.waiting(p), nil
	}
}

// thankYou reports completion, then forgets the session.
func (o *Orchestrator) thankYou(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	d := o.decide(p)
	if err := o.clearSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return d, nil
}
