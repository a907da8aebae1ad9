package workflow

import (
	"context"
	"fmt"
	"strings"

	"consentflow/internal/gateway"
	"consentflow/internal/progress"
	"consentflow/internal/retry"
)

const codeLength = 6

func (o *Orchestrator) chooseChannel(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	channel := progress.Channel(ev.value(ValueChannel))
	switch channel {
	case progress.ChannelUnrecognised:
		o.cleanState(ctx, sessionID)
		return o.conclude(ctx, sessionID, p, StageContactDetailsNotRecognised)
	case progress.ChannelSMS:
		if p.SMS == "" {
			return o.invalid(p, ValueChannel, msgChannel), nil
		}
	case progress.ChannelEmail:
		if p.Email == "" {
			return o.invalid(p, ValueChannel, msgChannel), nil
		}
	default:
		return o.invalid(p, ValueChannel, msgChannel), nil
	}

	code, err := o.gateway.RequestVerificationCode(ctx, sessionID, string(channel))
	if err != nil {
		return nil, fmt.Errorf("request verification code: %w", err)
	}

	p.ResetVerification()
	switch code {
	case gateway.CodeSuccess:
		p.Channel = channel
		p.CodeRequested = true
		return o.saveAndDecide(ctx, sessionID, p)
	case gateway.CodeMaxCountExceeded:
		return o.conclude(ctx, sessionID, p, StageResendBlocked)
	default:
		return o.saveAndFail(ctx, sessionID, p, DetailUnexpectedResult)
	}
}

// submitCode verifies the code. Incorrect codes are counted by the verify
// counter; the attempt that passes its maximum blocks the session.
func (o *Orchestrator) submitCode(ctx context.Context, sessionID string, p *progress.Progress, ev Event) (*Decision, error) {
	code, ok := normalizeCode(ev.value(ValueCode))
	if !ok {
		return o.invalid(p, ValueCode, msgCode), nil
	}

	result, err := o.gateway.VerifyCode(ctx, sessionID, code)
	if err != nil {
		return nil, fmt.Errorf("verify code: %w", err)
	}

	switch result {
	case gateway.CodeCorrect:
		if err := o.retry.Reset(ctx, sessionID, retry.CounterVerifyCode); err != nil {
			return nil, fmt.Errorf("reset verify counter: %w", err)
		}
		p.CodeVerified = true
		return o.saveAndDecide(ctx, sessionID, p)
	case gateway.CodeCorrectExpired:
		return o.conclude(ctx, sessionID, p, StageCodeExpired)
	case gateway.CodeIncorrectMax:
		return o.conclude(ctx, sessionID, p, StageCodeIncorrectBlocked)
	case gateway.CodeIncorrect:
		verdict, err := o.retry.Evaluate(ctx, sessionID, retry.CounterVerifyCode)
		if err != nil {
			return nil, err
		}
		if verdict == retry.Exceeded {
			d, err := o.conclude(ctx, sessionID, p, StageCodeIncorrectBlocked)
			if d != nil {
				d.Verdict = verdict.String()
			}
			return d, err
		}
		d := o.decide(p)
		d.Flags.CodeIncorrect = true
		d.Verdict = verdict.String()
		d.FieldErrors = map[string]string{ValueCode: msgCode}
		return d, nil
	default:
		return errorDecision(DetailUnexpectedResult), nil
	}
}

// resendCode evaluates the resend counter before asking the gateway to send
// the code again. Exceeded blocks without contacting the gateway.
func (o *Orchestrator) resendCode(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	verdict, err := o.retry.Evaluate(ctx, sessionID, retry.CounterResendCode)
	if err != nil {
		return nil, err
	}
	if verdict == retry.Exceeded {
		d, err := o.conclude(ctx, sessionID, p, StageResendBlocked)
		if d != nil {
			d.Verdict = verdict.String()
		}
		return d, err
	}

	result, err := o.gateway.ResendVerificationCode(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resend verification code: %w", err)
	}

	switch result {
	case gateway.CodeSuccess, gateway.CodeMaxCountReached:
		p.Resent = true
		p.ResendMaxReached = verdict == retry.Reached || result == gateway.CodeMaxCountReached
		d, err := o.saveAndDecide(ctx, sessionID, p)
		if d != nil {
			d.Verdict = verdict.String()
		}
		return d, err
	case gateway.CodeMaxCountExceeded:
		return o.conclude(ctx, sessionID, p, StageResendBlocked)
	default:
		return errorDecision(DetailUnexpectedResult), nil
	}
}

// normalizeCode strips spaces and requires six digits.
func normalizeCode(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if len(s) != codeLength {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}
