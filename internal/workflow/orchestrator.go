// Package workflow drives a citizen through record lookup, code verification
// and preference capture.
//
// Start opens a journey on a new downstream session. Advance then moves it
// along: each call reads the session's progress,
// derives the current stage, applies the event for that stage (calling the
// gateway or the retry evaluator when the stage needs it), persists the
// updated facts and returns a Decision. Domain outcomes are always Decisions;
// only gateway failures, store failures and invariant violations are errors.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"consentflow/internal/audit"
	"consentflow/internal/gateway"
	"consentflow/internal/platform/metrics"
	"consentflow/internal/progress"
	"consentflow/internal/retry"
	"consentflow/pkg/requestcontext"
)

const (
	defaultRequestTimeout  = 30 * time.Second
	defaultRefreshInterval = 5 * time.Second
)

// RetryEvaluator turns counter increments into verdicts.
type RetryEvaluator interface {
	Evaluate(ctx context.Context, sessionID, name string) (retry.Verdict, error)
	Reset(ctx context.Context, sessionID, name string) error
	Forget(ctx context.Context, sessionID string) error
}

// AuditPublisher records journey outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Orchestrator is the journey state machine. It keeps no per-session state
// between calls beyond the per-session locks held while a call runs.
type Orchestrator struct {
	progress progress.Store
	retry    RetryEvaluator
	gateway  gateway.Gateway
	audit    AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	requestTimeout  time.Duration
	refreshInterval time.Duration

	locks *sessionLocks
	polls singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(o *Orchestrator) {
		o.audit = p
	}
}

// WithRequestTimeout sets the length of every wait window.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// WithRefreshInterval sets the re-poll hint returned with waiting decisions.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.refreshInterval = d
		}
	}
}

// New creates an Orchestrator.
func New(store progress.Store, evaluator RetryEvaluator, gw gateway.Gateway, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("progress store is required")
	}
	if evaluator == nil {
		return nil, errors.New("retry evaluator is required")
	}
	if gw == nil {
		return nil, errors.New("gateway is required")
	}
	o := &Orchestrator{
		progress:        store,
		retry:           evaluator,
		gateway:         gw,
		logger:          slog.Default(),
		tracer:          otel.Tracer("consentflow/workflow"),
		requestTimeout:  defaultRequestTimeout,
		refreshInterval: defaultRefreshInterval,
		locks:           newSessionLocks(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Start abandons previousSessionID when it is set, opens a new downstream
// session and returns its id with the first decision of the journey.
func (o *Orchestrator) Start(ctx context.Context, previousSessionID string) (string, *Decision, error) {
	start := time.Now()
	defer o.metrics.ObserveAdvance(string(EventStart), start)

	ctx, span := o.tracer.Start(ctx, "workflow.start")
	defer span.End()

	if previousSessionID != "" {
		unlock := o.locks.lock(previousSessionID)
		err := o.clearSession(ctx, previousSessionID)
		unlock()
		if err != nil {
			span.SetStatus(codes.Error, "start failed")
			return "", nil, err
		}
	}

	sessionID, err := o.gateway.CreateSession(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "start failed")
		o.logger.ErrorContext(ctx, "create session failed", "error", err)
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	o.logger.InfoContext(ctx, "journey started", "session_ref", requestcontext.SessionRef(sessionID))
	return sessionID, &Decision{Stage: StageEnterName}, nil
}

// Advance applies one event to the session and returns the next decision.
// Concurrent view and poll events for the same session share one execution.
func (o *Orchestrator) Advance(ctx context.Context, sessionID string, ev Event) (*Decision, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if !knownEvents[ev.Kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}

	start := time.Now()
	defer o.metrics.ObserveAdvance(string(ev.Kind), start)

	ctx, span := o.tracer.Start(ctx, "workflow.advance",
		trace.WithAttributes(attribute.String("event", string(ev.Kind))),
	)
	defer span.End()

	var (
		d   *Decision
		err error
	)
	if ev.Kind == EventView || ev.Kind == EventPoll {
		var v any
		v, err, _ = o.polls.Do(sessionID+"|"+string(ev.Kind), func() (any, error) {
			return o.advanceLocked(ctx, sessionID, ev)
		})
		if err == nil {
			d = v.(*Decision).Clone()
		}
	} else {
		d, err = o.advanceLocked(ctx, sessionID, ev)
	}
	if err != nil {
		span.SetStatus(codes.Error, "advance failed")
		o.logger.ErrorContext(ctx, "advance failed",
			"session_ref", requestcontext.SessionRef(sessionID),
			"event", string(ev.Kind),
			"error", err,
		)
		return nil, err
	}
	span.SetAttributes(attribute.String("stage", d.Stage.String()))
	return d, nil
}

func (o *Orchestrator) advanceLocked(ctx context.Context, sessionID string, ev Event) (*Decision, error) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	if ev.Kind == EventStart {
		return o.restart(ctx, sessionID)
	}

	p, err := o.progress.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	from := DeriveStage(p)

	expired, err := o.sessionExpired(ctx, sessionID, p, from, ev)
	if err != nil {
		return nil, err
	}
	var d *Decision
	if expired {
		d, err = o.expire(ctx, sessionID)
	} else {
		d, err = o.dispatch(ctx, sessionID, p, from, ev)
	}
	if err != nil {
		return nil, err
	}

	o.metrics.ObserveStageTransition(from.String(), d.Stage.String())
	if from != d.Stage {
		o.logger.InfoContext(ctx, "stage advanced",
			"session_ref", requestcontext.SessionRef(sessionID),
			"event", string(ev.Kind),
			"from", from.String(),
			"to", d.Stage.String(),
		)
	}
	return d, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, sessionID string, p *progress.Progress, stage Stage, ev Event) (*Decision, error) {
	if stage.isCapture() {
		switch ev.Kind {
		case EventSetName:
			return o.setName(ctx, sessionID, p, ev)
		case EventSetDOB:
			return o.setDOB(ctx, sessionID, p, ev)
		case EventChooseAuthOption:
			return o.chooseAuthOption(ctx, sessionID, p, ev)
		case EventSetNHSNumber:
			return o.setNHSNumber(ctx, sessionID, p, ev)
		case EventSetPostcode:
			return o.setPostcode(ctx, sessionID, p, ev)
		}
	}

	switch stage {
	case StageIdentityCaptured:
		if ev.Kind == EventSubmitLookup {
			return o.submitLookup(ctx, sessionID, p)
		}
	case StageWaitingForLookup:
		if ev.Kind == EventView || ev.Kind == EventPoll {
			return o.pollLookup(ctx, sessionID, p)
		}
	case StageChooseVerificationChan:
		if ev.Kind == EventChooseChannel {
			return o.chooseChannel(ctx, sessionID, p, ev)
		}
	case StageEnterCode:
		switch ev.Kind {
		case EventSubmitCode:
			return o.submitCode(ctx, sessionID, p, ev)
		case EventResendCode:
			return o.resendCode(ctx, sessionID, p)
		}
	case StageChoosePreference:
		switch ev.Kind {
		case EventView, EventPoll:
			return o.fetchCurrentPreference(ctx, sessionID, p)
		case EventChoosePreference:
			return o.choosePreference(ctx, sessionID, p, ev)
		}
	case StageSubmitPreference:
		switch ev.Kind {
		case EventView, EventPoll, EventSubmitPreference:
			return o.submitPreference(ctx, sessionID, p)
		case EventChoosePreference:
			return o.choosePreference(ctx, sessionID, p, ev)
		}
	case StageReviewChoice:
		switch ev.Kind {
		case EventView, EventPoll:
			return o.reviewChoice(ctx, sessionID, p)
		case EventChoosePreference:
			return o.choosePreference(ctx, sessionID, p, ev)
		case EventConfirm:
			return o.confirm(ctx, sessionID, p)
		}
	case StageWaitingForStoreResult:
		if ev.Kind == EventView || ev.Kind == EventPoll {
			return o.pollStoreResult(ctx, sessionID, p)
		}
	case StageThankYou:
		if ev.Kind == EventView || ev.Kind == EventPoll {
			return o.thankYou(ctx, sessionID, p)
		}
	}

	// Events that do not apply to the current stage leave it unchanged.
	return o.decide(p), nil
}

// restart forgets everything held for the session and keeps using it.
func (o *Orchestrator) restart(ctx context.Context, sessionID string) (*Decision, error) {
	if err := o.clearSession(ctx, sessionID); err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "journey restarted", "session_ref", requestcontext.SessionRef(sessionID))
	return &Decision{Stage: StageEnterName}, nil
}

// Events that only make sense once identity capture is complete. Receiving
// one with no progress on record means the session's state was lost.
var postCaptureEvents = map[EventKind]bool{
	EventSubmitLookup:     true,
	EventChooseChannel:    true,
	EventSubmitCode:       true,
	EventResendCode:       true,
	EventChoosePreference: true,
	EventSubmitPreference: true,
	EventConfirm:          true,
}

// sessionExpired reports whether the journey can no longer continue on this
// session. Name capture needs no downstream session and finished journeys no
// longer have one; every stage in between does.
func (o *Orchestrator) sessionExpired(ctx context.Context, sessionID string, p *progress.Progress, from Stage, ev Event) (bool, error) {
	if p.IsEmpty() {
		return postCaptureEvents[ev.Kind], nil
	}
	if from == StageEnterName || from == StageThankYou || from.IsTerminal() {
		return false, nil
	}
	valid, err := o.gateway.CheckSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return !valid, nil
}

// expire drops the session's local state and reports the expiry.
func (o *Orchestrator) expire(ctx context.Context, sessionID string) (*Decision, error) {
	if err := o.clearSession(ctx, sessionID); err != nil {
		return nil, err
	}
	o.emit(ctx, sessionID, audit.ActionSessionExpired, StageSessionExpired)
	return &Decision{Stage: StageSessionExpired}, nil
}

func (o *Orchestrator) clearSession(ctx context.Context, sessionID string) error {
	if err := o.progress.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if err := o.retry.Forget(ctx, sessionID); err != nil {
		return fmt.Errorf("clear counters: %w", err)
	}
	return nil
}

// decide renders the decision for whatever stage p is in.
func (o *Orchestrator) decide(p *progress.Progress) *Decision {
	d := &Decision{Stage: DeriveStage(p)}
	switch d.Stage {
	case StageEnterCode:
		d.Flags.Resent = p.Resent
		d.Flags.ResendMaxReached = p.ResendMaxReached
	case StageChoosePreference, StageSubmitPreference, StageReviewChoice:
		d.CurrentPreference = p.CurrentPreference
	}
	return d
}

func (o *Orchestrator) waiting(p *progress.Progress) *Decision {
	d := o.decide(p)
	d.Flags.Waiting = true
	d.RefreshAfterSeconds = max(1, int(o.refreshInterval/time.Second))
	return d
}

// invalid re-renders the current stage with a field error.
func (o *Orchestrator) invalid(p *progress.Progress, key, message string) *Decision {
	d := o.decide(p)
	d.FieldErrors = map[string]string{key: message}
	return d
}

func errorDecision(detail string) *Decision {
	return &Decision{Stage: StageError, ErrorDetail: detail}
}

func (o *Orchestrator) save(ctx context.Context, sessionID string, p *progress.Progress) error {
	if err := o.progress.Save(ctx, sessionID, p); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// saveAndDecide persists p and renders its decision.
func (o *Orchestrator) saveAndDecide(ctx context.Context, sessionID string, p *progress.Progress) (*Decision, error) {
	if err := o.save(ctx, sessionID, p); err != nil {
		return nil, err
	}
	return o.decide(p), nil
}

// saveAndFail persists p and reports the attempt as failed.
func (o *Orchestrator) saveAndFail(ctx context.Context, sessionID string, p *progress.Progress, detail string) (*Decision, error) {
	if err := o.save(ctx, sessionID, p); err != nil {
		return nil, err
	}
	return errorDecision(detail), nil
}

// conclude records a terminal outcome and audits it.
func (o *Orchestrator) conclude(ctx context.Context, sessionID string, p *progress.Progress, stage Stage) (*Decision, error) {
	p.ClearDeadline()
	p.Outcome = stage.String()
	if err := o.save(ctx, sessionID, p); err != nil {
		return nil, err
	}
	if action, ok := auditActions[stage]; ok {
		o.emit(ctx, sessionID, action, stage)
	}
	return o.decide(p), nil
}

var auditActions = map[Stage]string{
	StageInvalidNHSNumber:     audit.ActionIdentityRejected,
	StageAgeRestricted:        audit.ActionAgeRestricted,
	StageLookupFailed:         audit.ActionLookupFailed,
	StageCodeIncorrectBlocked: audit.ActionCodeBlocked,
	StageResendBlocked:        audit.ActionResendBlocked,
	StageChoiceNotSaved:       audit.ActionChoiceNotSaved,
	StageThankYou:             audit.ActionPreferenceStored,
}

func (o *Orchestrator) emit(ctx context.Context, sessionID, action string, stage Stage) {
	if o.audit == nil {
		return
	}
	// Audit is best-effort; the publisher logs its own failures.
	_ = o.audit.Emit(ctx, audit.Event{
		SessionRef: requestcontext.SessionRef(sessionID),
		Action:     action,
		Stage:      stage.String(),
	})
}

// cleanState asks the gateway to reset its state model. Failure is logged only.
func (o *Orchestrator) cleanState(ctx context.Context, sessionID string) {
	if err := o.gateway.CleanState(ctx, sessionID); err != nil {
		o.logger.WarnContext(ctx, "clean state failed",
			"session_ref", requestcontext.SessionRef(sessionID),
			"kind", string(gateway.KindOf(err)),
		)
	}
}

// waitExpired applies the deadline rule for a waiting stage. The first visit
// opens the window; a visit at or after the deadline clears it and reports
// the wait as timed out.
func (o *Orchestrator) waitExpired(ctx context.Context, p *progress.Progress) bool {
	now := requestcontext.Now(ctx)
	if p.DeadlinePassed(now) {
		p.ClearDeadline()
		return true
	}
	p.StartDeadline(now, o.requestTimeout)
	return false
}

// failWait clears the deadline, persists p and returns the wrapped gateway error.
func (o *Orchestrator) failWait(ctx context.Context, sessionID string, p *progress.Progress, op string, cause error) (*Decision, error) {
	p.ClearDeadline()
	if err := o.save(ctx, sessionID, p); err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", op, cause), err)
	}
	return nil, fmt.Errorf("%s: %w", op, cause)
}
