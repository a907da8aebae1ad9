package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"consentflow/internal/gateway"
	"consentflow/internal/platform/middleware"
	"consentflow/internal/workflow"
	"consentflow/pkg/platform/sentinel"
	"consentflow/pkg/requestcontext"
)

const maxEventBody = 16 << 10

// Journey starts sessions and advances them through the consent workflow.
type Journey interface {
	Start(ctx context.Context, previousSessionID string) (string, *workflow.Decision, error)
	Advance(ctx context.Context, sessionID string, ev workflow.Event) (*workflow.Decision, error)
}

// JourneyHandler exposes the workflow over JSON.
type JourneyHandler struct {
	journey Journey
	logger  *slog.Logger
	session middleware.SessionConfig
}

// NewJourneyHandler creates a JourneyHandler.
func NewJourneyHandler(journey Journey, logger *slog.Logger, session middleware.SessionConfig) *JourneyHandler {
	return &JourneyHandler{journey: journey, logger: logger, session: session}
}

// Register mounts the journey routes. The router must already resolve the session.
func (h *JourneyHandler) Register(r chi.Router) {
	r.Get("/journey", h.handleEvent(workflow.EventView))
	r.Get("/journey/poll", h.handleEvent(workflow.EventPoll))
	r.Post("/journey/start", h.handleStart)
	r.Post("/journey/events", h.handleSubmit)
}

func (h *JourneyHandler) handleEvent(kind workflow.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.advance(w, r, workflow.Event{Kind: kind})
	}
}

type eventRequest struct {
	Kind   workflow.EventKind `json:"kind"`
	Values map[string]string  `json:"values"`
}

func (h *JourneyHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "kind is required")
		return
	}
	if req.Kind == workflow.EventStart {
		h.handleStart(w, r)
		return
	}
	h.advance(w, r, workflow.Event{Kind: req.Kind, Values: req.Values})
}

// handleStart abandons the client's journey, if it had one, and moves the
// session cookie to a new downstream session.
func (h *JourneyHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	previous := middleware.GetSessionID(ctx)
	if middleware.SessionIssued(ctx) {
		previous = ""
	}
	sessionID, d, err := h.journey.Start(ctx, previous)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, h.session, sessionID)
	writeJSON(w, http.StatusOK, d)
}

func (h *JourneyHandler) advance(w http.ResponseWriter, r *http.Request, ev workflow.Event) {
	d, err := h.journey.Advance(r.Context(), middleware.GetSessionID(r.Context()), ev)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if d.RefreshAfterSeconds > 0 {
		w.Header().Set("Refresh", strconv.Itoa(d.RefreshAfterSeconds))
	}
	writeJSON(w, http.StatusOK, d)
}

// fail reports an advance error as the Error stage without leaking its cause.
func (h *JourneyHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, workflow.ErrUnknownEvent) {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown event kind")
		return
	}

	status, detail := http.StatusInternalServerError, "internal_error"
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &gwErr):
		status, detail = http.StatusBadGateway, "gateway_unavailable"
	case errors.Is(err, sentinel.ErrUnavailable):
		status, detail = http.StatusServiceUnavailable, "store_unavailable"
	}
	h.logger.ErrorContext(ctx, "journey advance failed",
		"error", err,
		"session_ref", requestcontext.SessionRef(middleware.GetSessionID(ctx)),
		"request_id", middleware.GetRequestID(ctx),
	)
	writeJSON(w, status, &workflow.Decision{Stage: workflow.StageError, ErrorDetail: detail})
}
