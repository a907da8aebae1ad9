package mockapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"consentflow/internal/gateway"
	"consentflow/internal/retry"
	"consentflow/pkg/requestcontext"
)

const maxBody = 16 << 10

type sessionKey struct{}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// requireSession rejects calls without a session cookie. Unknown sessions are
// created on first use.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(gateway.SessionCookie)
		if err != nil || c.Value == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid_session_cookie"})
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "invalid_content_type"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	return dec.Decode(v)
}

var empty = struct{}{}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	s.sessions.open(id, s.now().Add(s.sessionTTL))
	http.SetCookie(w, &http.Cookie{
		Name:     gateway.SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, empty)
}

// handleCheckSession always answers 200; an unknown or expired session is reported as invalid.
func (s *Server) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(gateway.SessionCookie)
	valid := err == nil && c.Value != "" && s.sessions.valid(c.Value, s.now())
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

type detailsRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	NHSNumber string `json:"nhsNumber"`
	Postcode  string `json:"postcode"`
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	sid := sessionFrom(r.Context())
	user := findUser(s.users, req.FirstName, req.LastName, req.NHSNumber, req.Postcode)
	s.sessions.update(sid, func(sess *session) {
		sess.user = user
		sess.detailsPosted = true
	})
	s.polls.Forget(resourceSearch, sid)
	s.logger.InfoContext(r.Context(), "details received",
		"session_ref", requestcontext.SessionRef(sid),
		"matched", user != nil,
	)
	writeJSON(w, http.StatusOK, empty)
}

// failing reports whether the session belongs to the user whose calls all fail.
func failing(sess session) bool {
	return sess.user != nil && sess.user.is("Five", "Hundred")
}

func (s *Server) handleSearchResult(w http.ResponseWriter, r *http.Request) {
	sid := sessionFrom(r.Context())
	sess := s.sessions.get(sid)
	if !sess.detailsPosted {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "details_not_submitted"})
		return
	}
	if failing(sess) {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	if !s.polls.Ready(resourceSearch, sid) {
		writeJSON(w, http.StatusPartialContent, map[string]string{"search_result": "incomplete"})
		return
	}
	u := sess.user
	switch {
	case u == nil:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"search_result": "incomplete"})
	case u.youngerThan(s.minimumAge, s.now()):
		writeJSON(w, http.StatusNotAcceptable, map[string]string{"error": "age_verification_failed"})
	case u.SMS == "" && u.Email == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"search_result": "ndop_info"})
	default:
		body := map[string]string{"search_result": "success"}
		if u.SMS != "" {
			body["sms"] = u.SMS
		}
		if u.Email != "" {
			body["email"] = u.Email
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// handleRequestCode sends the first code. It refuses once the resend maximum
// has been passed but does not itself count as a resend.
func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionFrom(ctx)
	sess := s.sessions.get(sid)
	if failing(sess) {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	var req struct {
		Channel string `json:"otp_delivery_type"`
	}
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	s.sessions.update(sid, func(sess *session) { sess.channel = req.Channel })

	limit, _ := s.evaluator.Policy().Max(retry.CounterResendCode)
	count, err := s.counters.Count(ctx, sid, retry.CounterResendCode)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	if count >= limit {
		writeJSON(w, http.StatusNotAcceptable, map[string]string{"error": "max_count_exceeded"})
		return
	}
	writeJSON(w, http.StatusOK, empty)
}

func (s *Server) handleResendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionFrom(ctx)
	if failing(s.sessions.get(sid)) {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	verdict, err := s.evaluator.Evaluate(ctx, sid, retry.CounterResendCode)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	switch verdict {
	case retry.NotReached:
		writeJSON(w, http.StatusOK, map[string]string{"resend_count": "success"})
	case retry.Reached:
		writeJSON(w, http.StatusOK, map[string]string{"resend_count": "max_count_reached"})
	default:
		writeJSON(w, http.StatusNotAcceptable, map[string]string{"resend_count": "max_count_exceeded"})
	}
}

// Codes with fixed meaning; any other code is correct.
const (
	codeExpired   = "000000"
	codeIncorrect = "666666"
)

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionFrom(ctx)
	var req struct {
		Code string `json:"enterOtpInput"`
	}
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	switch req.Code {
	case codeExpired:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	case codeIncorrect:
	default:
		if err := s.evaluator.Reset(ctx, sid, retry.CounterVerifyCode); err != nil {
			writeJSON(w, http.StatusInternalServerError, empty)
			return
		}
		writeJSON(w, http.StatusOK, empty)
		return
	}

	verdict, err := s.evaluator.Evaluate(ctx, sid, retry.CounterVerifyCode)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, empty)
		return
	}
	status := http.StatusPartialContent
	if verdict == retry.Exceeded {
		status = http.StatusNotAcceptable
	}
	writeJSON(w, status, map[string]string{"warning": "invalid_otp_entered"})
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	sid := sessionFrom(r.Context())
	if !s.polls.Ready(resourcePreference, sid) {
		writeJSON(w, http.StatusPartialContent, map[string]string{"get_preference_result": "incomplete"})
		return
	}
	sess := s.sessions.get(sid)
	if sess.user == nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no_user"})
		return
	}
	if sess.user.is("Fauro", "Wan") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"get_preference_result": "get_preference_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"get_preference_result": "success",
		"opted_out":             sess.user.OptedOut,
	})
}

func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	sid := sessionFrom(r.Context())
	var req map[string]string
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	pref, ok := req["preference"]
	if !ok || len(req) != 1 {
		writeJSON(w, http.StatusForbidden, empty)
		return
	}
	if s.sessions.get(sid).user == nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no_user"})
		return
	}
	s.sessions.update(sid, func(sess *session) {
		u := *sess.user
		switch pref {
		case "optedIn":
			u.OptedOut = "inactive"
		case "optedOut":
			u.OptedOut = "active"
		}
		sess.user = &u
		sess.preference = pref
	})
	writeJSON(w, http.StatusOK, empty)
}

func (s *Server) handleConfirmationDelivery(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(sessionFrom(r.Context()))
	body := map[string]string{"preference": sess.preference}
	if sess.user != nil {
		switch sess.channel {
		case "email":
			body["email"] = sess.user.Email
		case "sms":
			body["sms"] = sess.user.SMS
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleConfirmationSender(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, empty)
}

func (s *Server) handleStoreResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionFrom(ctx)
	if !s.polls.Ready(resourceStore, sid) {
		writeJSON(w, http.StatusPartialContent, map[string]string{"search_result": "incomplete"})
		return
	}
	sess := s.sessions.get(sid)
	if sess.user != nil && sess.user.is("Wan", "Fauro") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"store_result": "store_preference_error"})
		return
	}
	s.logger.InfoContext(ctx, "preference stored",
		"session_ref", requestcontext.SessionRef(sid),
		"preference", sess.preference,
	)
	writeJSON(w, http.StatusOK, map[string]string{"store_result": "success", "preference": sess.preference})
}

func (s *Server) handlePutStateModel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	s.forget(ctx, sessionFrom(ctx))
	writeJSON(w, http.StatusOK, empty)
}

// forget drops everything the mock holds for a session.
func (s *Server) forget(ctx context.Context, sid string) {
	s.sessions.delete(sid)
	for _, res := range []string{resourceSearch, resourcePreference, resourceStore} {
		s.polls.Forget(res, sid)
	}
	if err := s.evaluator.Forget(ctx, sid); err != nil {
		s.logger.WarnContext(ctx, "clear counters failed",
			"session_ref", requestcontext.SessionRef(sid),
			"error", err,
		)
	}
}
