package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"consentflow/internal/platform/metrics"
	"consentflow/pkg/requestcontext"
)

// Downstream operation names, also used as endpoint paths.
const (
	OpCreateSession         = "createsession"
	OpCheckSession          = "checksession"
	OpLookupRecord          = "details"
	OpPollLookupResult      = "patientsearchresult"
	OpRequestCode           = "requestcode"
	OpResendCode            = "resendcode"
	OpVerifyCode            = "verifycode"
	OpGetPreference         = "getpreferenceresult"
	OpSetPreference         = "setpreferences"
	OpConfirmationDelivery  = "confirmationdeliverymethod"
	OpConfirmationSender    = "confirmationsender"
	OpStorePreferenceResult = "storepreferencesresult"
	OpPutStateModel         = "put-state-model"
)

const (
	// SessionCookie is the cookie the downstream service keys its state on.
	SessionCookie = "session_id"

	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 20
)

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every downstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// NewClient creates a gateway client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse gateway base URL: %w", err)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     slog.Default(),
		tracer:     otel.Tracer("consentflow/gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type lookupRequest struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	DateOfBirthDay   string `json:"dateOfBirthDay"`
	DateOfBirthMonth string `json:"dateOfBirthMonth"`
	DateOfBirthYear  string `json:"dateOfBirthYear"`
	NHSNumber        string `json:"nhsNumber"`
	Postcode         string `json:"postcode"`
}

// CreateSession opens a downstream session. The service names it through the
// session cookie it sets on the response.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, OpCreateSession, http.MethodGet, "", nil)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", c.unexpected(OpCreateSession, resp.status)
	}
	for _, ck := range resp.cookies {
		if ck.Name == SessionCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", c.fail(OpCreateSession, KindBadPayload, resp.status, errors.New("no session cookie"))
}

type sessionStatus struct {
	Valid bool `json:"valid"`
}

// CheckSession reports whether the downstream service still knows the session.
func (c *Client) CheckSession(ctx context.Context, sessionID string) (bool, error) {
	resp, err := c.call(ctx, OpCheckSession, http.MethodGet, sessionID, nil)
	if err != nil {
		return false, err
	}
	if resp.status != http.StatusOK {
		return false, c.unexpected(OpCheckSession, resp.status)
	}
	var body sessionStatus
	if err := resp.decode(&body); err != nil {
		return false, c.fail(OpCheckSession, KindBadPayload, resp.status, err)
	}
	return body.Valid, nil
}

// LookupRecord submits the identity for a record lookup.
// 200 → success, 406 → invalid_age, timeout → request_timeout, anything else → unknown.
func (c *Client) LookupRecord(ctx context.Context, sessionID string, id Identity) (ResultCode, error) {
	body := lookupRequest{
		FirstName:        id.FirstName,
		LastName:         id.LastName,
		DateOfBirthDay:   strconv.Itoa(id.DOBDay),
		DateOfBirthMonth: strconv.Itoa(id.DOBMonth),
		DateOfBirthYear:  strconv.Itoa(id.DOBYear),
		NHSNumber:        id.NHSNumber,
		Postcode:         id.Postcode,
	}
	resp, err := c.call(ctx, OpLookupRecord, http.MethodPost, sessionID, body)
	if err != nil {
		if KindOf(err) == KindTimeout {
			return CodeRequestTimeout, nil
		}
		c.logFailure(ctx, err)
		return CodeUnknown, nil
	}
	switch resp.status {
	case http.StatusOK:
		return CodeSuccess, nil
	case http.StatusNotAcceptable:
		return CodeInvalidAge, nil
	default:
		c.logFailure(ctx, c.unexpected(OpLookupRecord, resp.status))
		return CodeUnknown, nil
	}
}

type lookupResultResponse struct {
	SearchResult string `json:"search_result"`
	SMS          string `json:"sms"`
	Email        string `json:"email"`
}

// PollLookupResult asks whether the lookup has finished.
func (c *Client) PollLookupResult(ctx context.Context, sessionID string) (LookupResult, error) {
	resp, err := c.call(ctx, OpPollLookupResult, http.MethodGet, sessionID, nil)
	if err != nil {
		if KindOf(err) == KindTimeout {
			return LookupResult{Code: CodeRequestTimeout}, nil
		}
		return LookupResult{}, err
	}
	switch resp.status {
	case http.StatusOK:
		var body lookupResultResponse
		if err := resp.decode(&body); err != nil {
			return LookupResult{}, c.fail(OpPollLookupResult, KindBadPayload, resp.status, err)
		}
		if ResultCode(body.SearchResult) != CodeSuccess {
			return LookupResult{Code: CodeUnknown}, nil
		}
		return LookupResult{Code: CodeSuccess, SMS: body.SMS, Email: body.Email}, nil
	case http.StatusPartialContent:
		return LookupResult{Code: CodeIncomplete}, nil
	case http.StatusUnauthorized:
		return LookupResult{Code: CodeInvalidUser}, nil
	case http.StatusUnprocessableEntity:
		return LookupResult{Code: CodeInsufficientData}, nil
	case http.StatusNotAcceptable:
		return LookupResult{Code: CodeAgeRestriction}, nil
	default:
		return LookupResult{}, c.unexpected(OpPollLookupResult, resp.status)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// RequestVerificationCode asks for a code to be sent over channel.
func (c *Client) RequestVerificationCode(ctx context.Context, sessionID, channel string) (ResultCode, error) {
	resp, err := c.call(ctx, OpRequestCode, http.MethodPost, sessionID, map[string]string{"otp_delivery_type": channel})
	if err != nil {
		return "", err
	}
	switch resp.status {
	case http.StatusOK:
		return CodeSuccess, nil
	case http.StatusNotAcceptable:
		var body errorResponse
		if err := resp.decode(&body); err == nil && ResultCode(body.Error) == CodeMaxCountExceeded {
			return CodeMaxCountExceeded, nil
		}
		return CodeFailure, nil
	default:
		return "", c.unexpected(OpRequestCode, resp.status)
	}
}

type resendResponse struct {
	ResendCount string `json:"resend_count"`
}

// ResendVerificationCode asks for the code to be sent again.
func (c *Client) ResendVerificationCode(ctx context.Context, sessionID string) (ResultCode, error) {
	resp, err := c.call(ctx, OpResendCode, http.MethodGet, sessionID, nil)
	if err != nil {
		return "", err
	}
	switch resp.status {
	case http.StatusOK:
		var body resendResponse
		if err := resp.decode(&body); err != nil {
			return "", c.fail(OpResendCode, KindBadPayload, resp.status, err)
		}
		switch ResultCode(body.ResendCount) {
		case CodeSuccess, CodeMaxCountReached:
			return ResultCode(body.ResendCount), nil
		default:
			return CodeUnknown, nil
		}
	case http.StatusNotAcceptable:
		return CodeMaxCountExceeded, nil
	default:
		return "", c.unexpected(OpResendCode, resp.status)
	}
}

// VerifyCode checks a code. Failures of any kind are reported as unknown.
func (c *Client) VerifyCode(ctx context.Context, sessionID, code string) (ResultCode, error) {
	resp, err := c.call(ctx, OpVerifyCode, http.MethodPost, sessionID, map[string]string{"enterOtpInput": code})
	if err != nil {
		c.logFailure(ctx, err)
		return CodeUnknown, nil
	}
	switch resp.status {
	case http.StatusOK:
		return CodeCorrect, nil
	case http.StatusPartialContent, http.StatusForbidden:
		return CodeIncorrect, nil
	case http.StatusNotAcceptable:
		return CodeIncorrectMax, nil
	case http.StatusUnauthorized:
		return CodeCorrectExpired, nil
	default:
		c.logFailure(ctx, c.unexpected(OpVerifyCode, resp.status))
		return CodeUnknown, nil
	}
}

type preferenceResponse struct {
	Result   string `json:"get_preference_result"`
	OptedOut string `json:"opted_out"`
}

// GetCurrentPreference reads the stored preference: active, inactive, empty,
// incomplete or failure.
func (c *Client) GetCurrentPreference(ctx context.Context, sessionID string) (ResultCode, error) {
	resp, err := c.call(ctx, OpGetPreference, http.MethodGet, sessionID, nil)
	if err != nil {
		c.logFailure(ctx, err)
		return CodeFailure, nil
	}
	switch resp.status {
	case http.StatusOK:
		var body preferenceResponse
		if err := resp.decode(&body); err != nil {
			c.logFailure(ctx, c.fail(OpGetPreference, KindBadPayload, resp.status, err))
			return CodeFailure, nil
		}
		if ResultCode(body.Result) != CodeSuccess {
			return CodeEmpty, nil
		}
		switch ResultCode(body.OptedOut) {
		case CodeActive, CodeInactive:
			return ResultCode(body.OptedOut), nil
		default:
			return CodeEmpty, nil
		}
	case http.StatusPartialContent:
		return CodeIncomplete, nil
	default:
		c.logFailure(ctx, c.unexpected(OpGetPreference, resp.status))
		return CodeFailure, nil
	}
}

// SetPreference submits the citizen's choice. Only 200 counts as accepted.
func (c *Client) SetPreference(ctx context.Context, sessionID, preference string) (bool, error) {
	resp, err := c.call(ctx, OpSetPreference, http.MethodPost, sessionID, map[string]string{"preference": preference})
	if err != nil {
		c.logFailure(ctx, err)
		return false, nil
	}
	return resp.status == http.StatusOK, nil
}

type deliveryResponse struct {
	Preference string `json:"preference"`
	SMS        string `json:"sms"`
	Email      string `json:"email"`
}

// ConfirmationDelivery reports where the confirmation will be sent, or nil
// when the service cannot say.
func (c *Client) ConfirmationDelivery(ctx context.Context, sessionID string) (*Delivery, error) {
	resp, err := c.call(ctx, OpConfirmationDelivery, http.MethodGet, sessionID, nil)
	if err != nil {
		c.logFailure(ctx, err)
		return nil, nil
	}
	if resp.status != http.StatusOK {
		c.logFailure(ctx, c.unexpected(OpConfirmationDelivery, resp.status))
		return nil, nil
	}
	var body deliveryResponse
	if err := resp.decode(&body); err != nil {
		c.logFailure(ctx, c.fail(OpConfirmationDelivery, KindBadPayload, resp.status, err))
		return nil, nil
	}
	d := &Delivery{Preference: body.Preference}
	switch {
	case body.SMS != "":
		d.Method, d.Destination = "sms", body.SMS
	case body.Email != "":
		d.Method, d.Destination = "email", body.Email
	}
	return d, nil
}

// ConfirmPreference triggers the confirmation message.
func (c *Client) ConfirmPreference(ctx context.Context, sessionID string) (bool, error) {
	resp, err := c.call(ctx, OpConfirmationSender, http.MethodGet, sessionID, nil)
	if err != nil {
		c.logFailure(ctx, err)
		return false, nil
	}
	return resp.status == http.StatusOK, nil
}

// PollStoreResult asks whether the preference has been stored.
func (c *Client) PollStoreResult(ctx context.Context, sessionID string) (ResultCode, error) {
	resp, err := c.call(ctx, OpStorePreferenceResult, http.MethodGet, sessionID, nil)
	if err != nil {
		c.logFailure(ctx, err)
		return CodeFailure, nil
	}
	switch resp.status {
	case http.StatusOK:
		return CodeSuccess, nil
	case http.StatusPartialContent:
		return CodeIncomplete, nil
	default:
		return CodeFailure, nil
	}
}

type stateModel struct {
	SessionID  string            `json:"session_id"`
	StateModel map[string]string `json:"state_model"`
}

// CleanState resets the downstream state model for the session.
func (c *Client) CleanState(ctx context.Context, sessionID string) error {
	body := stateModel{
		SessionID:  sessionID,
		StateModel: map[string]string{"session_id": sessionID},
	}
	resp, err := c.call(ctx, OpPutStateModel, http.MethodPost, sessionID, body)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return c.unexpected(OpPutStateModel, resp.status)
	}
	return nil
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (r *response) decode(v any) error {
	if len(r.body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(r.body, v)
}

// call performs one bounded request. Any status is returned as a response;
// only failures to obtain one are errors.
func (c *Client) call(ctx context.Context, op, method, sessionID string, payload any) (*response, error) {
	start := time.Now()
	defer c.metrics.ObserveGatewayRequest(op, start)

	ctx, span := c.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, c.fail(op, KindBadPayload, 0, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(op).String(), body)
	if err != nil {
		return nil, c.fail(op, KindTransport, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindTransport
		if isTimeout(err) {
			kind = KindTimeout
		}
		span.SetStatus(codes.Error, string(kind))
		return nil, c.fail(op, kind, 0, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		kind := KindTransport
		if isTimeout(err) {
			kind = KindTimeout
		}
		span.SetStatus(codes.Error, string(kind))
		return nil, c.fail(op, kind, res.StatusCode, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	c.logger.DebugContext(ctx, "gateway call completed",
		"op", op,
		"status", res.StatusCode,
		"session_ref", requestcontext.SessionRef(sessionID),
	)
	return &response{status: res.StatusCode, body: data, cookies: res.Cookies()}, nil
}

func (c *Client) fail(op string, kind ErrorKind, status int, underlying error) *Error {
	c.metrics.IncrementGatewayFailure(op, string(kind))
	return NewError(op, kind, status, underlying)
}

func (c *Client) unexpected(op string, status int) *Error {
	return c.fail(op, KindUnexpectedStatus, status, nil)
}

func (c *Client) logFailure(ctx context.Context, err error) {
	var ge *Error
	if !errors.As(err, &ge) {
		c.logger.WarnContext(ctx, "gateway call failed")
		return
	}
	c.logger.WarnContext(ctx, "gateway call failed",
		"op", ge.Op,
		"kind", string(ge.Kind),
		"status", ge.StatusCode,
	)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
