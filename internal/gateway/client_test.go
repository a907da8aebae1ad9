package gateway

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks Gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"consentflow/internal/platform/metrics"
)

type ClientSuite struct {
	suite.Suite
	ctx     context.Context
	mux     *http.ServeMux
	server  *httptest.Server
	metrics *metrics.Metrics
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	if s.server != nil {
		s.server.Close()
	}
	s.ctx = context.Background()
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.metrics = metrics.New(prometheus.NewRegistry())

	c, err := NewClient(s.server.URL, WithTimeout(200*time.Millisecond), WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.client = c
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
	s.server = nil
}

// respond registers a fixed status/body for an operation and checks the session cookie.
func (s *ClientSuite) respond(op string, status int, body string) {
	s.mux.HandleFunc("/"+op, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if s.NoError(err) {
			s.Equal("sess-1", cookie.Value)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (s *ClientSuite) hang(op string) {
	s.mux.HandleFunc("/"+op, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
}

func (s *ClientSuite) TestCreateSession() {
	s.Run("reads the session cookie without sending one", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpCreateSession, func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodGet, r.Method)
			_, err := r.Cookie(SessionCookie)
			s.ErrorIs(err, http.ErrNoCookie)
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "downstream-1"})
			_, _ = io.WriteString(w, "{}")
		})
		sid, err := s.client.CreateSession(s.ctx)
		s.Require().NoError(err)
		s.Equal("downstream-1", sid)
	})

	s.Run("missing cookie is a bad payload", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpCreateSession, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "{}")
		})
		_, err := s.client.CreateSession(s.ctx)
		s.Equal(KindBadPayload, KindOf(err))
	})

	s.Run("non 200 is an error", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpCreateSession, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := s.client.CreateSession(s.ctx)
		s.Equal(KindUnexpectedStatus, KindOf(err))
	})
}

func (s *ClientSuite) TestCheckSession() {
	s.Run("valid session", func() {
		s.SetupTest()
		s.respond(OpCheckSession, http.StatusOK, `{"valid": true}`)
		ok, err := s.client.CheckSession(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("expired session", func() {
		s.SetupTest()
		s.respond(OpCheckSession, http.StatusOK, `{"valid": false}`)
		ok, err := s.client.CheckSession(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("garbled body is a bad payload", func() {
		s.SetupTest()
		s.respond(OpCheckSession, http.StatusOK, "")
		_, err := s.client.CheckSession(s.ctx, "sess-1")
		s.Equal(KindBadPayload, KindOf(err))
	})

	s.Run("non 200 is an error", func() {
		s.SetupTest()
		s.respond(OpCheckSession, http.StatusInternalServerError, "")
		_, err := s.client.CheckSession(s.ctx, "sess-1")
		s.Equal(KindUnexpectedStatus, KindOf(err))
	})
}

func (s *ClientSuite) TestLookupRecord() {
	id := Identity{FirstName: "Ada", LastName: "Lovelace", DOBDay: 10, DOBMonth: 12, DOBYear: 1985, Postcode: "LS1 4AP"}

	s.Run("sends identity and maps 200 to success", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpLookupRecord, func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodPost, r.Method)
			s.Equal("application/json", r.Header.Get("Content-Type"))
			var body lookupRequest
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("Ada", body.FirstName)
			s.Equal("1985", body.DateOfBirthYear)
			s.Equal("LS1 4AP", body.Postcode)
			w.WriteHeader(http.StatusOK)
		})
		code, err := s.client.LookupRecord(s.ctx, "sess-1", id)
		s.Require().NoError(err)
		s.Equal(CodeSuccess, code)
	})

	s.Run("406 is invalid age", func() {
		s.SetupTest()
		s.respond(OpLookupRecord, http.StatusNotAcceptable, "")
		code, err := s.client.LookupRecord(s.ctx, "sess-1", id)
		s.Require().NoError(err)
		s.Equal(CodeInvalidAge, code)
	})

	s.Run("timeout is request_timeout", func() {
		s.SetupTest()
		s.hang(OpLookupRecord)
		code, err := s.client.LookupRecord(s.ctx, "sess-1", id)
		s.Require().NoError(err)
		s.Equal(CodeRequestTimeout, code)
	})

	s.Run("other status is unknown", func() {
		s.SetupTest()
		s.respond(OpLookupRecord, http.StatusInternalServerError, "")
		code, err := s.client.LookupRecord(s.ctx, "sess-1", id)
		s.Require().NoError(err)
		s.Equal(CodeUnknown, code)
	})
}

func (s *ClientSuite) TestPollLookupResult() {
	cases := []struct {
		name   string
		status int
		body   string
		want   LookupResult
	}{
		{"success with contacts", 200, `{"search_result":"success","sms":"*******1524","email":"emai****@nhs.net"}`,
			LookupResult{Code: CodeSuccess, SMS: "*******1524", Email: "emai****@nhs.net"}},
		{"incomplete", 206, `{"search_result":"incomplete"}`, LookupResult{Code: CodeIncomplete}},
		{"invalid user", 401, "", LookupResult{Code: CodeInvalidUser}},
		{"insufficient data", 422, `{"search_result":"ndop_info"}`, LookupResult{Code: CodeInsufficientData}},
		{"age restriction", 406, "", LookupResult{Code: CodeAgeRestriction}},
		{"unrecognised search result", 200, `{"search_result":"odd"}`, LookupResult{Code: CodeUnknown}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.respond(OpPollLookupResult, tc.status, tc.body)
			got, err := s.client.PollLookupResult(s.ctx, "sess-1")
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}

	s.Run("timeout is request_timeout", func() {
		s.SetupTest()
		s.hang(OpPollLookupResult)
		got, err := s.client.PollLookupResult(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.Equal(CodeRequestTimeout, got.Code)
	})

	s.Run("unexpected status is a classified error", func() {
		s.SetupTest()
		s.respond(OpPollLookupResult, http.StatusInternalServerError, `{"secret":"do not leak"}`)
		_, err := s.client.PollLookupResult(s.ctx, "sess-1")
		s.Require().Error(err)
		s.Equal(KindUnexpectedStatus, KindOf(err))
		s.True(IsRetryable(err))
		s.NotContains(err.Error(), "do not leak")
		s.Equal(1.0, testutil.ToFloat64(s.metrics.GatewayFailures.WithLabelValues(OpPollLookupResult, string(KindUnexpectedStatus))))
	})

	s.Run("malformed body is bad payload", func() {
		s.SetupTest()
		s.respond(OpPollLookupResult, http.StatusOK, `{not json`)
		_, err := s.client.PollLookupResult(s.ctx, "sess-1")
		s.Equal(KindBadPayload, KindOf(err))
		s.False(IsRetryable(err))
	})
}

func (s *ClientSuite) TestRequestVerificationCode() {
	s.Run("success", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpRequestCode, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("sms", body["otp_delivery_type"])
		})
		code, err := s.client.RequestVerificationCode(s.ctx, "sess-1", "sms")
		s.Require().NoError(err)
		s.Equal(CodeSuccess, code)
	})

	s.Run("406 max count exceeded", func() {
		s.SetupTest()
		s.respond(OpRequestCode, http.StatusNotAcceptable, `{"error":"max_count_exceeded"}`)
		code, err := s.client.RequestVerificationCode(s.ctx, "sess-1", "email")
		s.Require().NoError(err)
		s.Equal(CodeMaxCountExceeded, code)
	})

	s.Run("406 other error is failure", func() {
		s.SetupTest()
		s.respond(OpRequestCode, http.StatusNotAcceptable, `{"error":"nope"}`)
		code, err := s.client.RequestVerificationCode(s.ctx, "sess-1", "email")
		s.Require().NoError(err)
		s.Equal(CodeFailure, code)
	})

	s.Run("500 raises", func() {
		s.SetupTest()
		s.respond(OpRequestCode, http.StatusInternalServerError, "")
		_, err := s.client.RequestVerificationCode(s.ctx, "sess-1", "email")
		s.Equal(KindUnexpectedStatus, KindOf(err))
	})

	s.Run("timeout raises", func() {
		s.SetupTest()
		s.hang(OpRequestCode)
		_, err := s.client.RequestVerificationCode(s.ctx, "sess-1", "email")
		s.Equal(KindTimeout, KindOf(err))
	})
}

func (s *ClientSuite) TestResendVerificationCode() {
	cases := []struct {
		name   string
		status int
		body   string
		want   ResultCode
	}{
		{"success", 200, `{"resend_count":"success"}`, CodeSuccess},
		{"max reached", 200, `{"resend_count":"max_count_reached"}`, CodeMaxCountReached},
		{"max exceeded", 406, `{"resend_count":"max_count_exceeded"}`, CodeMaxCountExceeded},
		{"unrecognised body", 200, `{"resend_count":""}`, CodeUnknown},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.respond(OpResendCode, tc.status, tc.body)
			got, err := s.client.ResendVerificationCode(s.ctx, "sess-1")
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}

	s.Run("unexpected status raises", func() {
		s.SetupTest()
		s.respond(OpResendCode, http.StatusBadGateway, "")
		_, err := s.client.ResendVerificationCode(s.ctx, "sess-1")
		s.Equal(KindUnexpectedStatus, KindOf(err))
	})
}

func (s *ClientSuite) TestVerifyCode() {
	cases := []struct {
		status int
		want   ResultCode
	}{
		{200, CodeCorrect},
		{206, CodeIncorrect},
		{403, CodeIncorrect},
		{406, CodeIncorrectMax},
		{401, CodeCorrectExpired},
		{500, CodeUnknown},
	}
	for _, tc := range cases {
		s.Run(http.StatusText(tc.status), func() {
			s.SetupTest()
			s.respond(OpVerifyCode, tc.status, "")
			got, err := s.client.VerifyCode(s.ctx, "sess-1", "123456")
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *ClientSuite) TestGetCurrentPreference() {
	cases := []struct {
		name   string
		status int
		body   string
		want   ResultCode
	}{
		{"active", 200, `{"get_preference_result":"success","opted_out":"active"}`, CodeActive},
		{"inactive", 200, `{"get_preference_result":"success","opted_out":"inactive"}`, CodeInactive},
		{"empty", 200, `{"get_preference_result":"success","opted_out":""}`, CodeEmpty},
		{"incomplete", 206, `{"get_preference_result":"incomplete"}`, CodeIncomplete},
		{"error status", 401, `{"get_preference_result":"get_preference_error"}`, CodeFailure},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.respond(OpGetPreference, tc.status, tc.body)
			got, err := s.client.GetCurrentPreference(s.ctx, "sess-1")
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *ClientSuite) TestPreferenceWrites() {
	s.Run("set preference accepted", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpSetPreference, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("optedOut", body["preference"])
		})
		ok, err := s.client.SetPreference(s.ctx, "sess-1", "optedOut")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("set preference forbidden", func() {
		s.SetupTest()
		s.respond(OpSetPreference, http.StatusForbidden, "{}")
		ok, err := s.client.SetPreference(s.ctx, "sess-1", "optedOut")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("confirm", func() {
		s.SetupTest()
		s.respond(OpConfirmationSender, http.StatusOK, "{}")
		ok, err := s.client.ConfirmPreference(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("store result", func() {
		for status, want := range map[int]ResultCode{200: CodeSuccess, 206: CodeIncomplete, 401: CodeFailure} {
			s.SetupTest()
			s.respond(OpStorePreferenceResult, status, "{}")
			got, err := s.client.PollStoreResult(s.ctx, "sess-1")
			s.Require().NoError(err)
			s.Equal(want, got, "status %d", status)
		}
	})
}

func (s *ClientSuite) TestConfirmationDelivery() {
	s.Run("sms preferred", func() {
		s.SetupTest()
		s.respond(OpConfirmationDelivery, http.StatusOK, `{"preference":"optedIn","sms":"*******1524"}`)
		d, err := s.client.ConfirmationDelivery(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.Require().NotNil(d)
		s.Equal("sms", d.Method)
		s.Equal("*******1524", d.Destination)
		s.Equal("optedIn", d.Preference)
	})

	s.Run("email", func() {
		s.SetupTest()
		s.respond(OpConfirmationDelivery, http.StatusOK, `{"preference":"optedOut","email":"a****@nhs.net"}`)
		d, err := s.client.ConfirmationDelivery(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.Require().NotNil(d)
		s.Equal("email", d.Method)
	})

	s.Run("failure yields nil", func() {
		s.SetupTest()
		s.respond(OpConfirmationDelivery, http.StatusInternalServerError, "")
		d, err := s.client.ConfirmationDelivery(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.Nil(d)
	})
}

func (s *ClientSuite) TestCleanState() {
	s.Run("posts state model", func() {
		s.SetupTest()
		s.mux.HandleFunc("/"+OpPutStateModel, func(w http.ResponseWriter, r *http.Request) {
			var body stateModel
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("sess-1", body.SessionID)
			s.Equal("sess-1", body.StateModel["session_id"])
		})
		s.NoError(s.client.CleanState(s.ctx, "sess-1"))
	})

	s.Run("non 200 is an error", func() {
		s.SetupTest()
		s.respond(OpPutStateModel, http.StatusForbidden, "")
		err := s.client.CleanState(s.ctx, "sess-1")
		s.Equal(KindUnexpectedStatus, KindOf(err))
		s.False(IsRetryable(err))
	})
}

func (s *ClientSuite) TestNewClientRequiresBaseURL() {
	_, err := NewClient("")
	s.Error(err)
}
