package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"consentflow/internal/platform/middleware"
	"consentflow/internal/transport/http/mocks"
	"consentflow/internal/workflow"
	"consentflow/pkg/testutil"
)

func TestRouterScaffold(t *testing.T) {
	testutil.Given(t, "the HTTP router without metrics or health checks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		journey := mocks.NewMockJourney(ctrl)
		journey.EXPECT().Advance(gomock.Any(), gomock.Any(), workflow.Event{Kind: workflow.EventView}).
			Return(&workflow.Decision{Stage: workflow.StageEnterName}, nil).AnyTimes()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		session := middleware.SessionConfig{CookieName: cookieName, TTL: time.Hour}
		router := NewRouter(RouterConfig{
			Journey: NewJourneyHandler(journey, logger, session),
			Logger:  logger,
			Session: session,
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/authorize", nil))

			testutil.Then(t, "it should respond with not found", func(t *testing.T) {
				if rec.Code != http.StatusNotFound {
					t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
				}
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "the route is not mounted", func(t *testing.T) {
				if rec.Code != http.StatusNotFound {
					t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
				}
			})
		})

		testutil.When(t, "viewing the journey without a session cookie", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journey", nil))

			testutil.Then(t, "a session cookie is issued and the view is served", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
				var issued bool
				for _, c := range rec.Result().Cookies() {
					issued = issued || (c.Name == cookieName && c.Value != "")
				}
				if !issued {
					t.Fatalf("expected a %s cookie", cookieName)
				}
			})
		})

		testutil.When(t, "posting to the view route", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/journey", nil))

			testutil.Then(t, "it should respond with method not allowed", func(t *testing.T) {
				if rec.Code != http.StatusMethodNotAllowed {
					t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
				}
			})
		})
	})
}
