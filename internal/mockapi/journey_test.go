package mockapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"consentflow/internal/audit"
	"consentflow/internal/counter"
	"consentflow/internal/gateway"
	"consentflow/internal/mockapi"
	"consentflow/internal/progress"
	"consentflow/internal/retry"
	"consentflow/internal/workflow"
)

// JourneySuite drives the workflow through the real gateway client against
// the mock API.
type JourneySuite struct {
	suite.Suite
	ctx    context.Context
	server *httptest.Server
	audit  *audit.InMemoryStore
	orch   *workflow.Orchestrator
	sid    string
	// elapsed moves the mock's clock forward.
	elapsed atomic.Int64
}

func TestJourneySuite(t *testing.T) {
	suite.Run(t, new(JourneySuite))
}

func (s *JourneySuite) SetupTest() {
	s.ctx = context.Background()
	s.elapsed.Store(0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users, err := mockapi.DefaultUsers()
	s.Require().NoError(err)
	mock, err := mockapi.New(users, retry.DefaultPolicy(),
		mockapi.WithLogger(logger),
		mockapi.WithPollCountdown(1),
		mockapi.WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(s.elapsed.Load()))
		}),
	)
	s.Require().NoError(err)
	s.server = httptest.NewServer(mock.Handler())

	client, err := gateway.NewClient(s.server.URL, gateway.WithTimeout(time.Second), gateway.WithLogger(logger))
	s.Require().NoError(err)
	evaluator, err := retry.NewEvaluator(counter.NewInMemoryStore(), retry.DefaultPolicy())
	s.Require().NoError(err)

	s.audit = audit.NewInMemoryStore()
	s.orch, err = workflow.New(progress.NewInMemoryStore(), evaluator, client,
		workflow.WithAuditPublisher(audit.NewPublisher(s.audit)),
		workflow.WithLogger(logger),
		workflow.WithRequestTimeout(30*time.Second),
	)
	s.Require().NoError(err)

	sid, d, err := s.orch.Start(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Equal(workflow.StageEnterName, d.Stage)
	s.sid = sid
}

func (s *JourneySuite) TearDownTest() {
	s.server.Close()
}

func (s *JourneySuite) advance(kind workflow.EventKind, kv ...string) *workflow.Decision {
	s.T().Helper()
	values := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		values[kv[i]] = kv[i+1]
	}
	d, err := s.orch.Advance(s.ctx, s.sid, workflow.Event{Kind: kind, Values: values})
	s.Require().NoError(err)
	return d
}

// pollUntilSettled polls while the decision says the journey is waiting.
func (s *JourneySuite) pollUntilSettled() *workflow.Decision {
	s.T().Helper()
	for range 5 {
		d := s.advance(workflow.EventPoll)
		if !d.Flags.Waiting {
			return d
		}
	}
	s.FailNow("journey never stopped waiting")
	return nil
}

func (s *JourneySuite) identify(first, last, day, month, year string) {
	s.T().Helper()
	s.advance(workflow.EventSetName, workflow.ValueFirstName, first, workflow.ValueLastName, last)
	s.advance(workflow.EventSetDOB, workflow.ValueDay, day, workflow.ValueMonth, month, workflow.ValueYear, year)
}

func (s *JourneySuite) TestOptOutByNHSNumber() {
	s.identify("Joe", "Bloggs", "15", "5", "1980")
	s.advance(workflow.EventChooseAuthOption, workflow.ValueAuthOption, "nhs_number")
	s.Equal(workflow.StageIdentityCaptured, s.advance(workflow.EventSetNHSNumber, workflow.ValueNHSNumber, "943 476 5919").Stage)

	s.Equal(workflow.StageWaitingForLookup, s.advance(workflow.EventSubmitLookup).Stage)
	s.Equal(workflow.StageChooseVerificationChan, s.pollUntilSettled().Stage)

	s.Equal(workflow.StageEnterCode, s.advance(workflow.EventChooseChannel, workflow.ValueChannel, "email").Stage)
	d := s.advance(workflow.EventSubmitCode, workflow.ValueCode, "666666")
	s.Equal(workflow.StageEnterCode, d.Stage)
	s.True(d.Flags.CodeIncorrect)

	s.advance(workflow.EventSubmitCode, workflow.ValueCode, "123 456")
	d = s.pollUntilSettled()
	s.Equal(workflow.StageChoosePreference, d.Stage)
	s.Equal("inactive", d.CurrentPreference)

	s.Equal(workflow.StageSubmitPreference, s.advance(workflow.EventChoosePreference, workflow.ValuePreference, "optedOut").Stage)
	d = s.advance(workflow.EventSubmitPreference)
	s.Equal(workflow.StageReviewChoice, d.Stage)
	d = s.advance(workflow.EventView)
	s.Equal(&gateway.Delivery{Method: "email", Destination: "joe.bloggs@example.com", Preference: "optedOut"}, d.Delivery)

	s.Equal(workflow.StageWaitingForStoreResult, s.advance(workflow.EventConfirm).Stage)
	s.Equal(workflow.StageThankYou, s.pollUntilSettled().Stage)
	s.Require().Len(s.audit.Events(), 1)
	s.Equal(audit.ActionPreferenceStored, s.audit.Events()[0].Action)

	s.Equal(workflow.StageThankYou, s.advance(workflow.EventView).Stage)
	s.Equal(workflow.StageEnterName, s.advance(workflow.EventView).Stage)
}

func (s *JourneySuite) TestUnknownCitizenByPostcode() {
	s.identify("Nobody", "Known", "1", "1", "1980")
	s.advance(workflow.EventChooseAuthOption, workflow.ValueAuthOption, "postcode")
	s.Equal(workflow.StageIdentityCaptured, s.advance(workflow.EventSetPostcode, workflow.ValuePostcode, "ls14ap").Stage)

	s.advance(workflow.EventSubmitLookup)
	s.Equal(workflow.StageLookupFailed, s.pollUntilSettled().Stage)
}

func (s *JourneySuite) TestAgeRestricted() {
	s.identify("Young", "Person", "1", "1", "2020")
	s.advance(workflow.EventChooseAuthOption, workflow.ValueAuthOption, "postcode")
	s.advance(workflow.EventSetPostcode, workflow.ValuePostcode, "BS1 4DJ")

	s.advance(workflow.EventSubmitLookup)
	s.Equal(workflow.StageAgeRestricted, s.pollUntilSettled().Stage)
}

func (s *JourneySuite) TestChoiceNotSaved() {
	s.identify("Wan", "Fauro", "10", "10", "1970")
	s.advance(workflow.EventChooseAuthOption, workflow.ValueAuthOption, "postcode")
	s.advance(workflow.EventSetPostcode, workflow.ValuePostcode, "EH1 1YZ")
	s.advance(workflow.EventSubmitLookup)
	s.Equal(workflow.StageChooseVerificationChan, s.pollUntilSettled().Stage)

	s.advance(workflow.EventChooseChannel, workflow.ValueChannel, "sms")
	s.advance(workflow.EventSubmitCode, workflow.ValueCode, "123456")
	s.Equal(workflow.StageChoosePreference, s.pollUntilSettled().Stage)

	s.advance(workflow.EventChoosePreference, workflow.ValuePreference, "optedIn")
	s.advance(workflow.EventSubmitPreference)
	s.advance(workflow.EventConfirm)
	s.Equal(workflow.StageChoiceNotSaved, s.pollUntilSettled().Stage)
}

func (s *JourneySuite) TestSessionExpiresMidJourney() {
	s.identify("Joe", "Bloggs", "15", "5", "1980")
	s.Equal(workflow.StageEnterNHSNumber, s.advance(workflow.EventChooseAuthOption, workflow.ValueAuthOption, "nhs_number").Stage)

	s.elapsed.Store(int64(time.Hour))
	s.Equal(workflow.StageSessionExpired, s.advance(workflow.EventSetNHSNumber, workflow.ValueNHSNumber, "9434765919").Stage)
	s.Require().Len(s.audit.Events(), 1)
	s.Equal(audit.ActionSessionExpired, s.audit.Events()[0].Action)

	// The old session cannot be picked up again.
	s.Equal(workflow.StageSessionExpired, s.advance(workflow.EventSubmitLookup).Stage)

	previous := s.sid
	sid, d, err := s.orch.Start(s.ctx, previous)
	s.Require().NoError(err)
	s.NotEqual(previous, sid)
	s.Equal(workflow.StageEnterName, d.Stage)
}
