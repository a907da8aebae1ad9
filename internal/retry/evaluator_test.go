package retry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentflow/internal/counter"
	countermocks "consentflow/internal/counter/mocks"
	"consentflow/internal/platform/metrics"
)

type EvaluatorSuite struct {
	suite.Suite
	ctx       context.Context
	metrics   *metrics.Metrics
	evaluator *Evaluator
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.metrics = metrics.New(prometheus.NewRegistry())
	e, err := NewEvaluator(counter.NewInMemoryStore(), DefaultPolicy(), WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.evaluator = e
}

func (s *EvaluatorSuite) evaluateN(sessionID, name string, n int) []Verdict {
	out := make([]Verdict, 0, n)
	for range n {
		v, err := s.evaluator.Evaluate(s.ctx, sessionID, name)
		s.Require().NoError(err)
		out = append(out, v)
	}
	return out
}

func (s *EvaluatorSuite) TestResendCycle() {
	got := s.evaluateN("sess-resend", CounterResendCode, 6)
	s.Equal([]Verdict{NotReached, NotReached, NotReached, Reached, Exceeded, NotReached}, got)
}

func (s *EvaluatorSuite) TestVerifyCycle() {
	got := s.evaluateN("sess-verify", CounterVerifyCode, 5)
	s.Equal([]Verdict{NotReached, NotReached, Reached, Exceeded, NotReached}, got)
}

func (s *EvaluatorSuite) TestVerdictSequenceForAnyMaximum() {
	for _, max := range []int{1, 2, 3, 7} {
		policy, err := NewPolicy(map[string]int{"feature": max})
		s.Require().NoError(err)
		e, err := NewEvaluator(counter.NewInMemoryStore(), policy)
		s.Require().NoError(err)

		for cycle := range 2 {
			for i := 1; i <= max+1; i++ {
				v, err := e.Evaluate(s.ctx, "sess", "feature")
				s.Require().NoError(err)
				switch {
				case i < max:
					s.Equal(NotReached, v, "max=%d cycle=%d call=%d", max, cycle, i)
				case i == max:
					s.Equal(Reached, v, "max=%d cycle=%d call=%d", max, cycle, i)
				default:
					s.Equal(Exceeded, v, "max=%d cycle=%d call=%d", max, cycle, i)
				}
			}
		}
	}
}

func (s *EvaluatorSuite) TestCountersDoNotInterfere() {
	s.evaluateN("sess-a", CounterResendCode, 3)

	v, err := s.evaluator.Evaluate(s.ctx, "sess-a", CounterVerifyCode)
	s.Require().NoError(err)
	s.Equal(NotReached, v)

	v, err = s.evaluator.Evaluate(s.ctx, "sess-b", CounterResendCode)
	s.Require().NoError(err)
	s.Equal(NotReached, v)

	v, err = s.evaluator.Evaluate(s.ctx, "sess-a", CounterResendCode)
	s.Require().NoError(err)
	s.Equal(Reached, v)
}

func (s *EvaluatorSuite) TestUnknownCounter() {
	_, err := s.evaluator.Evaluate(s.ctx, "sess", "not_configured")
	s.ErrorIs(err, ErrUnknownCounter)
}

func (s *EvaluatorSuite) TestStoreFailurePropagates() {
	ctrl := gomock.NewController(s.T())
	store := countermocks.NewMockStore(ctrl)
	storeErr := errors.New("connection refused")
	store.EXPECT().
		IncrementBounded(gomock.Any(), "sess", CounterVerifyCode, DefaultVerifyMax).
		Return(0, storeErr)

	e, err := NewEvaluator(store, DefaultPolicy())
	s.Require().NoError(err)

	_, err = e.Evaluate(s.ctx, "sess", CounterVerifyCode)
	s.ErrorIs(err, storeErr)
}

func (s *EvaluatorSuite) TestMetricsRecorded() {
	s.evaluateN("sess-m", CounterVerifyCode, 4)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.RetryVerdicts.WithLabelValues(CounterVerifyCode, "not_reached")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RetryVerdicts.WithLabelValues(CounterVerifyCode, "reached")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RetryVerdicts.WithLabelValues(CounterVerifyCode, "exceeded")))
}

// TestConcurrentEvaluate verifies the wrap happens exactly once per cycle under contention.
func (s *EvaluatorSuite) TestConcurrentEvaluate() {
	const calls = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		verdicts = map[Verdict]int{}
	)
	for range calls {
		wg.Go(func() {
			v, err := s.evaluator.Evaluate(s.ctx, "sess-c", CounterResendCode)
			s.NoError(err)
			mu.Lock()
			verdicts[v]++
			mu.Unlock()
		})
	}
	wg.Wait()

	cycles := calls / (DefaultResendMax + 1)
	s.Equal(cycles, verdicts[Exceeded])
	s.Equal(cycles, verdicts[Reached])
	s.Equal(cycles*(DefaultResendMax-1), verdicts[NotReached])
}

func (s *EvaluatorSuite) TestNewEvaluatorRequiresStore() {
	_, err := NewEvaluator(nil, DefaultPolicy())
	s.Error(err)
}
