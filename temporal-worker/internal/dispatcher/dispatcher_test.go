package dispatcher

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
)

type mockStarter struct {
	mock.Mock
}

func (m *mockStarter) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	called := m.Called(options, args[0])
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}
	return called.Get(0).(client.WorkflowRun), called.Error(1)
}

// scriptedStream replays batches of events, one batch per connection, then
// blocks until cancelled.
type scriptedStream struct {
	mu      sync.Mutex
	batches [][]models.Event
	dials   int
}

func (s *scriptedStream) StreamEvents(ctx context.Context, handle func(models.Event)) error {
	s.mu.Lock()
	s.dials++
	var batch []models.Event
	if len(s.batches) > 0 {
		batch, s.batches = s.batches[0], s.batches[1:]
	}
	remaining := len(s.batches)
	s.mu.Unlock()

	for _, ev := range batch {
		handle(ev)
	}
	if remaining > 0 {
		return errors.New("connection reset")
	}
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func oracleRequest(seq uint64, index int) models.Event {
	return models.Event{
		Seq:             seq,
		Type:            models.EventOracleRequest,
		Index:           index,
		Airline:         "airline-A",
		FlightID:        "ND1309",
		FlightTimestamp: 1700000000000,
	}
}

func TestDispatch_StartsWorkflowForOracleRequests(t *testing.T) {
	starter := new(mockStarter)
	run := new(mocks.WorkflowRun)
	run.On("GetRunID").Return("run-1")

	ev := oracleRequest(5, 3)
	starter.On("ExecuteWorkflow",
		client.StartWorkflowOptions{ID: "flight-status-3/airline-A/ND1309/1700000000000-5", TaskQueue: "oracles"},
		models.FlightStatusInput{OracleRequestKey: ev.RequestKey()},
	).Return(run, nil).Once()

	d := New(&scriptedStream{}, starter, "oracles", quietLogger())
	d.Dispatch(context.Background(), ev)
	d.Dispatch(context.Background(), models.Event{Seq: 6, Type: models.EventFlightStatusInfo, FlightID: "ND1309"})

	starter.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestDispatch_AlreadyStartedIsIgnored(t *testing.T) {
	starter := new(mockStarter)
	starter.On("ExecuteWorkflow", mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-0"))

	d := New(&scriptedStream{}, starter, "oracles", quietLogger())
	assert.NotPanics(t, func() { d.Dispatch(context.Background(), oracleRequest(1, 0)) })
	starter.AssertNumberOfCalls(t, "ExecuteWorkflow", 1)
}

func TestRun_ReconnectsAfterStreamFailure(t *testing.T) {
	starter := new(mockStarter)
	run := new(mocks.WorkflowRun)
	run.On("GetRunID").Return("run")
	starter.On("ExecuteWorkflow", mock.Anything, mock.Anything).Return(run, nil)

	stream := &scriptedStream{batches: [][]models.Event{
		{oracleRequest(1, 2)},
		{oracleRequest(2, 4)},
	}}
	d := New(stream, starter, "oracles", quietLogger())
	d.minBackoff = time.Millisecond
	d.maxBackoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.dials == 2
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	starter.AssertNumberOfCalls(t, "ExecuteWorkflow", 2)
}
