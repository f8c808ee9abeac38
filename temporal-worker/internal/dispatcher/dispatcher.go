// Package dispatcher turns OracleRequest events from the API server into
// FlightStatusWorkflow executions.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/workflows"
	"github.com/sirupsen/logrus"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// EventStream delivers server events until ctx ends or the stream breaks.
type EventStream interface {
	StreamEvents(ctx context.Context, handle func(models.Event)) error
}

// WorkflowStarter is the part of the Temporal client used to start
// workflows.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Dispatcher starts one FlightStatusWorkflow per OracleRequest event.
type Dispatcher struct {
	stream    EventStream
	starter   WorkflowStarter
	taskQueue string
	log       logrus.FieldLogger

	// Reconnect backoff bounds.
	minBackoff time.Duration
	maxBackoff time.Duration
}

// New creates a Dispatcher
func New(stream EventStream, starter WorkflowStarter, taskQueue string, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		stream:     stream,
		starter:    starter,
		taskQueue:  taskQueue,
		log:        log.WithField("component", "dispatcher"),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run consumes the event stream, reconnecting with backoff, until ctx is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	backoff := d.minBackoff
	for {
		connected := time.Now()
		err := d.stream.StreamEvents(ctx, func(ev models.Event) { d.Dispatch(ctx, ev) })
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A stream that stayed up for a while resets the backoff.
		if time.Since(connected) > d.maxBackoff {
			backoff = d.minBackoff
		}
		d.log.WithError(err).WithField("retry_in", backoff.String()).Warn("event stream disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
	}
}

// Dispatch starts a FlightStatusWorkflow when ev is an OracleRequest.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) {
	if ev.Type != models.EventOracleRequest {
		return
	}

	key := ev.RequestKey()
	opts := client.StartWorkflowOptions{
		ID:        workflows.FlightStatusWorkflowID(key, ev.Seq),
		TaskQueue: d.taskQueue,
	}
	entry := d.log.WithFields(logrus.Fields{
		"workflow_id": opts.ID,
		"flight":      key.FlightID,
		"index":       key.Index,
	})

	run, err := d.starter.ExecuteWorkflow(ctx, opts, workflows.FlightStatusWorkflow, models.FlightStatusInput{OracleRequestKey: key})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			entry.Debug("flight status workflow already running")
			return
		}
		entry.WithError(err).Error("failed to start flight status workflow")
		return
	}
	entry.WithField("run_id", run.GetRunID()).Info("flight status workflow started")
}
