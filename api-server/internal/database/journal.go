package database

import (
	"context"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/sirupsen/logrus"
)

// EventStore persists engine events
type EventStore interface {
	SaveEvent(ctx context.Context, ev models.Event) error
}

// Journal writes engine events to an EventStore off the commit path.
type Journal struct {
	store        EventStore
	queue        chan models.Event
	log          logrus.FieldLogger
	writeTimeout time.Duration
}

// NewJournal creates a journal buffering up to size events
func NewJournal(store EventStore, size int, log logrus.FieldLogger) *Journal {
	if size < 1 {
		size = 1
	}
	return &Journal{
		store:        store,
		queue:        make(chan models.Event, size),
		log:          log.WithField("component", "journal"),
		writeTimeout: 5 * time.Second,
	}
}

// Record queues an event. It never blocks; events are dropped and logged
// when the buffer is full.
func (j *Journal) Record(ev models.Event) {
	select {
	case j.queue <- ev:
	default:
		j.log.WithFields(logrus.Fields{
			"seq":  ev.Seq,
			"type": ev.Type,
		}).Error("journal buffer full, event not persisted")
	}
}

// Run writes queued events until ctx is cancelled, then drains what is
// already buffered.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case ev := <-j.queue:
			j.write(context.Background(), ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-j.queue:
					j.write(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

func (j *Journal) write(parent context.Context, ev models.Event) {
	ctx, cancel := context.WithTimeout(parent, j.writeTimeout)
	defer cancel()

	if err := j.store.SaveEvent(ctx, ev); err != nil {
		j.log.WithError(err).WithFields(logrus.Fields{
			"seq":  ev.Seq,
			"type": ev.Type,
		}).Error("failed to persist event")
	}
}
