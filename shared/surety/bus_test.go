package surety

import (
	"testing"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusEvent(seq uint64, flight string) models.Event {
	return models.Event{Seq: seq, Type: models.EventFlightStatusInfo, FlightID: flight, StatusCode: models.StatusOnTime}
}

func TestFilter_Matches(t *testing.T) {
	ev := statusEvent(1, "ND1309")

	assert.True(t, Filter{}.Matches(ev))
	assert.True(t, Filter{FlightID: "ND1309"}.Matches(ev))
	assert.False(t, Filter{FlightID: "ND1310"}.Matches(ev))
	assert.True(t, Filter{Types: []models.EventType{models.EventOracleRequest, models.EventFlightStatusInfo}}.Matches(ev))
	assert.False(t, Filter{Types: []models.EventType{models.EventOracleRequest}}.Matches(ev))
}

func TestBus_SubscribeOnce(t *testing.T) {
	b := NewBus(8, quietLogger())

	var once, always []uint64
	b.SubscribeOnce(Filter{FlightID: "ND1309"}, func(ev models.Event) { once = append(once, ev.Seq) })
	b.Subscribe(Filter{FlightID: "ND1309"}, func(ev models.Event) { always = append(always, ev.Seq) })
	require.Equal(t, 2, b.SubscriberCount())

	b.publish([]models.Event{statusEvent(1, "ND1310"), statusEvent(2, "ND1309"), statusEvent(3, "ND1309")})

	assert.Equal(t, []uint64{2}, once)
	assert.Equal(t, []uint64{2, 3}, always)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(8, quietLogger())

	calls := 0
	unsubscribe := b.Subscribe(Filter{}, func(models.Event) { calls++ })
	b.publish([]models.Event{statusEvent(1, "ND1309")})
	unsubscribe()
	b.publish([]models.Event{statusEvent(2, "ND1309")})

	assert.Equal(t, 1, calls)
	assert.Zero(t, b.SubscriberCount())
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	b := NewBus(8, quietLogger())

	delivered := false
	b.Subscribe(Filter{}, func(models.Event) { panic("boom") })
	b.Subscribe(Filter{}, func(models.Event) { delivered = true })

	assert.NotPanics(t, func() { b.publish([]models.Event{statusEvent(1, "ND1309")}) })
	assert.True(t, delivered)
}

func TestBus_RecentWrapsAround(t *testing.T) {
	b := NewBus(3, quietLogger())
	for i := uint64(1); i <= 5; i++ {
		b.publish([]models.Event{statusEvent(i, "ND1309")})
	}

	recent := b.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, uint64(3), recent[0].Seq)
	assert.Equal(t, uint64(5), recent[2].Seq)

	last := b.Recent(2)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(4), last[0].Seq)
}
