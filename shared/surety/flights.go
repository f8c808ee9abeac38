package surety

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
)

type flightRegistry struct {
	flights map[string]*models.Flight
	order   []string
}

func newFlightRegistry() *flightRegistry {
	return &flightRegistry{flights: make(map[string]*models.Flight)}
}

func (r *flightRegistry) planRegister(c *change, airlines *airlineRegistry, caller, flightID string, timestamp int64) (models.Flight, error) {
	if err := airlines.requireParticipant(caller); err != nil {
		return models.Flight{}, err
	}
	if flightID == "" {
		return models.Flight{}, fmt.Errorf("%w: flight id is required", ErrInvalidArgument)
	}
	if _, ok := r.flights[flightID]; ok {
		return models.Flight{}, fmt.Errorf("%w: flight %q", ErrAlreadyExists, flightID)
	}

	f := &models.Flight{
		ID:               flightID,
		Airline:          caller,
		StatusCode:       models.StatusUnknown,
		Timestamp:        timestamp,
		UpdatedTimestamp: timestamp,
	}
	c.do(func() {
		r.flights[flightID] = f
		r.order = append(r.order, flightID)
	})
	return view(f), nil
}

func (r *flightRegistry) require(flightID string) (*models.Flight, error) {
	f, ok := r.flights[flightID]
	if !ok {
		return nil, fmt.Errorf("%w: flight %q", ErrNotFound, flightID)
	}
	return f, nil
}

// stageSettle records the terminal status of a flight.
func (r *flightRegistry) stageSettle(c *change, f *models.Flight, status models.StatusCode, timestamp int64) {
	c.do(func() {
		f.StatusCode = status
		f.UpdatedTimestamp = timestamp
	})
}

func (r *flightRegistry) get(flightID string) (models.Flight, error) {
	f, err := r.require(flightID)
	if err != nil {
		return models.Flight{}, err
	}
	return view(f), nil
}

func (r *flightRegistry) list() []models.Flight {
	out := make([]models.Flight, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, view(r.flights[id]))
	}
	return out
}

func view(f *models.Flight) models.Flight {
	out := *f
	out.Status = f.StatusCode.Description()
	return out
}
