package surety

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
)

type airlineRegistry struct {
	airlines map[string]*models.Airline
	order    []string
	pending  map[string]*models.PendingApplication
	// admitted counts airlines admitted through registerAirline; the
	// genesis airline is not included.
	admitted int
}

func newAirlineRegistry() *airlineRegistry {
	return &airlineRegistry{
		airlines: make(map[string]*models.Airline),
		pending:  make(map[string]*models.PendingApplication),
	}
}

func (r *airlineRegistry) seed(id, name string, funds int64) {
	r.airlines[id] = &models.Airline{ID: id, Name: name, IsRegistered: true, IsFunded: true, Funds: funds}
	r.order = append(r.order, id)
}

func (r *airlineRegistry) isAirline(id string) bool {
	a, ok := r.airlines[id]
	return ok && a.IsRegistered
}

// requireParticipant allows registered and funded airlines only.
func (r *airlineRegistry) requireParticipant(id string) error {
	a, ok := r.airlines[id]
	if !ok || !a.IsRegistered || !a.IsFunded {
		return fmt.Errorf("%w: %q is not a registered and funded airline", ErrAccessDenied, id)
	}
	return nil
}

func (r *airlineRegistry) planRegister(c *change, cfg Config, caller, candidate, name string) (models.Admission, error) {
	if err := r.requireParticipant(caller); err != nil {
		return models.Admission{}, err
	}
	if candidate == "" {
		return models.Admission{}, fmt.Errorf("%w: candidate id is required", ErrInvalidArgument)
	}
	if r.isAirline(candidate) {
		return models.Admission{}, fmt.Errorf("%w: airline %q", ErrAlreadyExists, candidate)
	}

	n := r.admitted
	if n < cfg.DirectAdmissionLimit {
		r.stageAdmission(c, candidate, name)
		return models.Admission{AirlineID: candidate, Admitted: true}, nil
	}

	app, ok := r.pending[candidate]
	if !ok {
		app = &models.PendingApplication{
			CandidateID:   candidate,
			Name:          name,
			RequiredVotes: (n + 1) / 2,
		}
	} else if app.HasVoted(caller) {
		return models.Admission{}, ErrAlreadyVoted
	}

	admission := models.Admission{
		AirlineID:     candidate,
		Votes:         len(app.Voters) + 1,
		RequiredVotes: app.RequiredVotes,
	}
	if admission.Votes >= app.RequiredVotes {
		admission.Admitted = true
		c.do(func() { delete(r.pending, candidate) })
		r.stageAdmission(c, candidate, app.Name)
		return admission, nil
	}

	c.do(func() {
		app.Voters = append(app.Voters, caller)
		r.pending[candidate] = app
	})
	return admission, nil
}

func (r *airlineRegistry) stageAdmission(c *change, id, name string) {
	c.do(func() {
		r.airlines[id] = &models.Airline{ID: id, Name: name, IsRegistered: true}
		r.order = append(r.order, id)
		r.admitted++
	})
	c.emit(models.Event{Type: models.EventRegisteredAirline, AirlineID: id, Name: name})
}

func (r *airlineRegistry) planFund(c *change, cfg Config, caller string, value int64) error {
	a, ok := r.airlines[caller]
	if !ok || !a.IsRegistered {
		return fmt.Errorf("%w: airline %q", ErrNotFound, caller)
	}
	if value < cfg.FundingThreshold {
		return fmt.Errorf("%w: funding of %s is below the %s threshold",
			ErrInsufficientFunds, models.FormatUnits(value), models.FormatUnits(cfg.FundingThreshold))
	}

	c.deposit(caller, value, "airline funding")
	c.do(func() {
		a.IsFunded = true
		a.Funds += value
	})
	c.emit(models.Event{Type: models.EventAirlineFunded, AirlineID: caller, Name: a.Name, Amount: value})
	return nil
}

func (r *airlineRegistry) get(id string) (models.Airline, error) {
	a, ok := r.airlines[id]
	if !ok {
		return models.Airline{}, fmt.Errorf("%w: airline %q", ErrNotFound, id)
	}
	return *a, nil
}

func (r *airlineRegistry) list() []models.Airline {
	out := make([]models.Airline, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.airlines[id])
	}
	return out
}

func (r *airlineRegistry) application(candidate string) (models.PendingApplication, error) {
	app, ok := r.pending[candidate]
	if !ok {
		return models.PendingApplication{}, fmt.Errorf("%w: no pending application for %q", ErrNotFound, candidate)
	}
	cp := *app
	cp.Voters = append([]string(nil), app.Voters...)
	return cp, nil
}
