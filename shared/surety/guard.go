package surety

import "fmt"

type guard struct {
	owner       string
	app         string
	operational bool
	authorized  map[string]struct{}
}

func newGuard(owner, app string) *guard {
	return &guard{
		owner:       owner,
		app:         app,
		operational: true,
		authorized: map[string]struct{}{
			owner: {},
			app:   {},
		},
	}
}

func (g *guard) requireOwner(caller string) error {
	if caller != g.owner {
		return fmt.Errorf("%w: %q is not the owner", ErrAccessDenied, caller)
	}
	return nil
}

func (g *guard) requireOperational() error {
	if !g.operational {
		return ErrNotOperational
	}
	return nil
}

func (g *guard) isAuthorized(id string) bool {
	_, ok := g.authorized[id]
	return ok
}

func (g *guard) requireAuthorized(id string) error {
	if !g.isAuthorized(id) {
		return fmt.Errorf("%w: %q is not authorized", ErrAccessDenied, id)
	}
	return nil
}

func (g *guard) planSetOperational(c *change, caller string, value bool) error {
	if err := g.requireOwner(caller); err != nil {
		return err
	}
	c.do(func() { g.operational = value })
	return nil
}

func (g *guard) planAuthorize(c *change, caller, id string) error {
	if err := g.requireOwner(caller); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidArgument)
	}
	c.do(func() { g.authorized[id] = struct{}{} })
	return nil
}

func (g *guard) planRevoke(c *change, caller, id string) error {
	if err := g.requireOwner(caller); err != nil {
		return err
	}
	if id == g.owner || id == g.app {
		return fmt.Errorf("%w: %q cannot be revoked", ErrAccessDenied, id)
	}
	if !g.isAuthorized(id) {
		return fmt.Errorf("%w: %q is not authorized", ErrNotFound, id)
	}
	c.do(func() { delete(g.authorized, id) })
	return nil
}
