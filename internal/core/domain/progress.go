package domain

// RouteProgress is the per-user progression record.
//
// Invariants maintained by the progress store:
//   - 0 <= Step <= len(Route)
//   - len(Visited) == Step
//   - Balance never decreases through this subsystem
//   - Generation increases by one on every route replacement
//
// Step == len(Route) means the route is completed. An empty Route means
// the user has no active route. Generation identifies which route the
// step and visited history belong to, so a credit prepared against an
// old route can never land on a newly assigned one.
type RouteProgress struct {
	UserID     string     `json:"user_id"`
	Route      Route      `json:"route"`
	Generation int        `json:"generation"`
	Step       int        `json:"step"`
	Visited    []Waypoint `json:"visited"`
	Balance    int        `json:"balance"`
}

// HasRoute reports whether the user currently has an active route assigned.
func (p *RouteProgress) HasRoute() bool {
	return len(p.Route) > 0
}

// Completed reports whether every waypoint of the active route was credited.
func (p *RouteProgress) Completed() bool {
	return p.HasRoute() && p.Step >= len(p.Route)
}

// CurrentTarget returns the next uncredited waypoint, or nil if there is
// no active route or the route is completed.
func (p *RouteProgress) CurrentTarget() *Waypoint {
	if !p.HasRoute() || p.Step >= len(p.Route) {
		return nil
	}
	w := p.Route[p.Step]
	return &w
}

// RouteStatus is a read-only projection of RouteProgress for status displays.
type RouteStatus struct {
	HasRoute      bool      `json:"has_route"`
	Step          int       `json:"step"`
	TotalSteps    int       `json:"total_steps"`
	Balance       int       `json:"balance"`
	Completed     bool      `json:"completed"`
	CurrentTarget *Waypoint `json:"current_target,omitempty"`
}

// Status derives the projection from the progress record.
func (p *RouteProgress) Status() RouteStatus {
	return RouteStatus{
		HasRoute:      p.HasRoute(),
		Step:          p.Step,
		TotalSteps:    len(p.Route),
		Balance:       p.Balance,
		Completed:     p.Completed(),
		CurrentTarget: p.CurrentTarget(),
	}
}
