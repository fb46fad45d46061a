package domain

// Waypoint is a named geographic target on a quest route. Waypoints are
// supplied wholesale by the route generator and never mutated afterwards.
type Waypoint struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Position    GeoPoint `json:"position"`
}

// Validate checks the waypoint's structural invariants.
func (w Waypoint) Validate() error {
	if w.Name == "" {
		return ErrInvalidRoute
	}
	if !w.Position.Valid() {
		return ErrInvalidRoute
	}
	return nil
}

// Route is an ordered sequence of waypoints assigned to one user.
// MaxRouteLength is enforced by the callers that create routes; the
// engine itself only rejects empty routes.
type Route []Waypoint

// MaxRouteLength is the largest route the content generator is asked for.
const MaxRouteLength = 20

// Validate rejects empty routes and routes containing malformed waypoints.
func (r Route) Validate() error {
	if len(r) == 0 {
		return ErrInvalidRoute
	}
	for _, w := range r {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}
