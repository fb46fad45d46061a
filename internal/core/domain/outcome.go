package domain

// OutcomeKind discriminates the result of a location report.
type OutcomeKind string

const (
	// OutcomeNoActiveRoute — the user has no route assigned. Normal
	// outcome, not an error.
	OutcomeNoActiveRoute OutcomeKind = "no_active_route"
	// OutcomeRouteAlreadyComplete — the final waypoint was already
	// credited; no mutation occurs.
	OutcomeRouteAlreadyComplete OutcomeKind = "route_already_complete"
	// OutcomeTooFar — the report missed the acceptance radius; no
	// mutation occurs.
	OutcomeTooFar OutcomeKind = "too_far"
	// OutcomeAdvanced — the current target was credited and the route
	// moved to the next waypoint.
	OutcomeAdvanced OutcomeKind = "advanced"
	// OutcomeRouteCompleted — the final waypoint was credited.
	OutcomeRouteCompleted OutcomeKind = "route_completed"
)

// Outcome is the discriminated result of reporting a location. The caller
// (chat front-end, HTTP client) branches on Kind; each kind requires
// different user guidance, so kinds are never collapsed.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// DistanceMeters to the current target; set for too_far, advanced
	// and route_completed.
	DistanceMeters float64 `json:"distance_meters,omitempty"`

	// Target the report was evaluated against (too_far only).
	Target *Waypoint `json:"target,omitempty"`

	// NextTarget after an advancement (advanced only).
	NextTarget *Waypoint `json:"next_target,omitempty"`

	Step       int `json:"step"`
	TotalSteps int `json:"total_steps"`

	// PointsAwarded by this report. The incremental per-waypoint credit
	// is authoritative for the balance.
	PointsAwarded int `json:"points_awarded,omitempty"`

	// TotalPoints is a derived display value (route length times points
	// per waypoint), set on route_completed. It is never added to the
	// balance a second time.
	TotalPoints int `json:"total_points,omitempty"`

	Balance int `json:"balance"`
}
