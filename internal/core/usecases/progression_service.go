package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/core/ports"
	"github.com/samirrijal/questline/internal/pkg/geospatial"
	"github.com/samirrijal/questline/internal/pkg/metrics"
)

// ProgressionConfig tunes the matching engine.
type ProgressionConfig struct {
	// AcceptanceRadiusMeters is the inclusive match radius. Defaults to 50.
	AcceptanceRadiusMeters float64
	// PointsPerWaypoint is the credit per visited waypoint. Defaults to 10.
	PointsPerWaypoint int
}

func (c ProgressionConfig) withDefaults() ProgressionConfig {
	if c.AcceptanceRadiusMeters <= 0 {
		c.AcceptanceRadiusMeters = 50
	}
	if c.PointsPerWaypoint <= 0 {
		c.PointsPerWaypoint = 10
	}
	return c
}

// ProgressionService is the route progression and geofence matching engine.
// It is stateless: every call loads progress from the store, decides, and
// writes back through the store's atomic primitives. Progress is never
// cached across calls.
type ProgressionService struct {
	progress  ports.ProgressRepository
	generator ports.RouteGenerator
	events    ports.EventPublisher
	cfg       ProgressionConfig
}

// NewProgressionService creates a new ProgressionService. generator and
// events may be nil; route generation then fails cleanly and events are
// skipped.
func NewProgressionService(progress ports.ProgressRepository, generator ports.RouteGenerator, events ports.EventPublisher, cfg ProgressionConfig) *ProgressionService {
	return &ProgressionService{
		progress:  progress,
		generator: generator,
		events:    events,
		cfg:       cfg.withDefaults(),
	}
}

// ReportLocation evaluates a position report against the user's current
// target waypoint and advances the route on a match. Non-match paths
// mutate nothing, so repeating them is free. The only returned error kind
// is a storage failure; every expected condition is an Outcome variant.
func (s *ProgressionService) ReportLocation(ctx context.Context, userID string, lat, lon float64) (*domain.Outcome, error) {
	for {
		progress, err := s.progress.GetProgress(ctx, userID)
		if err != nil {
			return nil, err
		}

		if !progress.HasRoute() {
			return s.done(&domain.Outcome{Kind: domain.OutcomeNoActiveRoute}), nil
		}

		if progress.Completed() {
			return s.done(&domain.Outcome{
				Kind:       domain.OutcomeRouteAlreadyComplete,
				Step:       progress.Step,
				TotalSteps: len(progress.Route),
				Balance:    progress.Balance,
			}), nil
		}

		target := progress.Route[progress.Step]
		dist, match := geospatial.WithinRadius(lat, lon,
			target.Position.Lat, target.Position.Lon, s.cfg.AcceptanceRadiusMeters)

		if !match {
			return s.done(&domain.Outcome{
				Kind:           domain.OutcomeTooFar,
				DistanceMeters: dist,
				Target:         &target,
				Step:           progress.Step,
				TotalSteps:     len(progress.Route),
				Balance:        progress.Balance,
			}), nil
		}

		err = s.progress.CreditWaypoint(ctx, userID, progress.Generation, progress.Step, target, s.cfg.PointsPerWaypoint)
		if errors.Is(err, domain.ErrStepConflict) {
			// Another report won the race, or the route was reassigned
			// since we read it; re-evaluate against the current state.
			metrics.StepConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.WaypointsCredited.Inc()
		metrics.PointsAwarded.Add(float64(s.cfg.PointsPerWaypoint))

		nextStep := progress.Step + 1
		balance := progress.Balance + s.cfg.PointsPerWaypoint

		if s.events != nil {
			if err := s.events.PublishWaypointVisited(ctx, userID, target, nextStep, balance); err != nil {
				slog.Warn("publish waypoint visited failed", "user_id", userID, "error", err)
			}
		}

		if nextStep == len(progress.Route) {
			if s.events != nil {
				if err := s.events.PublishRouteCompleted(ctx, userID, nextStep, balance); err != nil {
					slog.Warn("publish route completed failed", "user_id", userID, "error", err)
				}
			}
			return s.done(&domain.Outcome{
				Kind:           domain.OutcomeRouteCompleted,
				DistanceMeters: dist,
				Step:           nextStep,
				TotalSteps:     len(progress.Route),
				PointsAwarded:  s.cfg.PointsPerWaypoint,
				// Display figure only; the balance already carries the
				// incremental credits.
				TotalPoints: len(progress.Route) * s.cfg.PointsPerWaypoint,
				Balance:     balance,
			}), nil
		}

		next := progress.Route[nextStep]
		return s.done(&domain.Outcome{
			Kind:           domain.OutcomeAdvanced,
			DistanceMeters: dist,
			NextTarget:     &next,
			Step:           nextStep,
			TotalSteps:     len(progress.Route),
			PointsAwarded:  s.cfg.PointsPerWaypoint,
			Balance:        balance,
		}), nil
	}
}

func (s *ProgressionService) done(o *domain.Outcome) *domain.Outcome {
	metrics.LocationReports.WithLabelValues(string(o.Kind)).Inc()
	return o
}

// AssignRoute replaces the user's route and resets progress. Assigning
// while an older route is underway silently discards its progress; that is
// the intended "recreate route" semantics, not an error. The balance is
// never touched.
func (s *ProgressionService) AssignRoute(ctx context.Context, userID string, route domain.Route) error {
	if err := route.Validate(); err != nil {
		return err
	}
	if err := s.progress.SetRoute(ctx, userID, route); err != nil {
		return err
	}

	metrics.RoutesAssigned.Inc()

	if s.events != nil {
		if err := s.events.PublishRouteAssigned(ctx, userID, route); err != nil {
			slog.Warn("publish route assigned failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// GenerateAndAssign asks the content generator for a route matching the
// interest profile and assigns any non-empty result. Generator failure or
// an empty candidate list surfaces as domain.ErrNoRouteProduced.
func (s *ProgressionService) GenerateAndAssign(ctx context.Context, userID, interests string, count int) (domain.Route, error) {
	if s.generator == nil {
		return nil, domain.ErrNoRouteProduced
	}
	if count < 1 || count > domain.MaxRouteLength {
		count = s.defaultCount(ctx, userID)
	}

	route, err := s.generator.GenerateRoute(ctx, interests, count)
	if err != nil || len(route) == 0 {
		return nil, domain.ErrNoRouteProduced
	}

	if err := s.AssignRoute(ctx, userID, route); err != nil {
		return nil, err
	}
	return route, nil
}

// defaultCount mirrors the recreate behaviour: reuse the previous route
// length, falling back to 5 waypoints.
func (s *ProgressionService) defaultCount(ctx context.Context, userID string) int {
	progress, err := s.progress.GetProgress(ctx, userID)
	if err == nil && progress.HasRoute() {
		return len(progress.Route)
	}
	return 5
}

// CurrentStatus returns the read-only progress projection.
func (s *ProgressionService) CurrentStatus(ctx context.Context, userID string) (*domain.RouteStatus, error) {
	progress, err := s.progress.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := progress.Status()
	return &status, nil
}
