package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/core/ports"
	"github.com/samirrijal/questline/internal/core/usecases"
)

// RouteGenerationActivities holds the activity implementations for the
// route generation workflow.
type RouteGenerationActivities struct {
	Generator   ports.RouteGenerator
	Progression *usecases.ProgressionService
	Profiles    ports.ProfileRepository
}

// GenerateRoute asks the content generator for a route. With empty
// interests the stored profile is consulted first.
func (a *RouteGenerationActivities) GenerateRoute(ctx context.Context, userID, interests string, count int) (domain.Route, error) {
	if interests == "" && a.Profiles != nil {
		if p, err := a.Profiles.Get(ctx, userID); err == nil && p != nil {
			interests = p.Interests
		}
	}

	route, err := a.Generator.GenerateRoute(ctx, interests, count)
	if err != nil || len(route) == 0 {
		return nil, temporal.NewNonRetryableApplicationError(
			"route generator produced no route", "NoRouteProduced", err)
	}
	return route, nil
}

// AssignRoute stores the route and resets the user's progress.
func (a *RouteGenerationActivities) AssignRoute(ctx context.Context, userID string, route domain.Route) error {
	err := a.Progression.AssignRoute(ctx, userID, route)
	if errors.Is(err, domain.ErrInvalidRoute) {
		return temporal.NewNonRetryableApplicationError(
			"generated route is invalid", "InvalidRoute", err)
	}
	return err
}
