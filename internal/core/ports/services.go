package ports

import (
	"context"

	"github.com/samirrijal/questline/internal/core/domain"
)

// RouteGenerator produces candidate routes from a free-text interest
// profile. It is an opaque external collaborator with no availability
// guarantee; any non-empty result is valid input to route assignment, and
// failure surfaces as domain.ErrNoRouteProduced.
type RouteGenerator interface {
	GenerateRoute(ctx context.Context, interests string, count int) (domain.Route, error)
	SuggestInterests(ctx context.Context, input string) ([]string, error)
}

// EventPublisher publishes progression events to a message broker.
// Publishing is best-effort: a failed publish never changes an outcome.
type EventPublisher interface {
	PublishWaypointVisited(ctx context.Context, userID string, wp domain.Waypoint, step, balance int) error
	PublishRouteCompleted(ctx context.Context, userID string, totalSteps, balance int) error
	PublishRouteAssigned(ctx context.Context, userID string, route domain.Route) error
}

// CacheService provides read-through caching for data that tolerates
// staleness. RouteProgress is never cached through this interface.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
