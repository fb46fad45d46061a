package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/questline/internal/core/domain"
)

// RouteGenerationInput is the input for the route generation workflow.
type RouteGenerationInput struct {
	UserID    string
	Interests string
	Count     int
}

// RouteGenerationWorkflow orchestrates building a route from the content
// generator and assigning it to the user. Generation is slow and flaky,
// assignment is fast; splitting them into activities gives each its own
// retry policy and keeps a generated route from being lost if assignment
// hiccups.
func RouteGenerationWorkflow(ctx workflow.Context, input RouteGenerationInput) (domain.Route, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting route generation workflow", "userID", input.UserID, "count", input.Count)

	genOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			// A generator that produces nothing will not start producing
			// on retry within this workflow's lifetime.
			NonRetryableErrorTypes: []string{"NoRouteProduced"},
		},
	}

	var route domain.Route
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, genOpts),
		"GenerateRoute", input.UserID, input.Interests, input.Count,
	).Get(ctx, &route)
	if err != nil {
		return nil, err
	}

	assignOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 5,
		},
	}
	err = workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, assignOpts),
		"AssignRoute", input.UserID, route,
	).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("Route assigned", "userID", input.UserID, "steps", len(route))
	return route, nil
}
