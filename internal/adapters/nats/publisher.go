package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/questline/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream. All
// progression events go through one QUEST_EVENTS stream; subjects carry
// the user id so consumers can filter per user.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the quest event stream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "QUEST_EVENTS",
		Subjects:  []string{"quest.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

type waypointVisitedEvent struct {
	UserID   string          `json:"user_id"`
	Waypoint domain.Waypoint `json:"waypoint"`
	Step     int             `json:"step"`
	Balance  int             `json:"balance"`
}

type routeCompletedEvent struct {
	UserID     string `json:"user_id"`
	TotalSteps int    `json:"total_steps"`
	Balance    int    `json:"balance"`
}

type routeAssignedEvent struct {
	UserID string       `json:"user_id"`
	Route  domain.Route `json:"route"`
}

func (p *Publisher) PublishWaypointVisited(ctx context.Context, userID string, wp domain.Waypoint, step, balance int) error {
	data, err := json.Marshal(waypointVisitedEvent{UserID: userID, Waypoint: wp, Step: step, Balance: balance})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("quest.visited."+userID, data)
	return err
}

func (p *Publisher) PublishRouteCompleted(ctx context.Context, userID string, totalSteps, balance int) error {
	data, err := json.Marshal(routeCompletedEvent{UserID: userID, TotalSteps: totalSteps, Balance: balance})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("quest.completed."+userID, data)
	return err
}

func (p *Publisher) PublishRouteAssigned(ctx context.Context, userID string, route domain.Route) error {
	data, err := json.Marshal(routeAssignedEvent{UserID: userID, Route: route})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("quest.routes.assigned."+userID, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
