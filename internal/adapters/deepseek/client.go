package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/pkg/metrics"
)

// Client implements ports.RouteGenerator against an OpenRouter-compatible
// chat completions API. The model is asked for a strict JSON array; since
// models wrap answers in markdown fences anyway, the parser strips them
// before decoding.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     *slog.Logger
}

// Config holds generator connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New creates a generator client.
func New(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// routePrompt asks for a JSON array of named waypoints with coordinates.
const routePrompt = `You are a city quest route planner for Minsk, Belarus.
Build a walking route of exactly %d interesting places matching these interests: %s.
Respond with ONLY a JSON array, no prose, where each element is
{"name": string, "description": string, "lat": number, "lon": number}.
Coordinates must be real places inside Minsk.`

const suggestPrompt = `The user described their interests as: %s.
Suggest up to 5 short refined interest phrases for a city walking quest.
Respond with ONLY a JSON array of strings.`

// GenerateRoute asks the model for count waypoints. Transport failures
// and empty answers surface as ErrNoRouteProduced; a malformed but
// non-empty answer degrades to a single central-Minsk waypoint so the
// user still gets a route.
func (c *Client) GenerateRoute(ctx context.Context, interests string, count int) (domain.Route, error) {
	if count < 1 {
		count = 1
	}
	if count > domain.MaxRouteLength {
		count = domain.MaxRouteLength
	}

	start := time.Now()
	content, err := c.complete(ctx, fmt.Sprintf(routePrompt, count, interests))
	metrics.GeneratorDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeneratorRequests.WithLabelValues("error").Inc()
		c.log.Error("route generation request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteProduced, err)
	}

	var raw []struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		metrics.GeneratorRequests.WithLabelValues("malformed").Inc()
		c.log.Warn("generator returned unparseable route, using fallback", "error", err)
		return fallbackRoute(), nil
	}

	route := make(domain.Route, 0, len(raw))
	for _, w := range raw {
		wp := domain.Waypoint{
			Name:        w.Name,
			Description: w.Description,
			Position:    domain.GeoPoint{Lat: w.Lat, Lon: w.Lon},
		}
		if wp.Name == "" || !wp.Position.Valid() {
			continue
		}
		route = append(route, wp)
	}
	if len(route) == 0 {
		metrics.GeneratorRequests.WithLabelValues("empty").Inc()
		return fallbackRoute(), nil
	}

	metrics.GeneratorRequests.WithLabelValues("ok").Inc()
	return route, nil
}

// SuggestInterests refines a free-text interest description.
func (c *Client) SuggestInterests(ctx context.Context, input string) ([]string, error) {
	content, err := c.complete(ctx, fmt.Sprintf(suggestPrompt, input))
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(stripFences(content)), &suggestions); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	return suggestions, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generator returned %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("generator returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripFences removes a ```json ... ``` wrapper if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func fallbackRoute() domain.Route {
	return domain.Route{{
		Name:        "Independence Square",
		Description: "The central square of Minsk, a good starting point for any walk.",
		Position:    domain.GeoPoint{Lat: 53.8966, Lon: 27.5474},
	}}
}
