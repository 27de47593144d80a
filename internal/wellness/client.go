package wellness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client is an HTTP implementation of Reader against the wellness backend's
// internal read API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a wellness read client.
// If baseURL is empty, uses VITACOACH_WELLNESS_URL or localhost:8090.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("VITACOACH_WELLNESS_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}

	timeout := 10 * time.Second
	if t := os.Getenv("VITACOACH_WELLNESS_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// get fetches one read endpoint into result.
// Quota and rate-limit denials are treated as empty results, not errors:
// the pipeline degrades instead of failing a turn.
func (c *Client) get(ctx context.Context, path, owner string, result any) error {
	u := fmt.Sprintf("%s%s?owner=%s", c.baseURL, path, url.QueryEscape(owner))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("wellness api: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FastingStatus returns the owner's current fast / eating-window state.
func (c *Client) FastingStatus(ctx context.Context, owner string) (FastingStatus, error) {
	var out FastingStatus
	err := c.get(ctx, "/internal/fasting/status", owner, &out)
	return out, err
}

// Streaks returns the owner's activity streak aggregates.
func (c *Client) Streaks(ctx context.Context, owner string) ([]Streak, error) {
	var out []Streak
	err := c.get(ctx, "/internal/streaks", owner, &out)
	return out, err
}

// Level returns gamification level and XP.
func (c *Client) Level(ctx context.Context, owner string) (Level, error) {
	var out Level
	err := c.get(ctx, "/internal/level", owner, &out)
	return out, err
}

// WorkoutStats returns recent training volume.
func (c *Client) WorkoutStats(ctx context.Context, owner string) (WorkoutStats, error) {
	var out WorkoutStats
	err := c.get(ctx, "/internal/workouts/stats", owner, &out)
	return out, err
}

// WorkoutRecommendation returns the backend's next suggested session.
func (c *Client) WorkoutRecommendation(ctx context.Context, owner string) (WorkoutRecommendation, error) {
	var out WorkoutRecommendation
	err := c.get(ctx, "/internal/workouts/recommendation", owner, &out)
	return out, err
}

// WeightTrend returns the owner's recent weight movement.
func (c *Client) WeightTrend(ctx context.Context, owner string) (WeightTrend, error) {
	var out WeightTrend
	err := c.get(ctx, "/internal/weight/trend", owner, &out)
	return out, err
}

// Biomarkers returns the latest biomarker readings with trends.
func (c *Client) Biomarkers(ctx context.Context, owner string) ([]BiomarkerSummary, error) {
	var out []BiomarkerSummary
	err := c.get(ctx, "/internal/biomarkers/summary", owner, &out)
	return out, err
}

// RecoveryScore returns the composite readiness score.
func (c *Client) RecoveryScore(ctx context.Context, owner string) (RecoveryScore, error) {
	var out RecoveryScore
	err := c.get(ctx, "/internal/recovery", owner, &out)
	return out, err
}

// FastingSafety returns the health-profile fasting check.
func (c *Client) FastingSafety(ctx context.Context, owner string) (FastingSafety, error) {
	// Default to safe when the backend has nothing on file
	out := FastingSafety{Safe: true}
	err := c.get(ctx, "/internal/fasting/safety", owner, &out)
	return out, err
}
