package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nbasched/ingestion/internal/metrics"
	"nbasched/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Client is the upstream schedule feed client
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new feed client with rate limiting and retries
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Max 10 concurrent requests
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying feed request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Rate limiting: acquire semaphore
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.rateLimiter:
		}

		body, retryable, err := c.do(ctx, url)
		c.rateLimiter <- struct{}{}

		if err == nil {
			metrics.FetchCallsTotal.WithLabelValues(path, "success").Inc()
			metrics.FetchCallDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			return body, nil
		}

		lastErr = err
		if !retryable || attempt == c.maxRetries {
			metrics.FetchCallsTotal.WithLabelValues(path, "error").Inc()
			return nil, lastErr
		}

		log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt+1).
			Msg("Feed request failed, will retry")
	}

	metrics.FetchCallsTotal.WithLabelValues(path, "error").Inc()
	return nil, lastErr
}

// do performs a single request attempt. The second return value reports
// whether the failure is retryable.
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nbasched/1.0")

	log.Debug().
		Str("url", url).
		Str("method", req.Method).
		Msg("Making feed request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("Feed request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("feed returned retryable status %d: %s", resp.StatusCode, string(body))

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, fmt.Errorf("feed authentication failed (status %d): %s", resp.StatusCode, string(body))

	default:
		return nil, false, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}
}

// FetchSchedule fetches the full season schedule
func (c *Client) FetchSchedule(ctx context.Context, season int) ([]models.ScheduleRow, error) {
	body, err := c.get(ctx, fmt.Sprintf("schedule/%d", season))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule for season %d: %w", season, err)
	}

	var inputs []models.ScheduleRowInput
	if err := json.Unmarshal(body, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode schedule payload: %w", err)
	}

	rows := make([]models.ScheduleRow, 0, len(inputs))
	for _, input := range inputs {
		row, err := input.ToScheduleRow()
		if err != nil {
			return nil, fmt.Errorf("failed to decode schedule row %s @ %s: %w", input.AwayTeam, input.HomeTeam, err)
		}
		rows = append(rows, *row)
	}

	log.Info().
		Int("season", season).
		Int("count", len(rows)).
		Msg("Schedule fetched")

	return rows, nil
}

// FetchTeams fetches the league team list
func (c *Client) FetchTeams(ctx context.Context) ([]models.TeamInput, error) {
	body, err := c.get(ctx, "teams")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	var teams []models.TeamInput
	if err := json.Unmarshal(body, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams payload: %w", err)
	}

	log.Info().Int("count", len(teams)).Msg("Teams fetched")
	return teams, nil
}
