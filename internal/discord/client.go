package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/report"
	"github.com/osse101/DCM_Go/internal/settlement"
)

// APIClient handles communication with the settlement API
type APIClient struct {
	BaseURL    string
	Client     *http.Client
	APIKey     string
	MaxRetries int
	RetryDelay time.Duration
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: DefaultAPITimeout},
		APIKey:     apiKey,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// APIError is a non-2xx answer from the API. Fields carries per-field
// validation messages keyed by request path.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.Status)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// SettlementResult mirrors the compute response
type SettlementResult struct {
	domain.Settlement
	Summary report.Summary `json:"summary"`
}

// ScenarioResult mirrors the scenario response
type ScenarioResult struct {
	domain.Scenario
	Settlement *domain.Settlement `json:"settlement"`
	Summary    report.Summary     `json:"summary"`
}

type scenarioList struct {
	Scenarios []domain.Scenario `json:"scenarios"`
	Total     int               `json:"total"`
}

// doRequest performs an HTTP request, retrying transport failures and 5xx
// answers with exponential backoff and jitter
func (c *APIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody []byte
	if body != nil {
		var err error
		if reqBody, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
	}

	target := c.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int64N(int64(c.RetryDelay)/2 + 1))
			delay := c.RetryDelay*time.Duration(1<<uint(attempt-1)) + jitter
			slog.Info("Retrying API request", "attempt", attempt, "path", path, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(headerClientSource, settlement.SourceDiscord)
		if c.APIKey != "" {
			req.Header.Set(headerAPIKey, c.APIKey)
		}

		resp, err := c.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			slog.Warn("API request failed", "error", err, "attempt", attempt)
			continue
		}

		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		lastErr = decodeAPIError(resp)
		resp.Body.Close()
		slog.Warn("Server error, will retry", "status", resp.StatusCode, "attempt", attempt)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// call performs a request and decodes a JSON answer with the expected status into out
func (c *APIClient) call(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// Compute settles a market without storing it
func (c *APIClient) Compute(ctx context.Context, req *domain.ComputeRequest) (*SettlementResult, error) {
	var out SettlementResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/payouts", req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveScenario settles and stores a named market
func (c *APIClient) SaveScenario(ctx context.Context, req *domain.ScenarioRequest) (*ScenarioResult, error) {
	var out ScenarioResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/scenarios", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetScenario loads a stored scenario with its settlement
func (c *APIClient) GetScenario(ctx context.Context, id string) (*ScenarioResult, error) {
	var out ScenarioResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/scenarios/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListScenarios returns the newest stored scenarios
func (c *APIClient) ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error) {
	path := "/api/v1/scenarios"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out scenarioList
	if err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Scenarios, nil
}

// Healthz checks API liveness without retrying
func (c *APIClient) Healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// asAPIError extracts an *APIError from err
func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
