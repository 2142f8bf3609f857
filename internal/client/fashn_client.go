package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/styledna/api/internal/config"
)

// FashnClient implements ImageGenerator against the Fashn try-on API.
// Generation is asynchronous on their side: submit a prediction, then
// poll its status until it completes or fails.
type FashnClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *slog.Logger
}

// FashnRunRequest represents the request for starting a prediction
type FashnRunRequest struct {
	ModelName string         `json:"model_name"`
	Inputs    map[string]any `json:"inputs"`
}

// FashnRunResponse represents the response from starting a prediction
type FashnRunResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// FashnStatusResponse represents a prediction's current state
type FashnStatusResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// NewFashnClient creates a new Fashn API client
func NewFashnClient(cfg *config.FashnConfig, logger *slog.Logger) *FashnClient {
	return &FashnClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: time.Duration(cfg.PollInterval) * time.Second,
		maxWait:      time.Duration(cfg.MaxWait) * time.Second,
		logger:       logger,
	}
}

// Name identifies this provider in job payloads and results.
func (c *FashnClient) Name() string {
	return "fashn"
}

// Visualize submits a prediction and polls it to completion.
func (c *FashnClient) Visualize(ctx context.Context, req *VisualizeRequest) (*VisualizeResult, error) {
	inputs := map[string]any{
		"person_description": req.PersonDescriptor,
		"outfit_description": req.OutfitPrompt,
	}
	if len(req.ItemImageURLs) > 0 {
		inputs["garment_images"] = req.ItemImageURLs
	}

	run, err := c.Run(ctx, &FashnRunRequest{
		ModelName: "tryon-v1.6",
		Inputs:    inputs,
	})
	if err != nil {
		return nil, err
	}

	status, err := c.PollStatus(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	return &VisualizeResult{
		ImageURL: status.Output[0],
		Metadata: map[string]string{
			"prediction_id": status.ID,
			"model_name":    "tryon-v1.6",
		},
	}, nil
}

// Run starts a prediction
func (c *FashnClient) Run(ctx context.Context, req *FashnRunRequest) (*FashnRunResponse, error) {
	var result FashnRunResponse
	if err := c.post(ctx, "/run", req, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("fashn rejected prediction: %s", result.Error)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("fashn returned no prediction id")
	}
	return &result, nil
}

// GetStatus retrieves the state of a prediction
func (c *FashnClient) GetStatus(ctx context.Context, predictionID string) (*FashnStatusResponse, error) {
	endpoint := fmt.Sprintf("/status/%s", predictionID)
	var result FashnStatusResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PollStatus polls a prediction until it completes, fails, or the wait
// budget runs out.
func (c *FashnClient) PollStatus(ctx context.Context, predictionID string) (*FashnStatusResponse, error) {
	deadline := time.Now().Add(c.maxWait)
	attempt := 0

	for time.Now().Before(deadline) {
		attempt++
		result, err := c.GetStatus(ctx, predictionID)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("fashn poll",
			"attempt", attempt,
			"prediction_id", predictionID,
			"status", result.Status)

		switch result.Status {
		case "completed":
			if len(result.Output) == 0 {
				return nil, fmt.Errorf("fashn prediction completed without output")
			}
			return result, nil
		case "failed", "canceled":
			if result.Error != "" {
				return nil, fmt.Errorf("fashn prediction failed: %s", result.Error)
			}
			return nil, fmt.Errorf("fashn prediction %s", result.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
			continue
		}
	}

	return nil, fmt.Errorf("fashn prediction timed out after %v", c.maxWait)
}

// post sends a POST request with JSON body
func (c *FashnClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *FashnClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *FashnClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("fashn API error",
			"method", req.Method,
			"url", req.URL.String(),
			"status", resp.StatusCode)
		return fmt.Errorf("fashn API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *FashnClient) IsConfigured() bool {
	return c.apiKey != ""
}
