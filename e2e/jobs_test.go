package e2e

import (
	"context"
	"net/http"
	"testing"

	"github.com/styledna/api/internal/model"
)

// startVisualizationJob queues a job through the API and returns its ID.
func startVisualizationJob(t *testing.T, ta *testApp) string {
	t.Helper()

	seedDescriptor(t, ta)
	outfitID, _ := generateOutfit(t, ta, `{}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/visualization/generate",
		`{"outfit_id": "`+outfitID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	jobID, _ := result["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected 'job_id' in response, got: %v", result)
	}
	return jobID
}

func TestJobStatus_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/nope", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
	if code := errorCode(t, resp); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %q", code)
	}
}

func TestJobStatus_Queued(t *testing.T) {
	ta := setupApp(t)

	jobID := startVisualizationJob(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	// Queued jobs poll as processing; clients never see broker states.
	if result["status"] != "processing" {
		t.Errorf("expected status processing, got %v", result["status"])
	}
	if result["progress"] != float64(0) {
		t.Errorf("expected progress 0, got %v", result["progress"])
	}
}

func TestJobStatus_Progress(t *testing.T) {
	ta := setupApp(t)

	jobID := startVisualizationJob(t, ta)

	if err := ta.visualization.UpdateJobProgress(context.Background(), jobID, 60, "Rendering garments..."); err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "processing" {
		t.Errorf("expected status processing, got %v", result["status"])
	}
	if result["progress"] != float64(60) {
		t.Errorf("expected progress 60, got %v", result["progress"])
	}
	if result["status_message"] != "Rendering garments..." {
		t.Errorf("expected status_message, got %v", result["status_message"])
	}
}

func TestJobStatus_Complete(t *testing.T) {
	ta := setupApp(t)

	jobID := startVisualizationJob(t, ta)

	visResult := &model.VisualizationResult{
		Success:  true,
		ImageURL: "https://storage.local/visualizations/done.png",
		Provider: "mock",
	}
	if err := ta.visualization.CompleteJob(context.Background(), jobID, visResult); err != nil {
		t.Fatalf("failed to complete job: %v", err)
	}

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "complete" {
		t.Errorf("expected status complete, got %v", result["status"])
	}
	if result["progress"] != float64(100) {
		t.Errorf("expected progress 100, got %v", result["progress"])
	}

	jobResult, ok := result["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'result' object, got: %v", result["result"])
	}
	if jobResult["image_url"] != visResult.ImageURL {
		t.Errorf("expected image_url in result, got %v", jobResult["image_url"])
	}
}

func TestJobStatus_Failed(t *testing.T) {
	ta := setupApp(t)

	jobID := startVisualizationJob(t, ta)

	if err := ta.visualization.FailJob(context.Background(), jobID, "Provider exploded"); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "failed" {
		t.Errorf("expected status failed, got %v", result["status"])
	}
	if result["error"] != "Provider exploded" {
		t.Errorf("expected stored error message, got %v", result["error"])
	}
	if result["progress"] != float64(0) {
		t.Errorf("expected progress reset to 0, got %v", result["progress"])
	}
}

func TestJobStatus_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/jobs/some-id", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}
