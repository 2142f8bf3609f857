package model

import (
	"encoding/json"
	"time"
)

// Job represents a background job record in Redis. The queue broker owns
// execution and retries; this record carries progress and outcome for
// polling clients. Terminal records are never mutated again.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Job types
const (
	JobTypeVisualize = "visualize"
)

// VisualizeJobPayload contains the data for a visualization job
type VisualizeJobPayload struct {
	UserID   string `json:"user_id"`
	OutfitID string `json:"outfit_id"`
	Provider string `json:"provider,omitempty"`
}

// Client-facing poll statuses. Queued and running jobs both report
// "processing"; clients only ever see these three values.
const (
	PollStatusProcessing = "processing"
	PollStatusComplete   = "complete"
	PollStatusFailed     = "failed"
)

// DefaultFailureMessage is reported when a failed job carries no error detail.
const DefaultFailureMessage = "Job failed"

// JobStatusResponse is the poll answer for GET /api/jobs/:jobId
type JobStatusResponse struct {
	JobID         string          `json:"job_id"`
	Status        string          `json:"status"`
	Progress      int             `json:"progress"`
	StatusMessage string          `json:"status_message,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// StatusResponse normalizes a raw job record into the client shape:
// succeeded jobs report complete with full progress and their result,
// failed jobs report failed with zero progress and an error message,
// everything else is processing.
func (j *Job) StatusResponse() *JobStatusResponse {
	resp := &JobStatusResponse{JobID: j.ID}

	switch j.Status {
	case JobStatusSucceeded:
		resp.Status = PollStatusComplete
		resp.Progress = 100
		resp.Result = j.Result
	case JobStatusFailed:
		resp.Status = PollStatusFailed
		resp.Progress = 0
		if j.Error != nil && *j.Error != "" {
			resp.Error = *j.Error
		} else {
			resp.Error = DefaultFailureMessage
		}
	default:
		resp.Status = PollStatusProcessing
		resp.Progress = j.Progress
		resp.StatusMessage = j.CurrentStep
	}

	return resp
}

// VisualizationResult is the result payload of a finished visualization job
type VisualizationResult struct {
	Success        bool              `json:"success"`
	ImageURL       string            `json:"image_url"`
	GenerationTime float64           `json:"generation_time"`
	Provider       string            `json:"provider"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// EnqueueResponse acknowledges a visualization request. Cached outfits
// answer with JobID "cached" and status complete without enqueueing.
type EnqueueResponse struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	EstimatedTime    int        `json:"estimated_time,omitempty"` // seconds
	VisualizationURL *string    `json:"visualization_url,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// CachedJobID marks an enqueue answered from the outfit's stored
// visualization instead of a new job.
const CachedJobID = "cached"
