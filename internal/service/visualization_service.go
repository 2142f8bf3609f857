package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/styledna/api/internal/config"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

const TaskTypeVisualize = "visualize:outfit"

// Enqueuer is the slice of asynq.Client the visualization service uses.
// Tests substitute a fake; production passes the shared client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// VisualizationService manages visualization job records and their
// queue lifecycle. Job records live in Redis; the broker owns execution.
type VisualizationService struct {
	jobs     store.JobStore
	outfits  store.OutfitStore
	profiles store.ProfileStore
	enqueuer Enqueuer
	activity *ActivityService
	cfg      config.VisualizationConfig
}

// NewVisualizationService creates a visualization service.
func NewVisualizationService(
	jobs store.JobStore,
	outfits store.OutfitStore,
	profiles store.ProfileStore,
	enqueuer Enqueuer,
	activity *ActivityService,
	cfg config.VisualizationConfig,
) *VisualizationService {
	return &VisualizationService{
		jobs:     jobs,
		outfits:  outfits,
		profiles: profiles,
		enqueuer: enqueuer,
		activity: activity,
		cfg:      cfg,
	}
}

// StartVisualization checks preconditions, answers from the outfit's
// cached visualization when one exists, and otherwise queues a new job.
//
// The cache check is read-before-enqueue: two concurrent un-forced
// requests for the same outfit may both enqueue. Accepted; the second
// render just overwrites the URL.
func (s *VisualizationService) StartVisualization(ctx context.Context, userID string, req *model.GenerateVisualizationRequest) (*model.EnqueueResponse, error) {
	outfit, err := s.outfits.Get(ctx, userID, req.OutfitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load outfit: %w", err)
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.CanVisualize() {
		return nil, fmt.Errorf("%w: add an appearance description to your profile first", ErrMissingDescriptor)
	}

	if outfit.VisualizationURL != nil && *outfit.VisualizationURL != "" && !req.ForceRegenerate {
		return &model.EnqueueResponse{
			JobID:            model.CachedJobID,
			Status:           model.PollStatusComplete,
			VisualizationURL: outfit.VisualizationURL,
		}, nil
	}

	jobID := uuid.New().String()
	now := time.Now()

	payload := &model.VisualizeJobPayload{
		UserID:   userID,
		OutfitID: req.OutfitID,
		Provider: req.Provider,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeVisualize,
		Status:    model.JobStatusQueued,
		Progress:  0,
		Payload:   payloadBytes,
		CreatedAt: now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newVisualizeTask(jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// No automatic retries: a failed visualization is terminal and a
	// retry is a new request. The broker kills tasks past the timeout.
	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue("visualize"),
		asynq.MaxRetry(0),
		asynq.Timeout(s.taskTimeout()),
		asynq.Retention(s.retention()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionVisualizationStarted, map[string]any{
		"job_id":    jobID,
		"outfit_id": req.OutfitID,
		"provider":  req.Provider,
		"forced":    req.ForceRegenerate,
	})

	return &model.EnqueueResponse{
		JobID:         jobID,
		Status:        string(model.JobStatusQueued),
		EstimatedTime: s.estimatedTime(),
		CreatedAt:     &now,
	}, nil
}

// GetJobStatus returns the normalized poll shape for a job.
func (s *VisualizationService) GetJobStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job.StatusResponse(), nil
}

// UpdateJobProgress updates job progress (called by worker)
func (s *VisualizationService) UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.jobs.Save(ctx, job)
}

// CompleteJob marks job as succeeded with its result (called by worker)
func (s *VisualizationService) CompleteJob(ctx context.Context, jobID string, result any) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Progress = 100
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now

	return s.jobs.Save(ctx, job)
}

// FailJob marks job as failed (called by worker). Polling clients see
// the stored message verbatim.
func (s *VisualizationService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.jobs.Save(ctx, job)
}

func (s *VisualizationService) taskTimeout() time.Duration {
	if s.cfg.JobTimeout <= 0 {
		return 120 * time.Second
	}
	return time.Duration(s.cfg.JobTimeout) * time.Second
}

func (s *VisualizationService) retention() time.Duration {
	if s.cfg.RetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.cfg.RetentionHours) * time.Hour
}

func (s *VisualizationService) estimatedTime() int {
	if s.cfg.EstimatedTime <= 0 {
		return 30
	}
	return s.cfg.EstimatedTime
}

func newVisualizeTask(jobID string, payload []byte) (*asynq.Task, error) {
	// RawMessage keeps the inner payload a JSON object; a plain []byte
	// would marshal to base64 and break the worker's decode.
	taskPayload := map[string]any{
		"jobId":   jobID,
		"payload": json.RawMessage(payload),
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVisualize, data), nil
}
