package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
	"github.com/styledna/api/internal/websocket"
)

// VisualizeWorker renders outfit visualizations. Every error path
// writes its message into the job record before returning, so polling
// clients always see why a job died.
type VisualizeWorker struct {
	visualization *service.VisualizationService
	outfits       *service.OutfitService
	profiles      store.ProfileStore
	registry      *client.VisualizerRegistry
	blobs         client.StorageClient
	activity      *service.ActivityService
	hub           *websocket.Hub
	logger        *slog.Logger
}

// NewVisualizeWorker creates a new visualization worker
func NewVisualizeWorker(
	visualization *service.VisualizationService,
	outfits *service.OutfitService,
	profiles store.ProfileStore,
	registry *client.VisualizerRegistry,
	blobs client.StorageClient,
	activity *service.ActivityService,
	hub *websocket.Hub,
	logger *slog.Logger,
) *VisualizeWorker {
	return &VisualizeWorker{
		visualization: visualization,
		outfits:       outfits,
		profiles:      profiles,
		registry:      registry,
		blobs:         blobs,
		activity:      activity,
		hub:           hub,
		logger:        logger,
	}
}

// ProcessTask handles one visualization task.
func (w *VisualizeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	w.logger.Info("starting visualization job", "job_id", jobID)

	var payload model.VisualizeJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal visualize payload: %w", asynq.SkipRetry)
	}

	// Preconditions. These fail the job with a message the user can act
	// on, wrapped in SkipRetry: re-running won't fix an empty profile.
	w.updateProgress(ctx, jobID, 10, "Loading profile...")
	profile, err := w.profiles.Get(ctx, payload.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		w.failJob(ctx, jobID, "Failed to load profile")
		return err
	}
	if !profile.CanVisualize() {
		msg := "Profile has no appearance description; add one and try again"
		w.failJob(ctx, jobID, msg)
		return fmt.Errorf("%s: %w", msg, asynq.SkipRetry)
	}

	w.updateProgress(ctx, jobID, 20, "Loading outfit...")
	outfit, err := w.outfits.Get(ctx, payload.UserID, payload.OutfitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			msg := fmt.Sprintf("Outfit %s not found", payload.OutfitID)
			w.failJob(ctx, jobID, msg)
			return fmt.Errorf("%s: %w", msg, asynq.SkipRetry)
		}
		w.failJob(ctx, jobID, "Failed to load outfit")
		return err
	}

	generator, err := w.registry.Resolve(payload.Provider)
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if !generator.IsConfigured() {
		return w.processWithMock(ctx, jobID, &payload, outfit)
	}

	return w.processWithProvider(ctx, jobID, &payload, profile, outfit, generator)
}

// processWithProvider runs the real image generation end to end.
func (w *VisualizeWorker) processWithProvider(ctx context.Context, jobID string, payload *model.VisualizeJobPayload, profile *model.Profile, outfit *model.Outfit, generator client.ImageGenerator) error {
	w.updateProgress(ctx, jobID, 30, "Generating visualization...")

	visReq := &client.VisualizeRequest{
		PersonDescriptor: profile.VisualizationDescriptor,
		OutfitPrompt:     buildOutfitPrompt(outfit),
		ItemImageURLs:    collectItemImages(outfit),
	}

	start := time.Now()
	visResult, err := generator.Visualize(ctx, visReq)
	if err != nil {
		w.failJob(ctx, jobID, fmt.Sprintf("Visualization failed: %v", err))
		return err
	}
	elapsed := time.Since(start)

	imageURL := visResult.ImageURL
	if len(visResult.Image) > 0 {
		w.updateProgress(ctx, jobID, 90, "Uploading image...")
		key := visualizationKey(payload.UserID, payload.OutfitID)
		url, err := w.blobs.Upload(ctx, key, bytes.NewReader(visResult.Image), "image/png")
		if err != nil {
			w.failJob(ctx, jobID, "Image upload failed")
			return err
		}
		imageURL = url
	}
	if imageURL == "" {
		msg := "Provider returned no image"
		w.failJob(ctx, jobID, msg)
		return fmt.Errorf("%s", msg)
	}

	result := &model.VisualizationResult{
		Success:        true,
		ImageURL:       imageURL,
		GenerationTime: elapsed.Seconds(),
		Provider:       generator.Name(),
		Metadata:       visResult.Metadata,
	}

	return w.finishJob(ctx, jobID, payload, result)
}

// processWithMock fakes generation for development without provider
// keys: staged progress, then a public URL for the would-be object.
func (w *VisualizeWorker) processWithMock(ctx context.Context, jobID string, payload *model.VisualizeJobPayload, outfit *model.Outfit) error {
	steps := []struct {
		progress int
		step     string
	}{
		{30, "Generating visualization..."},
		{60, "Rendering garments..."},
		{90, "Uploading image..."},
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			w.logger.Info("visualization job cancelled", "job_id", jobID)
			return ctx.Err()
		default:
		}

		w.updateProgress(ctx, jobID, step.progress, step.step)
		time.Sleep(200 * time.Millisecond)
	}

	result := &model.VisualizationResult{
		Success:        true,
		ImageURL:       w.blobs.GetPublicURL(visualizationKey(payload.UserID, payload.OutfitID)),
		GenerationTime: 0.6,
		Provider:       "mock",
	}

	return w.finishJob(ctx, jobID, payload, result)
}

// finishJob persists the result, caches the URL on the outfit, and
// notifies listeners.
func (w *VisualizeWorker) finishJob(ctx context.Context, jobID string, payload *model.VisualizeJobPayload, result *model.VisualizationResult) error {
	if err := w.outfits.AttachVisualization(ctx, payload.UserID, payload.OutfitID, result.ImageURL); err != nil {
		// The image exists and the job result carries its URL; a stale
		// cache only costs a regeneration later.
		w.logger.Warn("failed to cache visualization on outfit", "job_id", jobID, "error", err)
	}

	if err := w.visualization.CompleteJob(ctx, jobID, result); err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	w.activity.Log(ctx, payload.UserID, model.ActionVisualizationComplete, map[string]any{
		"job_id":          jobID,
		"outfit_id":       payload.OutfitID,
		"provider":        result.Provider,
		"generation_time": result.GenerationTime,
	})

	w.hub.BroadcastComplete(jobID, result)
	w.logger.Info("visualization job completed", "job_id", jobID, "provider", result.Provider)
	return nil
}

func (w *VisualizeWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.visualization.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		w.logger.Warn("failed to update progress", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *VisualizeWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.visualization.FailJob(ctx, jobID, errMsg); err != nil {
		w.logger.Error("failed to mark job as failed", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastError(jobID, "VISUALIZATION_FAILED", errMsg)
}

// visualizationKey is where a rendered image lands in the blob store.
// A fresh UUID per render keeps regenerated images from overwriting
// CDN-cached predecessors.
func visualizationKey(userID, outfitID string) string {
	return fmt.Sprintf("visualizations/%s/%s/%s.png", userID, outfitID, uuid.New().String())
}

// buildOutfitPrompt flattens an outfit into the provider prompt.
func buildOutfitPrompt(outfit *model.Outfit) string {
	parts := make([]string, 0, len(outfit.Items))
	for _, item := range outfit.Items {
		if item.Category != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", item.Name, item.Category))
		} else {
			parts = append(parts, item.Name)
		}
	}

	prompt := strings.Join(parts, ", ")
	if outfit.StylingNotes != "" {
		prompt += ". Styling: " + outfit.StylingNotes
	}
	return prompt
}

// collectItemImages gathers stored garment photos for providers that
// support reference images.
func collectItemImages(outfit *model.Outfit) []string {
	var urls []string
	for _, item := range outfit.Items {
		if item.Matched && item.ImageURL != nil && *item.ImageURL != "" {
			urls = append(urls, *item.ImageURL)
		}
	}
	return urls
}
