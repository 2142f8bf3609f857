package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/config"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
	ws "github.com/styledna/api/internal/websocket"
)

type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{}, nil
}

type fakeGenerator struct {
	name       string
	configured bool
	result     *client.VisualizeResult
	err        error
	gotReq     *client.VisualizeRequest
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Visualize(ctx context.Context, req *client.VisualizeRequest) (*client.VisualizeResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGenerator) IsConfigured() bool { return f.configured }

type workerFixture struct {
	worker    *VisualizeWorker
	generator *fakeGenerator
	blobs     *store.MemoryBlobs
	jobs      *store.MemoryJobStore
	outfits   store.OutfitStore
	profiles  store.ProfileStore
	activity  *service.ActivityService
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	blobs := store.NewMemoryBlobs()
	jobs := store.NewMemoryJobStore()
	outfitStore := store.NewBlobOutfitStore(blobs)
	profileStore := store.NewBlobProfileStore(blobs)
	wardrobeStore := store.NewBlobWardrobeStore(blobs)
	consideringStore := store.NewBlobConsiderationStore(blobs)

	activity, err := service.NewActivityService(store.NewMemoryActivityStore(), "UTC", logger)
	require.NoError(t, err)

	visualization := service.NewVisualizationService(jobs, outfitStore, profileStore, noopEnqueuer{}, activity, config.VisualizationConfig{})
	matcher := service.NewMatcherService(wardrobeStore, consideringStore)
	outfits := service.NewOutfitService(nil, profileStore, wardrobeStore, consideringStore, outfitStore, matcher, activity)

	generator := &fakeGenerator{name: "fake", configured: true}
	registry := client.NewVisualizerRegistry("fake")
	registry.Register(generator)

	hub := ws.NewHub(logger)
	go hub.Run()

	return &workerFixture{
		worker:    NewVisualizeWorker(visualization, outfits, profileStore, registry, blobs, activity, hub, logger),
		generator: generator,
		blobs:     blobs,
		jobs:      jobs,
		outfits:   outfitStore,
		profiles:  profileStore,
		activity:  activity,
	}
}

func (fx *workerFixture) seed(t *testing.T, descriptor string) (jobID string, outfit *model.Outfit) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, fx.profiles.Save(ctx, &model.Profile{
		UserID:                  "u1",
		VisualizationDescriptor: descriptor,
	}))

	outfit = &model.Outfit{
		ID:     uuid.New().String(),
		UserID: "u1",
		Items: []model.OutfitItem{
			{MatchResult: model.MatchResult{Name: "white tee", Category: model.CategoryTops}},
			{MatchResult: model.MatchResult{Name: "dark jeans", Category: model.CategoryBottoms}},
		},
		StylingNotes: "Keep it simple.",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, fx.outfits.Save(ctx, outfit))

	jobID = uuid.New().String()
	require.NoError(t, fx.jobs.Save(ctx, &model.Job{
		ID:        jobID,
		Type:      model.JobTypeVisualize,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now(),
	}))
	return jobID, outfit
}

func buildTask(t *testing.T, jobID string, payload *model.VisualizeJobPayload) *asynq.Task {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(map[string]any{
		"jobId":   jobID,
		"payload": json.RawMessage(inner),
	})
	require.NoError(t, err)
	return asynq.NewTask(service.TaskTypeVisualize, envelope)
}

func (fx *workerFixture) jobResult(t *testing.T, jobID string) *model.VisualizationResult {
	t.Helper()
	job, err := fx.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusSucceeded, job.Status)

	var result model.VisualizationResult
	require.NoError(t, json.Unmarshal(job.Result, &result))
	return &result
}

func (fx *workerFixture) jobError(t *testing.T, jobID string) string {
	t.Helper()
	job, err := fx.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.Error)
	return *job.Error
}

func TestProcessTask_UploadsProviderBytes(t *testing.T) {
	ctx := context.Background()
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall, short dark hair")
	fx.generator.result = &client.VisualizeResult{
		Image:    []byte("fake-png-bytes"),
		Metadata: map[string]string{"model": "test-1"},
	}

	err := fx.worker.ProcessTask(ctx, buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.NoError(t, err)

	result := fx.jobResult(t, jobID)
	assert.True(t, result.Success)
	assert.Equal(t, "fake", result.Provider)
	assert.Equal(t, "test-1", result.Metadata["model"])
	assert.True(t, strings.HasPrefix(result.ImageURL, "https://storage.local/visualizations/u1/"+outfit.ID+"/"),
		"got %s", result.ImageURL)

	keys, err := fx.blobs.List(ctx, "visualizations/u1/"+outfit.ID+"/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	saved, err := fx.outfits.Get(ctx, "u1", outfit.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.VisualizationURL)
	assert.Equal(t, result.ImageURL, *saved.VisualizationURL)

	require.NotNil(t, fx.generator.gotReq)
	assert.Equal(t, "tall, short dark hair", fx.generator.gotReq.PersonDescriptor)
	assert.Contains(t, fx.generator.gotReq.OutfitPrompt, "white tee (tops)")
	assert.Contains(t, fx.generator.gotReq.OutfitPrompt, "Keep it simple.")
}

func TestProcessTask_ProviderHostedURL(t *testing.T) {
	ctx := context.Background()
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall")
	fx.generator.result = &client.VisualizeResult{ImageURL: "https://provider.example.com/img.png"}

	err := fx.worker.ProcessTask(ctx, buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.NoError(t, err)

	result := fx.jobResult(t, jobID)
	assert.Equal(t, "https://provider.example.com/img.png", result.ImageURL)

	keys, err := fx.blobs.List(ctx, "visualizations/")
	require.NoError(t, err)
	assert.Empty(t, keys, "hosted URLs skip the upload")
}

func TestProcessTask_ProviderFailure(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall")
	fx.generator.err = assert.AnError

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	assert.Contains(t, fx.jobError(t, jobID), "Visualization failed")
}

func TestProcessTask_ProviderReturnsNothing(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall")
	fx.generator.result = &client.VisualizeResult{}

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.Error(t, err)

	assert.Equal(t, "Provider returned no image", fx.jobError(t, jobID))
}

func TestProcessTask_MissingDescriptor(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "")

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "re-running cannot fix an empty profile")

	assert.Contains(t, fx.jobError(t, jobID), "appearance description")
}

func TestProcessTask_OutfitNotFound(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, _ := fx.seed(t, "tall")

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: "missing"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Contains(t, fx.jobError(t, jobID), "not found")
}

func TestProcessTask_UnknownProvider(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall")

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{
		UserID:   "u1",
		OutfitID: outfit.ID,
		Provider: "nope",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Contains(t, fx.jobError(t, jobID), "unknown visualization provider")
}

func TestProcessTask_MockWhenUnconfigured(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, outfit := fx.seed(t, "tall")
	fx.generator.configured = false

	err := fx.worker.ProcessTask(context.Background(), buildTask(t, jobID, &model.VisualizeJobPayload{UserID: "u1", OutfitID: outfit.ID}))
	require.NoError(t, err)

	result := fx.jobResult(t, jobID)
	assert.Equal(t, "mock", result.Provider)
	assert.True(t, strings.HasPrefix(result.ImageURL, "https://storage.local/visualizations/"), "got %s", result.ImageURL)
	assert.Nil(t, fx.generator.gotReq, "mock path never calls the provider")
}

func TestProcessTask_BadInnerPayload(t *testing.T) {
	fx := newWorkerFixture(t)
	jobID, _ := fx.seed(t, "tall")

	envelope, err := json.Marshal(map[string]any{"jobId": jobID, "payload": "zzz"})
	require.NoError(t, err)

	err = fx.worker.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeVisualize, envelope))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Equal(t, "Invalid payload", fx.jobError(t, jobID))
}

func TestProcessTask_MalformedEnvelope(t *testing.T) {
	fx := newWorkerFixture(t)

	err := fx.worker.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeVisualize, []byte("not json")))
	assert.Error(t, err)
}

func TestBuildOutfitPrompt(t *testing.T) {
	outfit := &model.Outfit{
		Items: []model.OutfitItem{
			{MatchResult: model.MatchResult{Name: "white tee", Category: model.CategoryTops}},
			{MatchResult: model.MatchResult{Name: "mystery piece"}},
		},
		StylingNotes: "Roll the sleeves.",
	}

	got := buildOutfitPrompt(outfit)
	assert.Equal(t, "white tee (tops), mystery piece. Styling: Roll the sleeves.", got)
}

func TestCollectItemImages(t *testing.T) {
	url1 := "https://cdn.example.com/1.jpg"
	url2 := "https://cdn.example.com/2.jpg"
	outfit := &model.Outfit{
		Items: []model.OutfitItem{
			{MatchResult: model.MatchResult{Name: "a", Matched: true, ImageURL: &url1}},
			{MatchResult: model.MatchResult{Name: "b", Matched: false, ImageURL: &url2}},
			{MatchResult: model.MatchResult{Name: "c", Matched: true}},
		},
	}

	assert.Equal(t, []string{url1}, collectItemImages(outfit))
}
