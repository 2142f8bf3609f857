package e2e

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"

	"github.com/styledna/api/internal/auth"
	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/config"
	"github.com/styledna/api/internal/handler"
	"github.com/styledna/api/internal/middleware"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testUserID    = "test-user-123"
)

// fakeEnqueuer records tasks instead of pushing them to Redis. No worker
// runs in these tests; job records stay queued until a test drives them.
type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	return &asynq.TaskInfo{ID: "t1", Queue: "visualize", Type: task.Type()}, nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// testApp holds all components needed for testing
type testApp struct {
	app           *fiber.App
	blobs         *store.MemoryBlobs
	jobs          *store.MemoryJobStore
	enqueuer      *fakeEnqueuer
	outfits       *service.OutfitService
	visualization *service.VisualizationService
}

// setupApp creates a Fiber app identical to main.go but with in-memory
// stores, a fake queue, and unconfigured external clients. This triggers
// mock/fallback responses in all services, and the suite needs neither
// Redis nor provider keys. Rate limiting lives in Redis and is left off.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	logg := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()

	// External clients — all unconfigured so services use mock fallbacks
	openaiClient := client.NewOpenAIClient(&config.OpenAIConfig{})
	fashnClient := client.NewFashnClient(&config.FashnConfig{}, logg)
	twilioClient := client.NewTwilioClient(&config.TwilioConfig{})

	// Stores
	blobs := store.NewMemoryBlobs()
	jobStore := store.NewMemoryJobStore()
	activityStore := store.NewMemoryActivityStore()
	phoneDirectory := store.NewMemoryPhoneDirectory()
	profileStore := store.NewBlobProfileStore(blobs)
	wardrobeStore := store.NewBlobWardrobeStore(blobs)
	consideringStore := store.NewBlobConsiderationStore(blobs)
	outfitStore := store.NewBlobOutfitStore(blobs)

	// Services
	activityService, err := service.NewActivityService(activityStore, "UTC", logg)
	if err != nil {
		t.Fatalf("failed to create activity service: %v", err)
	}
	matcherService := service.NewMatcherService(wardrobeStore, consideringStore)
	profileService := service.NewProfileService(profileStore, phoneDirectory, activityService, logg)
	wardrobeService := service.NewWardrobeService(wardrobeStore, blobs, activityService, logg)
	consideringService := service.NewConsiderationService(consideringStore, wardrobeStore, activityService)
	outfitService := service.NewOutfitService(openaiClient, profileStore, wardrobeStore, consideringStore, outfitStore, matcherService, activityService)
	enqueuer := &fakeEnqueuer{}
	visualizationService := service.NewVisualizationService(jobStore, outfitStore, profileStore, enqueuer, activityService, config.VisualizationConfig{})
	smsService := service.NewSMSService(outfitService, profileService, activityService, twilioClient, logg)

	// Handlers
	jobHandler := handler.NewJobHandler(visualizationService)
	visualizationHandler := handler.NewVisualizationHandler(visualizationService, validate)
	outfitHandler := handler.NewOutfitHandler(outfitService, validate)
	wardrobeHandler := handler.NewWardrobeHandler(wardrobeService, validate)
	consideringHandler := handler.NewConsideringHandler(consideringService, validate)
	profileHandler := handler.NewProfileHandler(profileService, validate)
	activityHandler := handler.NewActivityHandler(activityService)
	smsHandler := handler.NewSMSHandler(smsService, twilioClient, "")

	// Auth handler (for /auth/verify)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{"code": "SERVICE_ERROR", "message": message},
			})
		},
		BodyLimit: 50 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"llm":     openaiClient.IsConfigured(),
				"fashn":   fashnClient.IsConfigured(),
				"storage": false,
				"twilio":  twilioClient.IsConfigured(),
				"auth":    true,
			},
		})
	})
	app.Get("/auth/verify", authHandler.Verify)
	app.Post("/sms/webhook", smsHandler.Webhook)

	// API routes (authenticated)
	api := app.Group("/api", authMiddleware.Authenticate())

	api.Get("/jobs/:jobId", jobHandler.Status)

	api.Get("/profile", profileHandler.Get)
	api.Put("/profile", profileHandler.Update)

	wardrobe := api.Group("/wardrobe")
	wardrobe.Get("/", wardrobeHandler.List)
	wardrobe.Post("/", wardrobeHandler.Add)
	wardrobe.Put("/:id", wardrobeHandler.Update)
	wardrobe.Delete("/:id", wardrobeHandler.Remove)
	wardrobe.Post("/:id/wear", wardrobeHandler.Wear)
	wardrobe.Post("/:id/image", wardrobeHandler.UploadImage)

	considering := api.Group("/considering")
	considering.Get("/", consideringHandler.List)
	considering.Post("/", consideringHandler.Add)
	considering.Delete("/:id", consideringHandler.Remove)
	considering.Post("/:id/promote", consideringHandler.Promote)

	outfits := api.Group("/outfits")
	outfits.Post("/generate", outfitHandler.Generate)
	outfits.Get("/", outfitHandler.List)
	outfits.Get("/:id", outfitHandler.Get)
	outfits.Post("/:id/dislike", outfitHandler.Dislike)

	api.Post("/visualization/generate", visualizationHandler.Generate)

	api.Get("/activity", activityHandler.Get)

	return &testApp{
		app:           app,
		blobs:         blobs,
		jobs:          jobStore,
		enqueuer:      enqueuer,
		outfits:       outfitService,
		visualization: visualizationService,
	}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: testUserID,
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "styledna-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// doFormRequest performs a form-encoded POST, the shape Twilio webhooks use.
func doFormRequest(app *fiber.App, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// errorCode extracts the error.code field from an error envelope.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	result := parseJSON(t, resp)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %v", result)
	}
	code, _ := errObj["code"].(string)
	return code
}
