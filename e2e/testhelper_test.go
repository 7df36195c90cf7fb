package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/auth"
	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/handler"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/internal/worker"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	store store.Store
}

// setupApp creates a Fiber app wired like main.go but on the in-memory
// store, with no Redis and with every external client unconfigured.
// Stages that need external services resolve as SKIPPED, so a full
// pipeline run completes without any network access.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development", LogLevel: "error"},
		JWT:    config.JWTConfig{Secret: testJWTSecret, Expiration: 24},
		Pipeline: config.PipelineConfig{
			StaleAfter:  120 * time.Second,
			PollDelay:   30 * time.Second,
			AutoAdvance: false, // advance manually via the endpoint
		},
		OpenAI: config.OpenAIConfig{
			MaxAudioSizeMB:   25,
			MaxTranscriptLen: 8000,
		},
		Resolver: config.ResolverConfig{
			YtDlpPath: "/nonexistent/yt-dlp", // unconfigured → fetch skipped
		},
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	st := store.NewMemoryStore()
	validate := validator.New()

	// External clients — all unconfigured, stages skip or fall back
	resolver := client.NewYtDlpResolver(&cfg.Resolver)
	aiClient := client.NewOpenAIClient(&cfg.OpenAI)
	vizardClient := client.NewVizardClient(&cfg.Vizard)
	posterClient := client.NewPosterClient(&cfg.Social)

	stages := pipeline.NewStages(pipeline.StagesDeps{
		Config:   cfg,
		Logger:   log,
		Store:    st,
		Resolver: resolver,
		AI:       aiClient,
		Clipper:  vizardClient,
		Poster:   posterClient,
	})
	controller := pipeline.NewController(cfg, log, st, stages, nil)

	assetHandler := handler.NewAssetHandler(cfg, st, controller, worker.NoopEnqueuer{}, validate)
	pipelineHandler := handler.NewPipelineHandler(controller)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret, 24*time.Hour)
	// Redis is not running on this address; the limiter fails open
	rateLimiter := middleware.NewRateLimiter(redis.NewClient(&redis.Options{Addr: "localhost:1"}))

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":    false,
				"resolver": false,
				"openai":   false,
				"vizard":   false,
				"storage":  false,
				"auth":     true,
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	assets := api.Group("/assets")
	assets.Post("/youtube", rateLimiter.IngestLimit(10000), assetHandler.IngestYouTube)
	assets.Get("/", assetHandler.List)
	assets.Get("/:assetId", assetHandler.Get)
	assets.Get("/:assetId/report", rateLimiter.ReportLimit(10000), assetHandler.Report)

	pipe := api.Group("/pipeline")
	pipe.Get("/:assetId/status", pipelineHandler.Status)
	pipe.Post("/:assetId/advance", rateLimiter.AdvanceLimit(10000), pipelineHandler.Advance)

	return &testApp{app: app, store: st}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.GenerateToken("test-user-123", "test@example.com", testJWTSecret, time.Hour)
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
