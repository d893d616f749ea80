package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"certcy/career-api/internal/config"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Recommendations *RecommendationHandler
	Tests           *TestHandler
	Roadmaps        *RoadmapHandler
	Onboarding      *OnboardingHandler
	Chat            *ChatHandler
}

// NewApp builds the fiber application with the shared middleware stack and
// error handler. Access logs are skipped when accessLog is false.
func NewApp(cfg *config.Config, log *zap.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Certcy Career API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Generation.Timeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: NewErrorHandler(log),
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigin,
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	return app
}

// RegisterRoutes mounts the API. Everything except /health requires auth.
func RegisterRoutes(app *fiber.App, h Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	secured := api.Group("", requireAuth)

	secured.Get("/recommendations", h.Recommendations.HandleGetRecommendations)

	secured.Post("/tests", h.Tests.HandleCreateTest)
	secured.Get("/tests", h.Tests.HandleGetTests)
	secured.Post("/tests/submit", h.Tests.HandleSubmitTest)
	secured.Post("/tests/select", h.Tests.HandleSelectCourse)

	secured.Get("/roadmap", h.Roadmaps.HandleGetRoadmap)
	secured.Patch("/roadmap", h.Roadmaps.HandleUpdateRoadmap)
	secured.Post("/roadmap/pivot", h.Roadmaps.HandleSetPivot)
	secured.Get("/roadmap/pivot", h.Roadmaps.HandleGetPivot)

	secured.Post("/onboarding", h.Onboarding.HandleSubmit)
	secured.Get("/onboarding", h.Onboarding.HandleGetLatest)
	secured.Post("/onboarding/resume", h.Onboarding.HandleUploadResume)

	secured.Post("/chat", h.Chat.HandleChat)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Certcy Career API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/recommendations",
				"POST /api/v1/tests",
				"GET /api/v1/tests",
				"POST /api/v1/tests/submit",
				"POST /api/v1/tests/select",
				"GET /api/v1/roadmap",
				"PATCH /api/v1/roadmap",
				"POST /api/v1/roadmap/pivot",
				"GET /api/v1/roadmap/pivot",
				"POST /api/v1/onboarding",
				"GET /api/v1/onboarding",
				"POST /api/v1/onboarding/resume",
				"POST /api/v1/chat",
			},
		})
	})
}
