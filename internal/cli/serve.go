package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/handlers"
	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/repositories"
	"certcy/career-api/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on (overrides PORT)")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	log, cfg := setup()
	defer log.Sync()

	if port := viper.GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("config loaded", zap.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	profileRepo := repositories.NewOnboardingRepository(db)
	docRepo := repositories.NewResumeDocumentRepository(db)
	recRepo := repositories.NewRecommendationRepository(db)
	testRepo := repositories.NewTestRepository(db)
	roadmapRepo := repositories.NewRoadmapRepository(db)

	storage := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storage.EnsureUploadDir(); err != nil {
		log.Fatal("failed to create upload directory", zap.Error(err))
	}
	pdfParser := services.NewPDFParserService()

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini, cfg.Generation, log)
	if err != nil {
		log.Fatal("failed to initialize Gemini", zap.Error(err))
	}
	log.Info("gemini initialized", zap.String("model", gemini.Model()))

	cache := newRecommendationCache(ctx, cfg.Redis, log)
	defer cache.Close()

	catalogue, closeCatalogue := newCatalogue(ctx, cfg.Qdrant, gemini, pdfParser, log)
	defer closeCatalogue()

	timeout := cfg.Generation.Timeout
	onboarding := services.NewOnboardingService(profileRepo, docRepo, storage, pdfParser, log)

	h := handlers.Handlers{
		Recommendations: handlers.NewRecommendationHandler(
			services.NewRecommendationService(recRepo, onboarding, gemini, cache, timeout, log),
		),
		Tests: handlers.NewTestHandler(
			services.NewAssessmentService(testRepo, recRepo, onboarding, gemini, catalogue, timeout, log),
		),
		Roadmaps: handlers.NewRoadmapHandler(
			services.NewRoadmapService(roadmapRepo, testRepo, recRepo, onboarding, gemini, catalogue, timeout, log),
		),
		Onboarding: handlers.NewOnboardingHandler(onboarding),
		Chat: handlers.NewChatHandler(
			services.NewChatService(recRepo, onboarding, gemini, timeout, log),
		),
	}

	auth := middleware.NewAuthMiddleware(services.NewIdentityService(cfg.Auth), log)

	server := handlers.NewApp(cfg, log, true)
	handlers.RegisterRoutes(server, h, auth.RequireAuth())

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := server.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := server.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// newRecommendationCache connects to Redis when configured and falls back to
// a no-op cache otherwise.
func newRecommendationCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) services.RecommendationCache {
	if cfg.Addr == "" {
		log.Info("redis not configured, recommendation cache disabled")
		return services.NewNoopRecommendationCache()
	}

	cache, err := services.NewRedisRecommendationCache(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, recommendation cache disabled", zap.Error(err))
		return services.NewNoopRecommendationCache()
	}

	log.Info("redis recommendation cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return cache
}

// newCatalogue wires course catalogue retrieval when Qdrant is configured.
func newCatalogue(
	ctx context.Context,
	cfg config.QdrantConfig,
	embedder services.Embedder,
	parser services.PDFParserService,
	log *zap.Logger,
) (services.CourseCatalogue, func()) {
	if cfg.URL == "" {
		log.Info("qdrant not configured, reference courses disabled")
		return services.NewNoopCatalogue(), func() {}
	}

	qdrant, err := services.NewQdrantService(cfg.URL, cfg.APIKey, cfg.Collection, log)
	if err != nil {
		log.Warn("qdrant unavailable, reference courses disabled", zap.Error(err))
		return services.NewNoopCatalogue(), func() {}
	}

	if err := qdrant.InitCollection(ctx); err != nil {
		log.Warn("failed to initialize qdrant collection, reference courses disabled", zap.Error(err))
		_ = qdrant.Close()
		return services.NewNoopCatalogue(), func() {}
	}

	log.Info("qdrant initialized", zap.String("collection", cfg.Collection))
	return services.NewCourseCatalogue(qdrant, embedder, parser, log), func() { _ = qdrant.Close() }
}
