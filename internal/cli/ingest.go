package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"certcy/career-api/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <pdf>...",
	Short: "Index course catalogue PDFs into the vector store",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ingest(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func ingest(ctx context.Context, paths []string) {
	log, cfg := setup()
	defer log.Sync()

	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY is required for embeddings")
	}
	if cfg.Qdrant.URL == "" {
		log.Fatal("QDRANT_URL is required for ingestion")
	}

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini, cfg.Generation, log)
	if err != nil {
		log.Fatal("failed to initialize Gemini", zap.Error(err))
	}

	qdrant, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("failed to initialize Qdrant", zap.Error(err))
	}
	defer qdrant.Close()

	if err := qdrant.InitCollection(ctx); err != nil {
		log.Fatal("failed to initialize collection", zap.Error(err))
	}

	catalogue := services.NewCourseCatalogue(qdrant, gemini, services.NewPDFParserService(), log)

	succeeded, failed := 0, 0
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Warn("file not found, skipping", zap.String("path", path))
			failed++
			continue
		}

		stored, err := catalogue.Ingest(ctx, path)
		if err != nil {
			log.Error("failed to ingest document", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}

		log.Info("document ingested", zap.String("path", path), zap.Int("chunks", stored))
		succeeded++
	}

	log.Info("ingestion finished", zap.Int("succeeded", succeeded), zap.Int("failed", failed))
	if failed > 0 {
		log.Fatal("some documents failed to ingest")
	}
}
