package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	referenceResultsPerQuery = 3
	maxReferenceResults      = 5
)

var ErrCatalogueDisabled = errors.New("course catalogue retrieval is not configured")

// CourseCatalogue supplies reference course material for prompts.
type CourseCatalogue interface {
	// ReferenceCourses returns a formatted context block for the given
	// queries, or "" when nothing relevant is found or retrieval fails.
	ReferenceCourses(ctx context.Context, queries ...string) string
	// Ingest replaces the indexed chunks of one catalogue PDF and returns the
	// number of chunks stored.
	Ingest(ctx context.Context, path string) (int, error)
}

type courseCatalogue struct {
	qdrant   QdrantService
	embedder Embedder
	parser   PDFParserService
	log      *zap.Logger
}

func NewCourseCatalogue(qdrant QdrantService, embedder Embedder, parser PDFParserService, log *zap.Logger) CourseCatalogue {
	if log == nil {
		log = zap.NewNop()
	}
	return &courseCatalogue{
		qdrant:   qdrant,
		embedder: embedder,
		parser:   parser,
		log:      log.With(zap.String("component", "catalogue")),
	}
}

func (c *courseCatalogue) ReferenceCourses(ctx context.Context, queries ...string) string {
	var cleaned []string
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	found := make([][]SearchResult, len(cleaned))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, query := range cleaned {
		g.Go(func() error {
			embedding, err := c.embedder.Embed(gctx, query)
			if err != nil {
				return fmt.Errorf("failed to embed query: %w", err)
			}
			results, err := c.qdrant.SearchSimilar(gctx, embedding, DocTypeCourseCatalog, referenceResultsPerQuery)
			if err != nil {
				return err
			}
			found[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.log.Warn("reference course retrieval failed", zap.Error(err))
		return ""
	}

	return FormatReferenceCourses(mergeResults(found, maxReferenceResults))
}

func (c *courseCatalogue) Ingest(ctx context.Context, path string) (int, error) {
	content, err := c.parser.Extract(path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	chunks := ChunkText(content.Text, defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, ErrNoPDFText
	}

	if err := c.qdrant.DeleteSource(ctx, source); err != nil {
		return 0, err
	}

	stored := 0
	for i, chunk := range chunks {
		embedding, err := c.embedder.Embed(ctx, chunk)
		if err != nil {
			c.log.Warn("failed to embed chunk", zap.String("source", source), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		if err := c.qdrant.UpsertChunk(ctx, source, DocTypeCourseCatalog, chunk, embedding); err != nil {
			c.log.Warn("failed to store chunk", zap.String("source", source), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		stored++
	}

	c.log.Info("catalogue document ingested",
		zap.String("source", source),
		zap.Int("pages", content.PageCount),
		zap.Int("chunks", len(chunks)),
		zap.Int("stored", stored),
	)

	if stored == 0 {
		return 0, fmt.Errorf("failed to store any chunk of %s", source)
	}
	return stored, nil
}

// mergeResults flattens per-query results, drops repeated texts and keeps the
// highest scoring limit entries.
func mergeResults(groups [][]SearchResult, limit int) []SearchResult {
	seen := make(map[string]struct{})
	var merged []SearchResult
	for _, group := range groups {
		for _, r := range group {
			key := strings.TrimSpace(r.Text)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func FormatReferenceCourses(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		header := fmt.Sprintf("--- Reference %d", i+1)
		if r.Source != "" {
			header += " (" + r.Source + ")"
		}
		parts = append(parts, header+" ---\n"+strings.TrimSpace(r.Text))
	}
	return strings.Join(parts, "\n\n")
}

type noopCatalogue struct{}

// NewNoopCatalogue is used when no vector store is configured.
func NewNoopCatalogue() CourseCatalogue { return noopCatalogue{} }

func (noopCatalogue) ReferenceCourses(context.Context, ...string) string { return "" }

func (noopCatalogue) Ingest(context.Context, string) (int, error) {
	return 0, ErrCatalogueDisabled
}
