package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"certcy/career-api/internal/models"
)

type generatorCall struct {
	system string
	prompt string
	opts   CompleteOptions
}

// stubGenerator replays queued responses in order.
type stubGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []generatorCall
}

func newStubGenerator(responses ...string) *stubGenerator {
	return &stubGenerator{responses: responses}
}

func (g *stubGenerator) failWith(err error) *stubGenerator {
	g.errs = append(g.errs, err)
	return g
}

func (g *stubGenerator) Complete(ctx context.Context, system, prompt string, opts CompleteOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generatorCall{system: system, prompt: prompt, opts: opts})

	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return "", err
	}
	if len(g.responses) == 0 {
		return "", errors.New("unexpected generator call")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func (g *stubGenerator) Model() string { return "stub-model" }

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *stubGenerator) lastCall() generatorCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return generatorCall{}
	}
	return g.calls[len(g.calls)-1]
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]models.CareerRecommendation
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[uuid.UUID][]models.CareerRecommendation)}
}

func (c *memoryCache) Get(_ context.Context, userID uuid.UUID) ([]models.CareerRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[userID], nil
}

func (c *memoryCache) Set(_ context.Context, userID uuid.UUID, recs []models.CareerRecommendation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = append([]models.CareerRecommendation(nil), recs...)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.deletes++
	return nil
}

func (c *memoryCache) Close() error { return nil }

type staticCatalogue struct {
	context string
	queries []string
}

func (c *staticCatalogue) ReferenceCourses(_ context.Context, queries ...string) string {
	c.queries = append(c.queries, queries...)
	return c.context
}

func (c *staticCatalogue) Ingest(context.Context, string) (int, error) { return 0, ErrCatalogueDisabled }

type fakeEmbedder struct {
	err error
}

func (e fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeQdrant struct {
	mu        sync.Mutex
	results   map[float32][]SearchResult
	searchErr error
	upserts   []string
	deleted   []string
}

func (q *fakeQdrant) InitCollection(context.Context) error { return nil }

func (q *fakeQdrant) UpsertChunk(_ context.Context, source, docType, text string, _ []float32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.upserts = append(q.upserts, source+"|"+docType+"|"+text)
	return nil
}

func (q *fakeQdrant) SearchSimilar(_ context.Context, embedding []float32, docType string, _ int) ([]SearchResult, error) {
	if q.searchErr != nil {
		return nil, q.searchErr
	}
	if docType != DocTypeCourseCatalog {
		return nil, errors.New("unexpected doc type " + docType)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.results[embedding[0]], nil
}

func (q *fakeQdrant) DeleteSource(_ context.Context, source string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, source)
	return nil
}

func (q *fakeQdrant) Close() error { return nil }

type fakePDFParser struct {
	content *PDFContent
	err     error
}

func (p fakePDFParser) Extract(filePath string) (*PDFContent, error) {
	if p.err != nil {
		return nil, p.err
	}
	c := *p.content
	c.FilePath = filePath
	return &c, nil
}
