package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
)

type RecommendationService interface {
	// GetRecommendations returns the caller's stored recommendation set,
	// generating and persisting one when none exists or regenerate is set.
	GetRecommendations(ctx context.Context, user *models.UserIdentity, regenerate bool) ([]models.CareerRecommendation, error)
}

type recommendationService struct {
	recRepo   repositories.RecommendationRepository
	profiles  ProfileLoader
	generator Generator
	cache     RecommendationCache
	prompts   *PromptBuilder
	timeout   time.Duration
	log       *zap.Logger
}

func NewRecommendationService(
	recRepo repositories.RecommendationRepository,
	profiles ProfileLoader,
	generator Generator,
	cache RecommendationCache,
	timeout time.Duration,
	log *zap.Logger,
) RecommendationService {
	if cache == nil {
		cache = NewNoopRecommendationCache()
	}
	return &recommendationService{
		recRepo:   recRepo,
		profiles:  profiles,
		generator: generator,
		cache:     cache,
		prompts:   NewPromptBuilder(),
		timeout:   timeout,
		log:       logger.WithFields(log),
	}
}

type generatedRecommendations struct {
	Recommendations []generatedRecommendation `json:"recommendations"`
}

type generatedRecommendation struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Match       float64 `json:"match"`
	Description string  `json:"description"`
	Skills      any     `json:"skills"`
	Growth      string  `json:"growth"`
	Salary      string  `json:"salary"`
}

func (s *recommendationService) GetRecommendations(ctx context.Context, user *models.UserIdentity, regenerate bool) ([]models.CareerRecommendation, error) {
	log := s.log.With(logger.PipelineFields("recommendations", user.ID.String())...)

	if !regenerate {
		if recs := s.existing(ctx, log, user); len(recs) > 0 {
			return recs, nil
		}
	}

	profile, err := s.profiles.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.PreconditionFailed("complete onboarding first")
	}

	system, prompt := s.prompts.BuildRecommendationPrompt(profile)

	genCtx, cancel := withGenerationTimeout(ctx, s.timeout)
	raw, err := s.generator.Complete(genCtx, system, prompt, CompleteOptions{JSONOnly: true})
	cancel()
	if err != nil {
		log.Error("recommendation generation failed", zap.Error(err))
		return nil, apperr.GenerationFailed("failed to generate recommendations, please try again", err)
	}

	var parsed generatedRecommendations
	if err := ParseGenerated(raw, &parsed); err != nil {
		log.Error("recommendation output is not valid JSON", zap.Error(err), zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, apperr.GenerationFailed("failed to generate recommendations, please try again", err)
	}

	recs := normalizeRecommendations(parsed.Recommendations)
	if len(recs) == 0 {
		log.Error("recommendation output contained no usable entries")
		return nil, apperr.GenerationFailed("failed to generate recommendations, please try again", nil)
	}

	if regenerate {
		if err := s.cache.Delete(ctx, user.ID); err != nil {
			log.Warn("failed to invalidate recommendation cache", zap.Error(err))
		}
	}

	if err := s.recRepo.SaveSet(ctx, user.ID, recs, regenerate); err != nil {
		if !regenerate && errors.Is(err, repositories.ErrConflict) {
			log.Info("recommendations were stored by a concurrent request")
			if stored, ferr := s.recRepo.FindByUser(ctx, user.ID); ferr == nil && len(stored) > 0 {
				return stored, nil
			}
		}
		log.Error("failed to store recommendations", zap.Error(err))
		return nil, apperr.Persistence("failed to save recommendations", err)
	}

	stored, err := s.recRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, apperr.Persistence("failed to load recommendations", err)
	}

	if err := s.cache.Set(ctx, user.ID, stored); err != nil {
		log.Warn("failed to cache recommendations", zap.Error(err))
	}

	log.Info("recommendations generated", zap.Int("count", len(stored)), zap.Bool("regenerated", regenerate))
	return stored, nil
}

func (s *recommendationService) existing(ctx context.Context, log *zap.Logger, user *models.UserIdentity) []models.CareerRecommendation {
	cached, err := s.cache.Get(ctx, user.ID)
	if err != nil {
		log.Warn("recommendation cache read failed", zap.Error(err))
	}
	if len(cached) > 0 {
		return cached
	}

	stored, err := s.recRepo.FindByUser(ctx, user.ID)
	if err != nil {
		log.Warn("failed to load stored recommendations", zap.Error(err))
		return nil
	}

	if len(stored) > 0 {
		if err := s.cache.Set(ctx, user.ID, stored); err != nil {
			log.Warn("failed to cache recommendations", zap.Error(err))
		}
	}
	return stored
}

// normalizeRecommendations drops entries without a title, fills a missing id
// with a slug of the title, clamps match to 0..100 and keeps the first entry
// per id. Generator ids are kept as given apart from surrounding whitespace.
func normalizeRecommendations(in []generatedRecommendation) []models.CareerRecommendation {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.CareerRecommendation, 0, len(in))

	for _, g := range in {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}

		id := strings.TrimSpace(g.ID)
		if id == "" {
			id = slugify(title)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		match := int(math.Round(g.Match))
		match = max(0, min(100, match))

		out = append(out, models.CareerRecommendation{
			ID:          id,
			Title:       title,
			Match:       match,
			Description: strings.TrimSpace(g.Description),
			Skills:      ToStringList(g.Skills),
			Growth:      normalizeGrowth(g.Growth),
			Salary:      strings.TrimSpace(g.Salary),
		})
	}

	return out
}

// normalizeGrowth maps the growth labels requested in the prompt onto their
// canonical spelling and keeps anything else as written.
func normalizeGrowth(s string) string {
	s = strings.TrimSpace(s)
	for _, label := range []string{models.GrowthVeryHigh, models.GrowthHigh, models.GrowthModerate} {
		if strings.EqualFold(s, label) {
			return label
		}
	}
	return s
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func withGenerationTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
