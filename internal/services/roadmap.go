package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
)

const defaultTotalWeeks = 8

// RoadmapQuery selects a roadmap by id, or by test with optional regeneration.
type RoadmapQuery struct {
	ID         *uuid.UUID
	TestID     *uuid.UUID
	Regenerate bool
}

// RoadmapPatch carries a partial progress update. CompletedSteps replaces the
// stored list only when it holds a JSON array. SelectedPivot clears the pivot
// on explicit null and stores any other value verbatim.
type RoadmapPatch struct {
	CompletedSteps models.Optional[json.RawMessage]
	SelectedPivot  models.Optional[json.RawMessage]
}

type RoadmapService interface {
	GetRoadmap(ctx context.Context, user *models.UserIdentity, q RoadmapQuery) (*models.LearningRoadmap, error)
	UpdateProgress(ctx context.Context, user *models.UserIdentity, roadmapID uuid.UUID, patch RoadmapPatch) (*models.LearningRoadmap, error)
	GetPivot(ctx context.Context, user *models.UserIdentity, roadmapID uuid.UUID) (json.RawMessage, error)
}

type roadmapService struct {
	roadmapRepo repositories.RoadmapRepository
	testRepo    repositories.TestRepository
	recRepo     repositories.RecommendationRepository
	profiles    ProfileLoader
	generator   Generator
	catalogue   CourseCatalogue
	prompts     *PromptBuilder
	timeout     time.Duration
	log         *zap.Logger
}

func NewRoadmapService(
	roadmapRepo repositories.RoadmapRepository,
	testRepo repositories.TestRepository,
	recRepo repositories.RecommendationRepository,
	profiles ProfileLoader,
	generator Generator,
	catalogue CourseCatalogue,
	timeout time.Duration,
	log *zap.Logger,
) RoadmapService {
	if catalogue == nil {
		catalogue = NewNoopCatalogue()
	}
	return &roadmapService{
		roadmapRepo: roadmapRepo,
		testRepo:    testRepo,
		recRepo:     recRepo,
		profiles:    profiles,
		generator:   generator,
		catalogue:   catalogue,
		prompts:     NewPromptBuilder(),
		timeout:     timeout,
		log:         logger.WithFields(log),
	}
}

type generatedRoadmap struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TotalWeeks  any             `json:"totalWeeks"`
	Weeks       []generatedWeek `json:"weeks"`
}

type generatedWeek struct {
	WeekNumber any               `json:"weekNumber"`
	Theme      string            `json:"theme"`
	Activities []models.Activity `json:"activities"`
	Goals      any               `json:"goals"`
	Outcomes   any               `json:"outcomes"`
}

func (s *roadmapService) GetRoadmap(ctx context.Context, user *models.UserIdentity, q RoadmapQuery) (*models.LearningRoadmap, error) {
	if q.ID != nil {
		return s.loadRoadmap(ctx, user, *q.ID)
	}

	log := s.log.With(logger.PipelineFields("roadmap", user.ID.String())...)

	if q.TestID != nil && !q.Regenerate {
		existing, err := s.roadmapRepo.FindLatestByTest(ctx, user.ID, *q.TestID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.Persistence("failed to load roadmap", err)
		}
	}

	var (
		course      *models.CourseRecommendation
		careerTitle string
	)
	if q.TestID != nil {
		test, err := s.testRepo.FindByID(ctx, user.ID, *q.TestID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, apperr.NotFound("test")
			}
			return nil, apperr.Persistence("failed to load test", err)
		}
		course = test.SelectedCourse()
		if rec, err := s.recRepo.FindByID(ctx, user.ID, test.CareerPathID); err == nil {
			careerTitle = rec.Title
		}
	}

	profile, err := s.profiles.Load(ctx, user)
	if err != nil {
		log.Warn("continuing without onboarding profile", zap.Error(err))
		profile = nil
	}

	if profile == nil && course == nil {
		return nil, apperr.Validation("insufficient data to generate roadmap")
	}

	references := s.catalogue.ReferenceCourses(ctx, s.prompts.BuildCatalogueQueries(careerTitle, course)...)
	system, prompt := s.prompts.BuildRoadmapPrompt(careerTitle, course, profile, references)

	genCtx, cancel := withGenerationTimeout(ctx, s.timeout)
	raw, err := s.generator.Complete(genCtx, system, prompt, CompleteOptions{JSONOnly: true})
	cancel()
	if err != nil {
		log.Error("roadmap generation failed", zap.Error(err))
		return nil, apperr.GenerationFailed("failed to generate roadmap", err)
	}

	var parsed generatedRoadmap
	if err := ParseGenerated(raw, &parsed); err != nil {
		log.Error("roadmap output is not valid JSON", zap.Error(err), zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, apperr.GenerationFailed("failed to generate roadmap", err)
	}
	if len(parsed.Weeks) == 0 {
		return nil, apperr.GenerationFailed("invalid roadmap data", nil)
	}

	roadmap := buildRoadmap(parsed, careerTitle)
	roadmap.UserID = user.ID
	roadmap.TestID = q.TestID

	if err := s.roadmapRepo.Create(ctx, roadmap); err != nil {
		log.Error("failed to store roadmap", zap.Error(err))
		return nil, apperr.Persistence("failed to save roadmap", err)
	}
	roadmap.Progress = roadmap.ProgressPercent()

	log.Info("roadmap generated",
		zap.String("roadmap_id", roadmap.ID.String()),
		zap.Int("weeks", len(roadmap.Weeks)),
		zap.Bool("regenerated", q.Regenerate),
	)
	return roadmap, nil
}

func (s *roadmapService) UpdateProgress(ctx context.Context, user *models.UserIdentity, roadmapID uuid.UUID, patch RoadmapPatch) (*models.LearningRoadmap, error) {
	roadmap, err := s.loadRoadmap(ctx, user, roadmapID)
	if err != nil {
		return nil, err
	}

	if patch.CompletedSteps.Set && !patch.CompletedSteps.Null {
		var steps []any
		if err := json.Unmarshal(patch.CompletedSteps.Value, &steps); err == nil {
			roadmap.CompletedSteps = roadmap.KnownSteps(ToStringList(steps))
		}
	}

	if patch.SelectedPivot.Set {
		if patch.SelectedPivot.Null {
			roadmap.SelectedPivot = nil
		} else {
			roadmap.SelectedPivot = datatypes.JSON(patch.SelectedPivot.Value)
		}
	}

	if err := s.roadmapRepo.UpdateProgress(ctx, roadmap); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("roadmap")
		}
		return nil, apperr.Persistence("failed to update roadmap", err)
	}

	roadmap.Progress = roadmap.ProgressPercent()
	return roadmap, nil
}

func (s *roadmapService) GetPivot(ctx context.Context, user *models.UserIdentity, roadmapID uuid.UUID) (json.RawMessage, error) {
	roadmap, err := s.loadRoadmap(ctx, user, roadmapID)
	if err != nil {
		return nil, err
	}
	if !roadmap.HasPivot() {
		return nil, nil
	}
	return json.RawMessage(roadmap.SelectedPivot), nil
}

func (s *roadmapService) loadRoadmap(ctx context.Context, user *models.UserIdentity, roadmapID uuid.UUID) (*models.LearningRoadmap, error) {
	roadmap, err := s.roadmapRepo.FindByID(ctx, user.ID, roadmapID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("roadmap")
		}
		return nil, apperr.Persistence("failed to load roadmap", err)
	}
	return roadmap, nil
}

func buildRoadmap(g generatedRoadmap, careerTitle string) *models.LearningRoadmap {
	weeks := make([]models.Week, 0, len(g.Weeks))
	for i, w := range g.Weeks {
		number, ok := toIndex(w.WeekNumber)
		if !ok || number <= 0 {
			number = i + 1
		}
		activities := w.Activities
		if activities == nil {
			activities = []models.Activity{}
		}
		weeks = append(weeks, models.Week{
			WeekNumber: number,
			Theme:      strings.TrimSpace(w.Theme),
			Activities: activities,
			Goals:      ToStringList(w.Goals),
			Outcomes:   ToStringList(w.Outcomes),
		})
	}

	total, ok := toIndex(g.TotalWeeks)
	if !ok || total <= 0 {
		total = len(weeks)
		if total == 0 {
			total = defaultTotalWeeks
		}
	}

	title := strings.TrimSpace(g.Title)
	if title == "" {
		title = "Learning roadmap"
		if careerTitle != "" {
			title = careerTitle + " learning roadmap"
		}
	}

	return &models.LearningRoadmap{
		Title:          title,
		Description:    strings.TrimSpace(g.Description),
		TotalWeeks:     total,
		Weeks:          weeks,
		CompletedSteps: []string{},
	}
}
