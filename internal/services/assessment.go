package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
)

const optionsPerQuestion = 4

type AssessmentService interface {
	GenerateTest(ctx context.Context, user *models.UserIdentity, careerPathID string) (*models.CareerPathTest, error)
	GetTest(ctx context.Context, user *models.UserIdentity, testID uuid.UUID) (*models.CareerPathTest, error)
	FindTestByPath(ctx context.Context, user *models.UserIdentity, careerPathID string) (*models.CareerPathTest, error)
	ListTests(ctx context.Context, user *models.UserIdentity) ([]models.CareerPathTest, error)
	SubmitAnswers(ctx context.Context, user *models.UserIdentity, testID uuid.UUID, answers []models.AnswerSubmission) (int, *models.CareerPathTest, error)
	SelectCourse(ctx context.Context, user *models.UserIdentity, testID uuid.UUID, index int) (*models.CareerPathTest, error)
}

type assessmentService struct {
	testRepo  repositories.TestRepository
	recRepo   repositories.RecommendationRepository
	profiles  ProfileLoader
	generator Generator
	catalogue CourseCatalogue
	prompts   *PromptBuilder
	timeout   time.Duration
	log       *zap.Logger
}

func NewAssessmentService(
	testRepo repositories.TestRepository,
	recRepo repositories.RecommendationRepository,
	profiles ProfileLoader,
	generator Generator,
	catalogue CourseCatalogue,
	timeout time.Duration,
	log *zap.Logger,
) AssessmentService {
	if catalogue == nil {
		catalogue = NewNoopCatalogue()
	}
	return &assessmentService{
		testRepo:  testRepo,
		recRepo:   recRepo,
		profiles:  profiles,
		generator: generator,
		catalogue: catalogue,
		prompts:   NewPromptBuilder(),
		timeout:   timeout,
		log:       logger.WithFields(log),
	}
}

type generatedAssessment struct {
	Questions             []generatedQuestion `json:"questions"`
	CourseRecommendations []generatedCourse   `json:"courseRecommendations"`
}

type generatedQuestion struct {
	Question      string `json:"question"`
	Options       any    `json:"options"`
	CorrectAnswer any    `json:"correctAnswer"`
}

type generatedCourse struct {
	Title        string `json:"title"`
	Provider     string `json:"provider"`
	Description  string `json:"description"`
	Duration     string `json:"duration"`
	Level        string `json:"level"`
	URL          string `json:"url"`
	RoadmapSteps any    `json:"roadmapSteps"`
}

func (s *assessmentService) GenerateTest(ctx context.Context, user *models.UserIdentity, careerPathID string) (*models.CareerPathTest, error) {
	careerPathID = strings.TrimSpace(careerPathID)
	if careerPathID == "" {
		return nil, apperr.Validation("careerPathId is required")
	}

	log := s.log.With(logger.PipelineFields("assessment", user.ID.String())...).With(zap.String("career_path_id", careerPathID))

	existing, err := s.testRepo.FindByCareerPath(ctx, user.ID, careerPathID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Persistence("failed to load test", err)
	}

	rec, err := s.recRepo.FindByID(ctx, user.ID, careerPathID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("career recommendation")
		}
		return nil, apperr.Persistence("failed to load career recommendation", err)
	}

	profile, err := s.profiles.Load(ctx, user)
	if err != nil {
		log.Warn("continuing without onboarding profile", zap.Error(err))
		profile = nil
	}

	references := s.catalogue.ReferenceCourses(ctx, s.prompts.BuildCatalogueQueries(rec.Title, nil)...)
	system, prompt := s.prompts.BuildAssessmentPrompt(rec, profile, references)

	genCtx, cancel := withGenerationTimeout(ctx, s.timeout)
	raw, err := s.generator.Complete(genCtx, system, prompt, CompleteOptions{JSONOnly: true})
	cancel()
	if err != nil {
		log.Error("assessment generation failed", zap.Error(err))
		return nil, apperr.GenerationFailed("failed to generate test, please try again", err)
	}

	var parsed generatedAssessment
	if err := ParseGenerated(raw, &parsed); err != nil {
		log.Error("assessment output is not valid JSON", zap.Error(err), zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, apperr.GenerationFailed("failed to generate test, please try again", err)
	}

	questions := normalizeQuestions(parsed.Questions)
	if len(questions) == 0 {
		log.Error("assessment output contained no valid questions", zap.Int("received", len(parsed.Questions)))
		return nil, apperr.GenerationFailed("failed to generate test, please try again", nil)
	}
	if dropped := len(parsed.Questions) - len(questions); dropped > 0 {
		log.Warn("dropped malformed questions", zap.Int("dropped", dropped))
	}

	test := &models.CareerPathTest{
		UserID:          user.ID,
		CareerPathID:    careerPathID,
		Questions:       questions,
		Recommendations: normalizeCourses(parsed.CourseRecommendations),
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			log.Info("test was created by a concurrent request")
			winner, ferr := s.testRepo.FindByCareerPath(ctx, user.ID, careerPathID)
			if ferr == nil {
				return winner, nil
			}
			return nil, apperr.Persistence("failed to load test", ferr)
		}
		log.Error("failed to store test", zap.Error(err))
		return nil, apperr.Persistence("failed to save test", err)
	}

	stored, err := s.testRepo.FindByID(ctx, user.ID, test.ID)
	if err != nil {
		return nil, apperr.Persistence("failed to load test", err)
	}

	log.Info("test generated", zap.String("test_id", stored.ID.String()), zap.Int("questions", len(stored.Questions)))
	return stored, nil
}

func (s *assessmentService) GetTest(ctx context.Context, user *models.UserIdentity, testID uuid.UUID) (*models.CareerPathTest, error) {
	return s.loadTest(ctx, user, testID)
}

func (s *assessmentService) FindTestByPath(ctx context.Context, user *models.UserIdentity, careerPathID string) (*models.CareerPathTest, error) {
	test, err := s.testRepo.FindByCareerPath(ctx, user.ID, strings.TrimSpace(careerPathID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("test")
		}
		return nil, apperr.Persistence("failed to load test", err)
	}
	return test, nil
}

func (s *assessmentService) ListTests(ctx context.Context, user *models.UserIdentity) ([]models.CareerPathTest, error) {
	tests, err := s.testRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, apperr.Persistence("failed to list tests", err)
	}
	return tests, nil
}

// SubmitAnswers scores the submission against the test's full question count,
// so unanswered questions count as wrong. Any unknown question id rejects the
// whole submission.
func (s *assessmentService) SubmitAnswers(ctx context.Context, user *models.UserIdentity, testID uuid.UUID, answers []models.AnswerSubmission) (int, *models.CareerPathTest, error) {
	test, err := s.loadTest(ctx, user, testID)
	if err != nil {
		return 0, nil, err
	}

	byID := make(map[uuid.UUID]*models.TestQuestion, len(test.Questions))
	for i := range test.Questions {
		byID[test.Questions[i].ID] = &test.Questions[i]
	}

	responses := make([]models.TestResponse, 0, len(answers))
	answered := make(map[uuid.UUID]struct{}, len(answers))
	correct := 0
	for _, a := range answers {
		qid, err := uuid.Parse(strings.TrimSpace(a.QuestionID))
		if err != nil {
			return 0, nil, apperr.Validation("invalid submission data")
		}
		q, ok := byID[qid]
		if !ok {
			return 0, nil, apperr.Validation("invalid submission data")
		}
		if _, dup := answered[qid]; dup {
			return 0, nil, apperr.Validation("invalid submission data")
		}
		answered[qid] = struct{}{}

		isCorrect := a.UserAnswer == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		responses = append(responses, models.TestResponse{
			TestID:     test.ID,
			QuestionID: q.ID,
			UserAnswer: a.UserAnswer,
			IsCorrect:  isCorrect,
		})
	}

	score := Score(correct, len(test.Questions))

	if err := s.testRepo.RecordSubmission(ctx, test, responses, score); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, nil, apperr.NotFound("test")
		}
		s.log.Error("failed to store submission", zap.String(logger.FieldUserID, user.ID.String()), zap.Error(err))
		return 0, nil, apperr.Persistence("failed to save test results", err)
	}

	s.log.Info("test submitted",
		zap.String(logger.FieldUserID, user.ID.String()),
		zap.String("test_id", test.ID.String()),
		zap.Int("answered", len(answers)),
		zap.Int("score", score),
	)
	return score, test, nil
}

func (s *assessmentService) SelectCourse(ctx context.Context, user *models.UserIdentity, testID uuid.UUID, index int) (*models.CareerPathTest, error) {
	test, err := s.loadTest(ctx, user, testID)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(test.Recommendations) {
		return nil, apperr.Validation("recommendationIndex out of bounds")
	}

	if err := s.testRepo.UpdateSelectedIndex(ctx, user.ID, test.ID, index); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("test")
		}
		return nil, apperr.Persistence("failed to save course selection", err)
	}

	test.SelectedRoadmapIndex = &index
	return test, nil
}

func (s *assessmentService) loadTest(ctx context.Context, user *models.UserIdentity, testID uuid.UUID) (*models.CareerPathTest, error) {
	test, err := s.testRepo.FindByID(ctx, user.ID, testID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("test")
		}
		return nil, apperr.Persistence("failed to load test", err)
	}
	return test, nil
}

// Score is round(100 * correct / total), 0 for an empty test.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

func normalizeQuestions(in []generatedQuestion) []models.TestQuestion {
	out := make([]models.TestQuestion, 0, len(in))
	for _, g := range in {
		text := strings.TrimSpace(g.Question)
		options := ToStringList(g.Options)
		answer, ok := toIndex(g.CorrectAnswer)
		if text == "" || len(options) != optionsPerQuestion || !ok || answer < 0 || answer >= optionsPerQuestion {
			continue
		}
		out = append(out, models.TestQuestion{
			Question:      text,
			Options:       options,
			CorrectAnswer: answer,
			Order:         len(out),
		})
	}
	return out
}

func normalizeCourses(in []generatedCourse) []models.CourseRecommendation {
	out := make([]models.CourseRecommendation, 0, len(in))
	for _, g := range in {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}
		out = append(out, models.CourseRecommendation{
			Title:        title,
			Provider:     strings.TrimSpace(g.Provider),
			Description:  strings.TrimSpace(g.Description),
			Duration:     strings.TrimSpace(g.Duration),
			Level:        strings.TrimSpace(g.Level),
			URL:          strings.TrimSpace(g.URL),
			RoadmapSteps: ToStringList(g.RoadmapSteps),
		})
	}
	return out
}

func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
