package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
)

const maxChatHistory = 10

type ChatService interface {
	Reply(ctx context.Context, user *models.UserIdentity, req models.ChatRequest) (string, error)
}

type chatService struct {
	recRepo   repositories.RecommendationRepository
	profiles  ProfileLoader
	generator Generator
	prompts   *PromptBuilder
	timeout   time.Duration
	log       *zap.Logger
}

func NewChatService(
	recRepo repositories.RecommendationRepository,
	profiles ProfileLoader,
	generator Generator,
	timeout time.Duration,
	log *zap.Logger,
) ChatService {
	return &chatService{
		recRepo:   recRepo,
		profiles:  profiles,
		generator: generator,
		prompts:   NewPromptBuilder(),
		timeout:   timeout,
		log:       logger.WithFields(log),
	}
}

func (s *chatService) Reply(ctx context.Context, user *models.UserIdentity, req models.ChatRequest) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", apperr.Validation("message is required")
	}

	log := s.log.With(logger.PipelineFields("chat", user.ID.String())...)

	profile, err := s.profiles.Load(ctx, user)
	if err != nil {
		log.Warn("continuing without onboarding profile", zap.Error(err))
		profile = nil
	}

	recs, err := s.recRepo.FindByUser(ctx, user.ID)
	if err != nil {
		log.Warn("continuing without saved recommendations", zap.Error(err))
		recs = nil
	}

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	system := s.prompts.BuildChatSystemPrompt(user, profile, recs)

	genCtx, cancel := withGenerationTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.generator.Complete(genCtx, system, message, CompleteOptions{History: history})
	if err != nil {
		log.Error("chat generation failed", zap.Error(err))
		return "", apperr.GenerationFailed("failed to get a reply, please try again", err)
	}

	return strings.TrimSpace(reply), nil
}
