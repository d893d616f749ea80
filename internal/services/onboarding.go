package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
)

// ProfileLoader resolves the caller's latest onboarding profile. A missing
// profile is (nil, nil).
type ProfileLoader interface {
	Load(ctx context.Context, user *models.UserIdentity) (*models.OnboardingProfile, error)
}

type OnboardingService interface {
	ProfileLoader
	Submit(ctx context.Context, user *models.UserIdentity, req models.OnboardingRequest) (*models.OnboardingProfile, error)
	Latest(ctx context.Context, user *models.UserIdentity) (*models.OnboardingProfile, error)
	AttachResume(ctx context.Context, user *models.UserIdentity, file *multipart.FileHeader) (*models.ResumeDocument, error)
}

type onboardingService struct {
	profileRepo repositories.OnboardingRepository
	docRepo     repositories.ResumeDocumentRepository
	storage     StorageService
	parser      PDFParserService
	log         *zap.Logger
}

func NewOnboardingService(
	profileRepo repositories.OnboardingRepository,
	docRepo repositories.ResumeDocumentRepository,
	storage StorageService,
	parser PDFParserService,
	log *zap.Logger,
) OnboardingService {
	return &onboardingService{
		profileRepo: profileRepo,
		docRepo:     docRepo,
		storage:     storage,
		parser:      parser,
		log:         logger.WithFields(log),
	}
}

// Load looks the profile up by user id first and falls back to the
// identity's email for profiles stored before sign-up completed.
func (s *onboardingService) Load(ctx context.Context, user *models.UserIdentity) (*models.OnboardingProfile, error) {
	profile, err := s.profileRepo.FindLatestByUser(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Persistence("failed to load onboarding profile", err)
	}

	profile, err = s.profileRepo.FindLatestByEmail(ctx, user.Email)
	if err == nil {
		return profile, nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return nil, apperr.Persistence("failed to load onboarding profile", err)
}

func (s *onboardingService) Latest(ctx context.Context, user *models.UserIdentity) (*models.OnboardingProfile, error) {
	profile, err := s.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.NotFound("onboarding profile")
	}
	return profile, nil
}

func (s *onboardingService) Submit(ctx context.Context, user *models.UserIdentity, req models.OnboardingRequest) (*models.OnboardingProfile, error) {
	jobTitle := strings.TrimSpace(req.JobTitle)
	if jobTitle == "" {
		return nil, apperr.Validation("jobTitle is required")
	}

	profile := &models.OnboardingProfile{
		UserID:           user.ID,
		Email:            strings.ToLower(strings.TrimSpace(user.Email)),
		JobTitle:         jobTitle,
		Experience:       strings.TrimSpace(req.Experience),
		TopSkills:        ToStringList(req.TopSkills),
		TimeAvailable:    strings.TrimSpace(req.TimeAvailable),
		IndustryInterest: strings.TrimSpace(req.IndustryInterest),
		Concern:          strings.TrimSpace(req.Concern),
		Answers:          datatypes.JSONMap(req.Answers),
	}

	// keep an earlier resume attached to the new profile
	if previous, err := s.Load(ctx, user); err == nil && previous != nil {
		profile.ResumeText = previous.ResumeText
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		s.log.Error("failed to store onboarding profile", zap.String(logger.FieldUserID, user.ID.String()), zap.Error(err))
		return nil, apperr.Persistence("failed to save onboarding profile", err)
	}

	return profile, nil
}

func (s *onboardingService) AttachResume(ctx context.Context, user *models.UserIdentity, file *multipart.FileHeader) (*models.ResumeDocument, error) {
	log := s.log.With(zap.String(logger.FieldUserID, user.ID.String()))

	profile, err := s.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.PreconditionFailed("complete onboarding first")
	}

	filename, filePath, err := s.storage.SaveResume(file, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFileType), errors.Is(err, ErrFileTooLarge):
			return nil, apperr.Validation(err.Error())
		default:
			log.Error("failed to store resume", zap.Error(err))
			return nil, apperr.Persistence("failed to save file", err)
		}
	}

	content, err := s.parser.Extract(filePath)
	if err != nil {
		log.Warn("resume text extraction failed", zap.String("file", filename), zap.Error(err))
		if derr := s.storage.DeleteFile(filename); derr != nil {
			log.Warn("failed to remove unreadable resume", zap.Error(derr))
		}
		return nil, apperr.Validation("could not read text from the uploaded PDF")
	}

	doc := &models.ResumeDocument{
		UserID:           user.ID,
		Filename:         filename,
		OriginalFileName: file.Filename,
		FilePath:         filePath,
		PageCount:        content.PageCount,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, apperr.Persistence("failed to save document metadata", err)
	}

	if err := s.profileRepo.UpdateResumeText(ctx, profile.ID, content.Text); err != nil {
		return nil, apperr.Persistence("failed to attach resume to profile", err)
	}

	log.Info("resume attached", zap.String("file", filename), zap.Int("pages", content.PageCount))
	return doc, nil
}
