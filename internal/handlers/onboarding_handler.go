package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/services"
)

const resumeFormField = "resume"

type OnboardingHandler struct {
	onboarding services.OnboardingService
}

func NewOnboardingHandler(onboarding services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

// HandleSubmit handles POST /onboarding
func (h *OnboardingHandler) HandleSubmit(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.OnboardingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.onboarding.Submit(c.UserContext(), user, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"profile": profile})
}

// HandleGetLatest handles GET /onboarding
func (h *OnboardingHandler) HandleGetLatest(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.onboarding.Latest(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// HandleUploadResume handles POST /onboarding/resume (multipart field "resume").
func (h *OnboardingHandler) HandleUploadResume(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile(resumeFormField)
	if err != nil {
		return apperr.Validation("upload a PDF in the 'resume' form field")
	}

	doc, err := h.onboarding.AttachResume(c.UserContext(), user, file)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Resume uploaded successfully",
		"document": doc,
	})
}
