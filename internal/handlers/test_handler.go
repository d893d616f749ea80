package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/services"
)

type TestHandler struct {
	assessments services.AssessmentService
}

func NewTestHandler(assessments services.AssessmentService) *TestHandler {
	return &TestHandler{assessments: assessments}
}

// HandleCreateTest handles POST /tests
func (h *TestHandler) HandleCreateTest(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateTestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	test, err := h.assessments.GenerateTest(c.UserContext(), user, req.CareerPathID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"test": test})
}

// HandleGetTests handles GET /tests. With testId or careerPathId it returns a
// single test, otherwise every test of the caller.
func (h *TestHandler) HandleGetTests(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	if raw := c.Query("testId"); raw != "" {
		id, err := parseID(raw, "testId")
		if err != nil {
			return err
		}
		test, err := h.assessments.GetTest(c.UserContext(), user, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"test": test})
	}

	if path := strings.TrimSpace(c.Query("careerPathId")); path != "" {
		test, err := h.assessments.FindTestByPath(c.UserContext(), user, path)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"test": test})
	}

	tests, err := h.assessments.ListTests(c.UserContext(), user)
	if err != nil {
		return err
	}
	if tests == nil {
		tests = []models.CareerPathTest{}
	}
	return c.JSON(fiber.Map{"tests": tests})
}

// HandleSubmitTest handles POST /tests/submit
func (h *TestHandler) HandleSubmitTest(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.SubmitTestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	testID, err := parseID(req.TestID, "testId")
	if err != nil {
		return err
	}

	score, test, err := h.assessments.SubmitAnswers(c.UserContext(), user, testID, req.Answers)
	if err != nil {
		return err
	}

	return c.JSON(models.SubmitTestResponse{Score: score, Test: test})
}

// HandleSelectCourse handles POST /tests/select
func (h *TestHandler) HandleSelectCourse(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.SelectCourseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	testID, err := parseID(req.TestID, "testId")
	if err != nil {
		return err
	}
	if req.RecommendationIndex == nil {
		return apperr.Validation("recommendationIndex is required")
	}

	test, err := h.assessments.SelectCourse(c.UserContext(), user, testID, *req.RecommendationIndex)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"test": test})
}
