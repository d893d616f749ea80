package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/services"
)

type RoadmapHandler struct {
	roadmaps services.RoadmapService
}

func NewRoadmapHandler(roadmaps services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps}
}

// HandleGetRoadmap handles GET /roadmap?id=|testId=&regenerate=
func (h *RoadmapHandler) HandleGetRoadmap(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	q := services.RoadmapQuery{Regenerate: c.QueryBool("regenerate")}

	if raw := c.Query("id"); raw != "" {
		id, err := parseID(raw, "id")
		if err != nil {
			return err
		}
		q.ID = &id
	}
	if raw := c.Query("testId"); raw != "" {
		id, err := parseID(raw, "testId")
		if err != nil {
			return err
		}
		q.TestID = &id
	}

	roadmap, err := h.roadmaps.GetRoadmap(c.UserContext(), user, q)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"roadmap": roadmap})
}

// HandleUpdateRoadmap handles PATCH /roadmap
func (h *RoadmapHandler) HandleUpdateRoadmap(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.RoadmapPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	roadmapID, err := parseID(req.RoadmapID, "roadmapId")
	if err != nil {
		return err
	}

	roadmap, err := h.roadmaps.UpdateProgress(c.UserContext(), user, roadmapID, services.RoadmapPatch{
		CompletedSteps: req.CompletedSteps,
		SelectedPivot:  req.SelectedPivot,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"roadmap": roadmap})
}

// HandleSetPivot handles POST /roadmap/pivot. An explicit null clears the pivot.
func (h *RoadmapHandler) HandleSetPivot(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.RoadmapPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	roadmapID, err := parseID(req.RoadmapID, "roadmapId")
	if err != nil {
		return err
	}
	if !req.SelectedPivot.Set {
		return apperr.Validation("selectedPivot is required")
	}

	roadmap, err := h.roadmaps.UpdateProgress(c.UserContext(), user, roadmapID, services.RoadmapPatch{
		SelectedPivot: req.SelectedPivot,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"roadmap": roadmap})
}

// HandleGetPivot handles GET /roadmap/pivot?roadmapId=
func (h *RoadmapHandler) HandleGetPivot(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	roadmapID, err := parseID(c.Query("roadmapId"), "roadmapId")
	if err != nil {
		return err
	}

	pivot, err := h.roadmaps.GetPivot(c.UserContext(), user, roadmapID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"selectedPivot": pivot})
}
