package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/services"
)

type RecommendationHandler struct {
	recommendations services.RecommendationService
}

func NewRecommendationHandler(recommendations services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

// HandleGetRecommendations handles GET /recommendations
func (h *RecommendationHandler) HandleGetRecommendations(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	recs, err := h.recommendations.GetRecommendations(c.UserContext(), user, c.QueryBool("regenerate"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"recommendations": recs})
}
