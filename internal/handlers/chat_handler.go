package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certcy/career-api/internal/middleware"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req models.ChatRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	reply, err := h.chat.Reply(c.UserContext(), user, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"reply": reply})
}
