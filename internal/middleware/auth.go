package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/services"
)

const userLocalsKey = "certcy.user"

type AuthMiddleware struct {
	identity services.IdentityService
	log      *zap.Logger
}

func NewAuthMiddleware(identity services.IdentityService, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{identity: identity, log: log.With(zap.String("middleware", "auth"))}
}

// RequireAuth resolves the bearer token into a UserIdentity and stores it on
// the request. Requests without a valid token never reach the handler.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return apperr.Unauthorized()
		}

		user, err := m.identity.Verify(token)
		if err != nil {
			m.log.Debug("rejected session token", zap.Error(err), zap.String("path", c.Path()))
			return apperr.Unauthorized()
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the identity resolved by RequireAuth.
func CurrentUser(c *fiber.Ctx) (*models.UserIdentity, error) {
	user, ok := c.Locals(userLocalsKey).(*models.UserIdentity)
	if !ok || user == nil {
		return nil, apperr.Unauthorized()
	}
	return user, nil
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
