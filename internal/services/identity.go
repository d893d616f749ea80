package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims is the identity provider's session token payload.
type SessionClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

type IdentityService interface {
	Verify(token string) (*models.UserIdentity, error)
}

type identityService struct {
	secret []byte
	parser *jwt.Parser
}

func NewIdentityService(cfg config.AuthConfig) IdentityService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &identityService{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}
}

func (s *identityService) Verify(token string) (*models.UserIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	return &models.UserIdentity{
		ID:       userID,
		Email:    strings.TrimSpace(claims.Email),
		Metadata: claims.UserMetadata,
	}, nil
}
