package services

import (
	"context"
	"errors"
	"time"

	"support-chat/config"
	"support-chat/internal/domain/agent"
	"support-chat/internal/repository"
	support_errors "support-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService resolves agent identities for the dashboard. The messaging
// core trusts whatever identity this layer hands it and never re-checks
// credentials itself.
type AuthService struct {
	agentRepo repository.AgentRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(agentRepo repository.AgentRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		agentRepo: agentRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type AgentClaims struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Agent       agent.Agent `json:"-"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	a, err := s.agentRepo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, support_errors.ErrUnauthorized
	}
	if !a.IsActive {
		return LoginResult{}, support_errors.ErrForbidden
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, support_errors.ErrUnauthorized
	}

	now := time.Now()
	claims := AgentClaims{
		AgentID: a.ID.String(),
		Role:    a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		Agent:       a,
	}, nil
}

// ResolveToken parses a bearer token and loads the agent behind it, checking
// the soft-disable flag.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (agent.Agent, error) {
	var claims AgentClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, support_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return agent.Agent{}, support_errors.ErrUnauthorized
	}

	agentID, err := uuid.Parse(claims.AgentID)
	if err != nil {
		return agent.Agent{}, support_errors.ErrUnauthorized
	}

	a, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return agent.Agent{}, support_errors.ErrUnauthorized
	}
	if !a.IsActive {
		return agent.Agent{}, support_errors.ErrForbidden
	}
	return a, nil
}

// HTTPStatus maps a service error to its transport status code. Handlers
// share this instead of re-deciding codes per endpoint.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, support_errors.ErrInvalidInput):
		return 400
	case errors.Is(err, support_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, support_errors.ErrForbidden):
		return 403
	case errors.Is(err, support_errors.ErrNotFound):
		return 404
	case errors.Is(err, support_errors.ErrAlreadyExists), errors.Is(err, support_errors.ErrConflict):
		return 409
	case errors.Is(err, support_errors.ErrTooLarge):
		return 413
	case errors.Is(err, support_errors.ErrRateLimited):
		return 429
	case errors.Is(err, support_errors.ErrUpstreamUnavailable):
		return 502
	default:
		return 500
	}
}

type agentCtxKey struct{}

// WithAgentContext stores the resolved agent identity on the context.
func WithAgentContext(ctx context.Context, a agent.Agent) context.Context {
	return context.WithValue(ctx, agentCtxKey{}, a)
}

// AgentFromContext returns the identity resolved by the auth middleware.
func AgentFromContext(ctx context.Context) (agent.Agent, bool) {
	a, ok := ctx.Value(agentCtxKey{}).(agent.Agent)
	return a, ok
}
