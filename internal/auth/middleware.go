package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/user"
)

// principalKey is the fiber locals key holding the request principal.
const principalKey = "auth.principal"

// Principal is the authenticated caller, resolved from live store state.
type Principal struct {
	AccountID uuid.UUID
	Email     string
	Name      string
}

type Middleware struct {
	service    *Service
	config     *config.AuthConfig
	repository user.Repository
	log        *zap.Logger
}

func NewMiddleware(service *Service, cfg *config.AuthConfig, repo user.Repository, log *zap.Logger) *Middleware {
	return &Middleware{
		service:    service,
		config:     cfg,
		repository: repo,
		log:        log,
	}
}

// RequireSession authenticates the request from the session cookie. The
// account is re-resolved against the store on every request: a session
// whose account has been blocked or deleted since login stops
// authenticating immediately, and the stale cookie is cleared.
func (m *Middleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(m.config.CookieName)
		if raw == "" {
			return unauthorized(c, "Not authenticated")
		}

		claims, err := m.service.ValidateSession(raw)
		if err != nil {
			clearSessionCookie(c, m.config)
			return unauthorized(c, "Not authenticated")
		}

		accountID, err := uuid.Parse(claims.Subject)
		if err != nil {
			clearSessionCookie(c, m.config)
			return unauthorized(c, "Not authenticated")
		}

		u, err := m.repository.FindByID(c.Context(), accountID)
		if errors.Is(err, user.ErrNotFound) || (err == nil && u.Status == user.StatusBlocked) {
			clearSessionCookie(c, m.config)
			return unauthorized(c, "User is blocked or deleted.")
		}
		if err != nil {
			m.log.Error("failed to resolve session account", zap.Error(err))
			return internalError(c)
		}

		c.Locals(principalKey, &Principal{
			AccountID: u.ID,
			Email:     u.Email,
			Name:      u.FullName(),
		})

		return c.Next()
	}
}

// PrincipalFromCtx returns the principal set by RequireSession.
func PrincipalFromCtx(c *fiber.Ctx) (*Principal, error) {
	principal, ok := c.Locals(principalKey).(*Principal)
	if !ok || principal == nil {
		return nil, errors.New("principal not found in context")
	}
	return principal, nil
}
