package auth

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/user"
)

type Handler struct {
	service *Service
	config  *config.AuthConfig
	log     *zap.Logger
}

func NewHandler(service *Service, cfg *config.AuthConfig, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		config:  cfg,
		log:     log,
	}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		// Any non-empty password is acceptable.
		validation.Field(&r.Password, validation.Required),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	_, err := h.service.Register(c.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return badRequest(c, "Email is already registered.")
		}
		h.log.Error("registration failed", zap.Error(err))
		return internalError(c)
	}

	return c.JSON(fiber.Map{"message": "Registration successful. Please check your email."})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	u, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return unauthorized(c, "Invalid email or password.")
		case errors.Is(err, ErrAccountBlocked):
			return unauthorized(c, "Your account is blocked.")
		default:
			h.log.Error("login failed", zap.Error(err))
			return internalError(c)
		}
	}

	token, err := h.service.IssueSession(u)
	if err != nil {
		h.log.Error("failed to issue session", zap.Error(err))
		return internalError(c)
	}

	h.setSessionCookie(c, token)
	return c.JSON(fiber.Map{"message": "Login successful"})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return badRequest(c, "token is required")
	}

	if err := h.service.ConfirmEmail(c.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return badRequest(c, "Invalid confirmation token.")
		}
		h.log.Error("email confirmation failed", zap.Error(err))
		return internalError(c)
	}

	return c.JSON(fiber.Map{"message": "Email confirmed successfully"})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return unauthorized(c, "Not authenticated")
	}

	return c.JSON(fiber.Map{
		"id":    principal.AccountID,
		"email": principal.Email,
		"name":  principal.Name,
	})
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.config.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.config.SessionExpiry),
		HTTPOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	clearSessionCookie(c, h.config)
}

func clearSessionCookie(c *fiber.Ctx, cfg *config.AuthConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": message})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}
