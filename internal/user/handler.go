package user

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type bulkActionRequest struct {
	UserIDs []string `json:"userIds"`
}

func (r bulkActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserIDs, validation.Required),
	)
}

func (r bulkActionRequest) ids() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.UserIDs))
	for _, raw := range r.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("invalid user id: " + raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(users)
}

func (h *Handler) Block(c *fiber.Ctx) error {
	return h.bulkAction(c, h.service.BlockAll, "Users blocked")
}

func (h *Handler) Unblock(c *fiber.Ctx) error {
	return h.bulkAction(c, h.service.UnblockAll, "Users unblocked")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	return h.bulkAction(c, h.service.DeleteAll, "Users deleted")
}

func (h *Handler) DeleteUnverified(c *fiber.Ctx) error {
	return h.bulkAction(c, h.service.DeleteUnverified, "Unverified users deleted")
}

func (h *Handler) bulkAction(c *fiber.Ctx, action func(ctx context.Context, ids []uuid.UUID) error, message string) error {
	var req bulkActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ids, err := req.ids()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := action(c.Context(), ids); err != nil {
		h.log.Error("bulk action failed", zap.Int("ids", len(ids)), zap.Error(err))
		return internalError(c)
	}

	return c.JSON(fiber.Map{"message": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}
