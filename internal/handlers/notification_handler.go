package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/social-app/internal/services"
)

type NotificationHandler struct {
	svc *services.NotificationService
}

func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	notifs, err := h.svc.List(c.Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notifications": notifs})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.MarkRead(c.Context(), id, caller); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.MarkAllRead(c.Context(), caller); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "read"})
}
