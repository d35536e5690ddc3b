package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/social-app/internal/services"
	"github.com/fathima-sithara/social-app/internal/utils"
)

type AdminHandler struct {
	svc *services.AdminService
}

func NewAdminHandler(svc *services.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, pageSize := pagination(c)
	users, err := h.svc.ListUsers(c.Context(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

type setRoleReq struct {
	Role string `json:"role" validate:"required"`
}

func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setRoleReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}
	if err := h.svc.SetRole(c.Context(), id, req.Role); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "role updated"})
}

type setActiveReq struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setActiveReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}
	if err := h.svc.SetActive(c.Context(), id, *req.Active); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "account updated"})
}

func (h *AdminHandler) DeletePost(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePost(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"stats": stats})
}
