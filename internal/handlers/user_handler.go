package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/social-app/internal/database"
	"github.com/fathima-sithara/social-app/internal/services"
)

type UserHandler struct {
	svc      *services.UserService
	presence *database.PresenceStore
}

func NewUserHandler(svc *services.UserService, presence *database.PresenceStore) *UserHandler {
	return &UserHandler{svc: svc, presence: presence}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	users, err := h.svc.Search(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

type updateProfileReq struct {
	Username  string `json:"username,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	user, err := h.svc.UpdateProfile(c.Context(), id, req.Username, req.Bio, req.AvatarURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	return h.edge(c, h.svc.Follow, "followed")
}

func (h *UserHandler) Unfollow(c *fiber.Ctx) error {
	return h.edge(c, h.svc.Unfollow, "unfollowed")
}

func (h *UserHandler) Block(c *fiber.Ctx) error {
	return h.edge(c, h.svc.Block, "blocked")
}

func (h *UserHandler) Unblock(c *fiber.Ctx) error {
	return h.edge(c, h.svc.Unblock, "unblocked")
}

func (h *UserHandler) Presence(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"online": h.presence.IsOnline(c.Context(), id.Hex())})
}

// edge factors the shared shape of follow/unfollow/block/unblock: caller id
// from the token, target id from the path.
func (h *UserHandler) edge(c *fiber.Ctx, fn func(ctx context.Context, caller, target primitive.ObjectID) error, verb string) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	target, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := fn(c.Context(), caller, target); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": verb})
}
