package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/services"
)

type ChatHandler struct {
	chat  *services.ChatService
	media *services.MediaService
}

func NewChatHandler(chat *services.ChatService, media *services.MediaService) *ChatHandler {
	return &ChatHandler{chat: chat, media: media}
}

type createConversationReq struct {
	ReceiverID string `json:"receiver_id"`
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req createConversationReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	receiver, err := parseHexID(req.ReceiverID, "receiver_id")
	if err != nil {
		return err
	}
	conv, err := h.chat.CreateDirect(c.Context(), caller, receiver)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conv})
}

type createGroupReq struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participant_ids"`
}

func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req createGroupReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	participants, err := parseHexIDs(req.ParticipantIDs, "participant_ids")
	if err != nil {
		return err
	}
	conv, err := h.chat.CreateGroup(c.Context(), caller, req.Name, participants)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conv})
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	convs, err := h.chat.ListConversations(c.Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// SendMessage takes a multipart form with optional text and an optional media
// file. The media is uploaded to the blob store first; the message then
// references the returned URL.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	convID, err := pathID(c, "conversationId")
	if err != nil {
		return err
	}
	text := c.FormValue("text")

	var media *models.MediaRef
	if fh, err := c.FormFile("media"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable media upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable media upload")
		}
		media, err = h.media.Upload(c.Context(), fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			return err
		}
	}

	msg, err := h.chat.SendMessage(c.Context(), caller, convID, text, media)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	convID, err := pathID(c, "conversationId")
	if err != nil {
		return err
	}
	msgs, err := h.chat.ListMessages(c.Context(), caller, convID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	convID, err := pathID(c, "conversationId")
	if err != nil {
		return err
	}
	if err := h.chat.MarkRead(c.Context(), caller, convID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "read"})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	msgID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.chat.DeleteMessage(c.Context(), caller, msgID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
