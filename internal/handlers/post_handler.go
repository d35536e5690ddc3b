package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/social-app/internal/middleware"
	"github.com/fathima-sithara/social-app/internal/services"
)

type PostHandler struct {
	posts *services.PostService
	media *services.MediaService
}

func NewPostHandler(posts *services.PostService, media *services.MediaService) *PostHandler {
	return &PostHandler{posts: posts, media: media}
}

// Create takes a multipart form: optional text plus any number of media
// files under the "media" field.
func (h *PostHandler) Create(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	text := c.FormValue("text")

	var mediaURLs []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["media"] {
			f, err := fh.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable media upload")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable media upload")
			}
			ref, err := h.media.Upload(c.Context(), fh.Filename, fh.Header.Get("Content-Type"), data)
			if err != nil {
				return err
			}
			mediaURLs = append(mediaURLs, ref.URL)
		}
	}

	post, err := h.posts.Create(c.Context(), caller, text, mediaURLs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.posts.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"post": post})
}

func (h *PostHandler) Feed(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	page, pageSize := pagination(c)
	posts, err := h.posts.Feed(c.Context(), caller, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) ListByAuthor(c *fiber.Ctx) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := pagination(c)
	posts, err := h.posts.ListByAuthor(c.Context(), authorID, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"posts": posts})
}

type updatePostReq struct {
	Text      string   `json:"text"`
	MediaURLs []string `json:"media_urls"`
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updatePostReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	post, err := h.posts.Update(c.Context(), caller, middleware.Role(c), id, req.Text, req.MediaURLs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"post": post})
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.Context(), caller, middleware.Role(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

func (h *PostHandler) ToggleLike(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	liked, err := h.posts.ToggleLike(c.Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"liked": liked})
}

type commentReq struct {
	Text string `json:"text"`
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commentReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	comment, err := h.posts.AddComment(c.Context(), caller, id, req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

func (h *PostHandler) DeleteComment(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.posts.DeleteComment(c.Context(), caller, middleware.Role(c), postID, commentID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
