package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/handlers"
	"github.com/fathima-sithara/social-app/internal/middleware"
	"github.com/fathima-sithara/social-app/internal/ws"
)

// Handlers bundles everything Register mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	Post          *handlers.PostHandler
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
	WS            *ws.Handler
}

// Register mounts the full route table. Everything except registration, login
// and the health check sits behind the bearer token middleware.
func Register(app *fiber.App, h Handlers, jwtManager *auth.JWTManager, rdb *redis.Client) {
	authGuard := middleware.JWTAuth(jwtManager)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	authLimiter := middleware.NewRateLimiter(rdb, "rl:auth", 20, time.Minute)
	authGroup := api.Group("/auth", authLimiter.ByKey(func(c *fiber.Ctx) string { return c.IP() }))
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/confirm", h.Auth.Confirm)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.Refresh)
	authGroup.Post("/logout", authGuard, h.Auth.Logout)

	users := api.Group("/users", authGuard)
	users.Get("/me", h.User.GetMe)
	users.Patch("/me", h.User.UpdateMe)
	users.Get("/search", h.User.Search)
	users.Get("/:id", h.User.GetByID)
	users.Get("/:id/presence", h.User.Presence)
	users.Get("/:id/posts", h.Post.ListByAuthor)
	users.Post("/:id/follow", h.User.Follow)
	users.Delete("/:id/follow", h.User.Unfollow)
	users.Post("/:id/block", h.User.Block)
	users.Delete("/:id/block", h.User.Unblock)

	posts := api.Group("/posts", authGuard)
	posts.Post("/", h.Post.Create)
	posts.Get("/feed", h.Post.Feed)
	posts.Get("/:id", h.Post.Get)
	posts.Patch("/:id", h.Post.Update)
	posts.Delete("/:id", h.Post.Delete)
	posts.Post("/:id/like", h.Post.ToggleLike)
	posts.Post("/:id/comments", h.Post.AddComment)
	posts.Delete("/:id/comments/:commentId", h.Post.DeleteComment)

	convs := api.Group("/conversations", authGuard)
	convs.Post("/", h.Chat.CreateConversation)
	convs.Post("/group", h.Chat.CreateGroup)
	convs.Get("/", h.Chat.ListConversations)
	convs.Get("/:conversationId/messages", h.Chat.ListMessages)
	convs.Post("/:conversationId/messages", h.Chat.SendMessage)
	convs.Post("/:conversationId/read", h.Chat.MarkRead)

	api.Delete("/messages/:id", authGuard, h.Chat.DeleteMessage)

	notifs := api.Group("/notifications", authGuard)
	notifs.Get("/", h.Notifications.List)
	notifs.Post("/:id/read", h.Notifications.MarkRead)
	notifs.Post("/read-all", h.Notifications.MarkAllRead)

	admin := api.Group("/admin", authGuard, middleware.AdminOnly())
	admin.Get("/users", h.Admin.ListUsers)
	admin.Patch("/users/:id/role", h.Admin.SetRole)
	admin.Patch("/users/:id/active", h.Admin.SetActive)
	admin.Delete("/posts/:id", h.Admin.DeletePost)
	admin.Get("/stats", h.Admin.Stats)

	app.Use("/ws", h.WS.Upgrade)
	app.Get("/ws", h.WS.Handle())
}
