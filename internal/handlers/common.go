package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/social-app/internal/middleware"
)

// pathID parses an ObjectID path parameter.
func pathID(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return oid, nil
}

// callerID returns the authenticated caller's ObjectID.
func callerID(c *fiber.Ctx) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "invalid token subject")
	}
	return oid, nil
}

// parseHexID parses an ObjectID from a body or form field.
func parseHexID(hexID, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return oid, nil
}

func parseHexIDs(hexIDs []string, name string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, len(hexIDs))
	for i, h := range hexIDs {
		oid, err := parseHexID(h, name)
		if err != nil {
			return nil, err
		}
		out[i] = oid
	}
	return out, nil
}

// pagination reads page/page_size query params with sane bounds.
func pagination(c *fiber.Ctx) (page, pageSize int64) {
	page, _ = strconv.ParseInt(c.Query("page", "1"), 10, 64)
	pageSize, _ = strconv.ParseInt(c.Query("page_size", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
