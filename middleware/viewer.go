package middleware

import (
	"lmsportal_go/database"
	"lmsportal_go/permissions"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ViewerMiddleware builds the authorization context for the authenticated
// user once per request. Must run after JWTMiddleware.
func ViewerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := GetCurrentUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found in context",
			})
		}

		viewer, err := permissions.NewViewer(database.DB, user)
		if err != nil {
			logrus.WithError(err).Error("Failed to build viewer")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load permissions",
			})
		}

		c.Locals("viewer", viewer)
		return c.Next()
	}
}

// GetViewer returns the authorization context stored by ViewerMiddleware
func GetViewer(c *fiber.Ctx) (*permissions.Viewer, error) {
	viewer, ok := c.Locals("viewer").(*permissions.Viewer)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Viewer not found in context")
	}
	return viewer, nil
}
