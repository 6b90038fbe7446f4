package middleware

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// WriteError answers with the classified status and body for err
func WriteError(c *fiber.Ctx, err error) error {
	cls := apperrors.Classify(err)
	return c.Status(cls.Status).JSON(cls.Body())
}
