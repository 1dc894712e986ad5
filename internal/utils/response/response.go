package response

import (
	apperrors "railpay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// DomainError answers with the status of the error's kind and its code.
// Errors without a kind are reported as internal without their text.
func DomainError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  apperrors.CodeOf(err),
	})
}

// DomainErrorWithData is DomainError carrying a payload, used when a failed
// operation still produced a record.
func DomainErrorWithData(c *fiber.Ctx, err error, data interface{}) error {
	return c.Status(apperrors.HTTPStatus(apperrors.KindOf(err))).JSON(fiber.Map{
		"error": err.Error(),
		"code":  apperrors.CodeOf(err),
		"data":  data,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "Insufficient permissions")
}
