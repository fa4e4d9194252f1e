package response

import (
	"errors"

	"github.com/PramesRay/pos-service/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type SuccessBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func OK(c *fiber.Ctx, message string, data any) error {
	return Send(c, fiber.StatusOK, message, data)
}

func Created(c *fiber.Ctx, message string, data any) error {
	return Send(c, fiber.StatusCreated, message, data)
}

func Send(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(SuccessBody{Status: StatusSuccess, Message: message, Data: data})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Business errors keep
// their message; anything else is logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := apperr.Code(err)
	if code == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		return c.Status(code).JSON(ErrorBody{
			Status:  StatusError,
			Message: "Internal Server Error",
			Error:   nil,
		})
	}

	msg := err.Error()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return c.Status(code).JSON(ErrorBody{
		Status:  StatusError,
		Message: msg,
		Error:   utils.StatusMessage(code),
	})
}
