// Package apperr defines the error taxonomy of the service. Business rule
// violations are *fiber.Error values so that handlers can return them
// untouched and the error handler maps them to their status code.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func BadRequest(msg string) error   { return fiber.NewError(fiber.StatusBadRequest, msg) }
func Unauthorized(msg string) error { return fiber.NewError(fiber.StatusUnauthorized, msg) }
func Forbidden(msg string) error    { return fiber.NewError(fiber.StatusForbidden, msg) }
func NotFound(msg string) error     { return fiber.NewError(fiber.StatusNotFound, msg) }
func Conflict(msg string) error     { return fiber.NewError(fiber.StatusConflict, msg) }

// Code returns the HTTP status carried by err, or 500 for unclassified errors.
func Code(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// Is reports whether err is a business error with the given status code.
func Is(err error, code int) bool {
	return err != nil && Code(err) == code
}

func IsNotFound(err error) bool { return Is(err, fiber.StatusNotFound) }
func IsConflict(err error) bool { return Is(err, fiber.StatusConflict) }
