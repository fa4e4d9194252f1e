package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Bind parses the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("Format data tidak valid")
	}
	return Validate(dst)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.BadRequest(fmt.Sprintf("Field %s tidak valid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return apperr.BadRequest(err.Error())
}

// ParamUint reads a positive numeric route parameter.
func ParamUint(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.BadRequest("Parameter " + name + " tidak valid")
	}
	return uint(n), nil
}

// QueryUint reads an optional numeric query parameter; nil when absent.
func QueryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.BadRequest("Parameter " + name + " tidak valid")
	}
	v := uint(n)
	return &v, nil
}
