package auth

import (
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

const CtxActorKey = "actor"

// Middleware authenticates the bearer token and loads the employee profile.
func Middleware(verifier IdentityVerifier, profiles ProfileStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Unauthorized("Header Authorization tidak ada")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Unauthorized("Format Authorization harus 'Bearer <token>'")
		}

		identity, err := verifier.Verify(c.UserContext(), parts[1])
		if err != nil {
			return err
		}

		actor, err := profiles.ProfileByUID(c.UserContext(), identity.UID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return apperr.Unauthorized("Profil karyawan tidak terdaftar")
			}
			return err
		}

		c.Locals(CtxActorKey, actor)
		return c.Next()
	}
}

// Require rejects actors the policy does not allow to perform action.
func Require(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return apperr.Unauthorized("Belum login")
		}
		if !Can(actor, action) {
			return apperr.Forbidden("Anda tidak memiliki akses untuk tindakan ini")
		}
		return c.Next()
	}
}

func ActorFrom(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(CtxActorKey).(Actor)
	return actor, ok
}

// MustActor is for handlers mounted behind Middleware.
func MustActor(c *fiber.Ctx) (Actor, error) {
	actor, ok := ActorFrom(c)
	if !ok {
		return Actor{}, apperr.Unauthorized("Belum login")
	}
	return actor, nil
}
