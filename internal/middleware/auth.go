package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// TokenResolver turns a bearer token into the account it was issued for.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (models.User, error)
}

// Authenticate validates the bearer token of the request and stores the caller
// identity in the user_id and user_role locals.
func Authenticate(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		token := strings.TrimSpace(authorization[len(bearer):])
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		user, err := resolver.ResolveToken(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountPending):
				return utils.SendError(c, fiber.StatusForbidden, err.Error())
			case errors.Is(err, service.ErrUnauthenticated):
				return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
			default:
				return utils.SendError(c, fiber.StatusInternalServerError, "failed to authenticate request")
			}
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}
