package httpapi

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/server/auth"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

func (s *HTTPServer) accessTokenMiddleware(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing token")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "missing token")
	}

	p, err := auth.PrincipalFromToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return errorResponse(c, fiber.StatusUnauthorized, "token_expired", "token expired")
		}
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "invalid token")
	}

	c.Locals(principalKey, *p)
	return c.Next()
}

func principalFrom(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalKey).(models.Principal)
	return p, ok
}
