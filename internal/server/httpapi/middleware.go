package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/labstack/echo/v4"
)

// principalKey is the echo.Context key holding the auth.Principal.
const principalKey = "principal"

// requireBearer authenticates "Authorization: Bearer <access token>" and puts
// the principal into both the echo context and the request context.
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, common.BearerScheme)
			return common.ErrTokenNotFound
		}

		p, err := s.gateway.Authenticate(token)
		if err != nil {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, common.BearerScheme+` error="invalid_token"`)
			return err
		}

		c.Set(principalKey, p)
		c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), p)))
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
