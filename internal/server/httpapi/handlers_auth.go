package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type loginResponse struct {
	tokenResponse
	SubjectID   string   `json:"subject_id"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

type meResponse struct {
	SubjectID   string   `json:"subject_id"`
	Authorities []string `json:"authorities"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	res, err := s.gateway.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(s.refreshCookie(res.RefreshToken))
	return c.JSON(http.StatusOK, loginResponse{
		tokenResponse: newTokenResponse(res.AccessToken, res.AccessExpiresIn),
		SubjectID:     res.SubjectID,
		Username:      res.UserName,
		Authorities:   roleNames(res.Roles),
	})
}

func (s *Server) handleRefresh(c echo.Context) error {
	cookie, err := c.Cookie(common.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return common.ErrTokenNotFound
	}

	pair, err := s.gateway.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return err
	}

	c.SetCookie(s.refreshCookie(pair.RefreshToken))
	return c.JSON(http.StatusOK, newTokenResponse(pair.AccessToken, pair.AccessExpiresIn))
}

// handleLogout clears the cookie and answers 204 whatever the token was.
// A storage failure is passed on to the error handler.
func (s *Server) handleLogout(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(common.RefreshCookieName); err == nil {
		token = cookie.Value
	}
	c.SetCookie(s.clearedCookie())

	if err := s.gateway.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	p, ok := c.Get(principalKey).(auth.Principal)
	if !ok {
		return common.ErrTokenNotFound
	}
	return c.JSON(http.StatusOK, meResponse{SubjectID: p.Subject, Authorities: roleNames(p.Roles)})
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.ready != nil {
		if err := s.ready(c.Request().Context()); err != nil {
			s.log.Warn(c.Request().Context(), "readiness check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func newTokenResponse(access string, ttl time.Duration) tokenResponse {
	return tokenResponse{AccessToken: access, TokenType: common.BearerScheme, ExpiresIn: int64(ttl.Seconds())}
}

func roleNames(rs []auth.Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}
