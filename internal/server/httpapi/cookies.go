package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rentdesk/internal/common"
)

func (s *Server) refreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    token,
		Path:     s.cookiePath,
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// clearedCookie expires the refresh cookie; MaxAge -1 is sent as Max-Age=0.
func (s *Server) clearedCookie() *http.Cookie {
	c := s.refreshCookie("")
	c.MaxAge = -1
	return c
}
