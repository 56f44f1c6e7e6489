// Package authclient talks to the back office auth endpoints over HTTP.
//
// The client keeps the current access token and the refresh token taken from
// the refresh_token cookie. Refresh and Logout send that token back as the
// cookie; Me authenticates with the access token as a bearer credential.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type LoginResponse struct {
	TokenResponse
	SubjectID   string   `json:"subject_id"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

type MeResponse struct {
	SubjectID   string   `json:"subject_id"`
	Authorities []string `json:"authorities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New returns a client for the server at baseURL. A nil hc gets a client
// with the given timeout.
func New(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Login(ctx context.Context, username string, password []byte) (*LoginResponse, error) {
	body, err := json.Marshal(struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, string(password)})
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(body)

	var out LoginResponse
	resp, err := c.do(ctx, http.MethodPost, common.AuthPathPrefix+"/login", body, false, &out)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.refreshToken = refreshFrom(resp, c.refreshToken)
	c.mu.Unlock()
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context) (*TokenResponse, error) {
	if c.RefreshToken() == "" {
		return nil, ErrNotLoggedIn
	}

	var out TokenResponse
	resp, err := c.do(ctx, http.MethodPost, common.AuthPathPrefix+"/refresh", nil, false, &out)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.forget()
		}
		return nil, err
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.refreshToken = refreshFrom(resp, c.refreshToken)
	c.mu.Unlock()
	return &out, nil
}

// Logout ends the server session. Local tokens are dropped even when the
// request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.forget()
	if c.RefreshToken() == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, common.AuthPathPrefix+"/logout", nil, false, nil)
	return err
}

func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	c.mu.Lock()
	loggedIn := c.accessToken != ""
	c.mu.Unlock()
	if !loggedIn {
		return nil, ErrNotLoggedIn
	}

	var out MeResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/me", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

func (c *Client) forget() {
	c.mu.Lock()
	c.accessToken, c.refreshToken = "", ""
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, bearer bool, out any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	if bearer {
		req.Header.Set("Authorization", common.BearerScheme+" "+c.accessToken)
	}
	if c.refreshToken != "" && strings.HasPrefix(path, common.AuthPathPrefix) {
		req.AddCookie(&http.Cookie{Name: common.RefreshCookieName, Value: c.refreshToken})
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}

	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er)
	msg := er.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
	}
}

// refreshFrom returns the refresh token set by resp, or current if the
// response did not touch the cookie.
func refreshFrom(resp *http.Response, current string) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == common.RefreshCookieName {
			if ck.MaxAge < 0 {
				return ""
			}
			return ck.Value
		}
	}
	return current
}
