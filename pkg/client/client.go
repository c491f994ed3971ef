// Package client is a Go client for the inventory API that keeps its caller
// continuously authenticated. The access token lives only in this process's
// memory; the refresh token travels exclusively in the HTTP-only cookie held
// by the client's cookie jar. Concurrent callers that need a token refresh
// share one in-flight network call instead of issuing duplicates.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// expirySkew is the safety buffer before the embedded expiry within which
	// a token is treated as already stale.
	expirySkew = 5 * time.Second
	// refreshTimeout bounds a single refresh call so queued callers are never
	// blocked indefinitely.
	refreshTimeout = 10 * time.Second
)

// ErrUnauthorized is returned when the server rejects the session and no
// refresh could recover it. Callers should transition to logged-out.
var ErrUnauthorized = errors.New("client: unauthorized")

// User is the identity summary returned by the auth endpoints. It is a
// display hint only; access-control decisions belong to the server-verified
// token claims.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type authResponse struct {
	User        User     `json:"user"`
	Permissions []string `json:"permissions"`
	AccessToken string   `json:"access_token"`
}

// Client coordinates authenticated calls against one API base URL. Safe for
// concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client
	group   singleflight.Group

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	user        User
	permissions []string
}

// New builds a Client with its own cookie jar. The jar is what carries the
// refresh-token cookie between calls; discarding the Client discards the
// session.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Jar: jar},
	}, nil
}

// Login authenticates and primes the in-memory session. The server sets the
// refresh cookie on this response; the jar keeps it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: login: unexpected status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("client: login: decode response: %w", err)
	}
	c.setSession(auth)
	return nil
}

// Logout ends the session server-side (revoking every device) and clears the
// in-memory state. Always succeeds locally.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return err
	}
	if resp, err := c.hc.Do(req); err == nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.accessToken = ""
	c.expiresAt = time.Time{}
	c.user = User{}
	c.permissions = nil
	c.mu.Unlock()
	return nil
}

// Profile returns the cached identity summary and permission codes. These are
// display hints for UI purposes, never an authorization source of truth.
func (c *Client) Profile() (User, []string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken == "" {
		return User{}, nil, false
	}
	perms := make([]string, len(c.permissions))
	copy(perms, c.permissions)
	return c.user, perms, true
}

// Do executes req with bearer authentication:
//
//  1. If no access token is held, or its embedded expiry is within the safety
//     buffer, a coordinated refresh runs (or is awaited) first.
//  2. The access token is attached as a bearer credential; the cookie jar
//     rides along on every call.
//  3. On a 401 response, exactly one refresh is triggered (or awaited) and
//     the request is retried once. If the refresh fails, the original 401 is
//     returned and the caller should treat the session as over.
//
// Requests with a non-replayable body (GetBody == nil) skip the retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	tok, fresh := c.heldToken()
	if !fresh {
		// A failed pre-emptive refresh still sends the request; the server's
		// 401 is the authoritative answer.
		if err := c.refresh(req.Context(), tok); err == nil {
			tok, _ = c.heldToken()
		}
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	retry, ok := cloneForRetry(req)
	if !ok {
		return resp, nil
	}
	if err := c.refresh(req.Context(), tok); err != nil {
		return resp, nil
	}
	newTok, _ := c.heldToken()
	if newTok == "" || newTok == tok {
		return resp, nil
	}

	resp.Body.Close()
	retry.Header.Set("Authorization", "Bearer "+newTok)
	return c.hc.Do(retry)
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("client: GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("client: POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// refresh performs (or awaits) the single in-flight refresh call. The
// singleflight group is the shared future: all concurrent callers receive the
// same result, and a failure clears the in-flight state so the next attempt
// starts fresh. seen is the token the caller last observed; if another flight
// already replaced it, no network call is made.
func (c *Client) refresh(ctx context.Context, seen string) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		c.mu.RLock()
		current := c.accessToken
		c.mu.RUnlock()
		if current != "" && current != seen {
			return nil, nil
		}
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: refresh: unexpected status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("client: refresh: decode response: %w", err)
	}
	c.setSession(auth)
	return nil
}

// heldToken returns the in-memory access token and whether it is still
// outside the expiry safety buffer.
func (c *Client) heldToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken == "" {
		return "", false
	}
	if !c.expiresAt.IsZero() && time.Until(c.expiresAt) < expirySkew {
		return c.accessToken, false
	}
	return c.accessToken, true
}

// setSession updates the token and the identity/permission summaries
// atomically.
func (c *Client) setSession(auth authResponse) {
	exp, err := tokenExpiry(auth.AccessToken)
	if err != nil {
		// Without a readable expiry the token is still usable; the server's
		// 401 path covers staleness.
		exp = time.Time{}
	}

	c.mu.Lock()
	c.accessToken = auth.AccessToken
	c.expiresAt = exp
	c.user = auth.User
	c.permissions = auth.Permissions
	c.mu.Unlock()
}

func cloneForRetry(req *http.Request) (*http.Request, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Clone(req.Context()), true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, true
}

// tokenExpiry reads the exp claim from a JWT payload without verifying the
// signature. The client cannot verify an HMAC token; it only needs the expiry
// to schedule refreshes, and the server re-verifies everything anyway.
func tokenExpiry(raw string) (time.Time, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return time.Time{}, errors.New("not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.Exp == 0 {
		return time.Time{}, errors.New("exp claim missing")
	}
	return time.Unix(claims.Exp, 0), nil
}
