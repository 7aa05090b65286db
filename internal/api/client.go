// Package api implements the authenticated HTTP client for the chat service.
// Every call attaches the stored access token as a bearer credential and
// recovers from credential expiry with a single refresh-and-retry cycle.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cicada/internal/store"
)

// APIError carries the service's error description for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody is the optional error envelope on non-2xx responses. The service
// uses "error" for business failures and "detail" for framework ones.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  *store.TokenStore
	logger  *zap.Logger

	// Concurrent 401s join one in-flight refresh instead of racing their own.
	refreshGroup singleflight.Group
}

func NewClient(baseURL string, tokens *store.TokenStore, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		logger:  logger,
	}
}

// do performs one logical request and decodes the JSON response into out
// (which may be nil). On a 401 it refreshes the access token and retries
// exactly once; if the refresh itself fails the stored credentials are
// cleared, since a dead refresh token makes the session unrecoverable until
// the next login.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
	}

	status, data, err := c.roundTrip(ctx, method, path, payload, authed)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && authed {
		if rerr := c.refreshAccess(ctx); rerr != nil {
			c.logger.Warn("token refresh failed, clearing credentials", zap.Error(rerr))
			if cerr := c.tokens.Clear(); cerr != nil {
				c.logger.Warn("clearing credentials failed", zap.Error(cerr))
			}
			return apiErrorFrom(status, data)
		}
		status, data, err = c.roundTrip(ctx, method, path, payload, authed)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return apiErrorFrom(status, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// roundTrip issues a single HTTP request. The bearer header is attached when
// authed and an access token is stored; an absent token is permitted and the
// request simply goes out unauthenticated.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, authed bool) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authed {
		if access, ok := c.tokens.Access(); ok {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// refreshAccess exchanges the stored refresh token for a new access token and
// persists it. At most one refresh is in flight at a time; concurrent callers
// wait for and share its result.
func (c *Client) refreshAccess(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh, ok := c.tokens.Refresh()
		if !ok {
			return nil, fmt.Errorf("no refresh token stored")
		}

		payload, err := json.Marshal(map[string]string{"refresh": refresh})
		if err != nil {
			return nil, err
		}

		status, data, err := c.roundTrip(ctx, http.MethodPost, "/auth/refresh/", payload, false)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, apiErrorFrom(status, data)
		}

		var out struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		if out.Access == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}

		if err := c.tokens.SetAccess(out.Access); err != nil {
			return nil, err
		}
		c.logger.Debug("access token refreshed")
		return nil, nil
	})
	return err
}

func apiErrorFrom(status int, data []byte) error {
	var eb errorBody
	if len(data) > 0 {
		_ = json.Unmarshal(data, &eb)
	}
	msg := eb.Error
	if msg == "" {
		msg = eb.Detail
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
