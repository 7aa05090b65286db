// Package session owns the current-user identity. One explicitly-constructed
// Controller is injected into the UI; there is no ambient session singleton.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cicada/internal/api"
	"cicada/internal/models"
	"cicada/internal/store"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusUnchecked Status = iota
	StatusChecking
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnchecked:
		return "unchecked"
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type Controller struct {
	client *api.Client
	tokens *store.TokenStore
	logger *zap.Logger

	mu      sync.Mutex
	status  Status
	user    *models.User
	checked bool
}

func NewController(client *api.Client, tokens *store.TokenStore, logger *zap.Logger) *Controller {
	return &Controller{
		client: client,
		tokens: tokens,
		logger: logger,
		status: StatusUnchecked,
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// User returns a copy of the current identity, or nil when anonymous.
func (c *Controller) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// CheckSession resolves the startup session state by fetching the profile.
// It runs at most once per controller lifetime; later calls return the
// already-resolved (or still in-flight) status without another fetch.
func (c *Controller) CheckSession(ctx context.Context) Status {
	c.mu.Lock()
	if c.checked {
		s := c.status
		c.mu.Unlock()
		return s
	}
	c.checked = true
	c.status = StatusChecking
	c.mu.Unlock()

	user, err := c.client.Profile(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Info("session check: not authenticated", zap.Error(err))
		c.user = nil
		c.status = StatusAnonymous
		return c.status
	}
	c.user = user
	c.status = StatusAuthenticated
	return c.status
}

// Login authenticates, stores the returned credential pair, and fetches a
// fresh profile. On failure the session state is left untouched and the
// error is returned for display.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	resp, err := c.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.tokens.SetPair(resp.Access, resp.Refresh); err != nil {
		return err
	}

	user, err := c.client.Profile(ctx)
	if err != nil {
		// Credentials are valid; fall back to the identity from the login
		// response rather than failing the whole login.
		c.logger.Warn("profile fetch after login failed", zap.Error(err))
		u := resp.User
		user = &u
	}

	c.mu.Lock()
	c.user = user
	c.status = StatusAuthenticated
	c.mu.Unlock()
	return nil
}

// Register creates an account and authenticates with the inline identity;
// no extra profile fetch is made. Token fields are stored when the service
// returns them.
func (c *Controller) Register(ctx context.Context, username, email, password, firstName, lastName string) error {
	resp, err := c.client.Register(ctx, api.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return err
	}

	if resp.Access != "" && resp.Refresh != "" {
		if err := c.tokens.SetPair(resp.Access, resp.Refresh); err != nil {
			return err
		}
	}

	c.mu.Lock()
	u := resp.User
	c.user = &u
	c.status = StatusAuthenticated
	c.mu.Unlock()
	return nil
}

// Logout ends the session. The server call is best effort; local cleanup is
// unconditional so the user can always leave an authenticated state.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.client.Logout(ctx); err != nil {
		c.logger.Warn("logout request failed", zap.Error(err))
	}
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("clearing credentials failed", zap.Error(err))
	}

	c.mu.Lock()
	c.user = nil
	c.status = StatusAnonymous
	c.mu.Unlock()
}
