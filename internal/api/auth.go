package api

import (
	"context"
	"net/http"

	"cicada/internal/models"
)

// LoginResponse is the success body of POST /auth/login/.
type LoginResponse struct {
	User    models.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	Message string      `json:"message"`
}

// RegisterRequest is the body of POST /auth/register/. First and last name
// are optional.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RegisterResponse is the success body of POST /auth/register/. The identity
// is returned inline; token fields are decoded when the service includes
// them.
type RegisterResponse struct {
	User    models.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	Message string      `json:"message"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. Registration is pre-session, so no bearer
// credential is attached.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the stored refresh token server-side. Local cleanup is
// the session controller's job and happens regardless of this call's outcome.
func (c *Client) Logout(ctx context.Context) error {
	refresh, _ := c.tokens.Refresh()
	body := map[string]string{"refresh": refresh}
	return c.do(ctx, http.MethodPost, "/auth/logout/", body, nil, true)
}

// Profile fetches the current user's identity.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile/", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
