package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

type Registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Location string `json:"location"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Register creates an employer account. It returns the server's message.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	return c.postJSON(ctx, "auth.register", "/auth/register", reg, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	_, err := c.postJSON(ctx, "auth.login", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, transport("auth.login", fmt.Errorf("response carried no token"))
	}
	return res, nil
}

// ResetPasswordDirect sets a new password for the employer account that
// owns email, without a reset link.
func (c *Client) ResetPasswordDirect(ctx context.Context, email, newPassword string) (string, error) {
	return c.postJSON(ctx, "auth.reset_password", "/auth/reset-password-direct", map[string]string{
		"email":       email,
		"newPassword": newPassword,
	}, nil)
}

func (e *Employer) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	return e.sendJSON(ctx, "auth.change_password", http.MethodPost, "/auth/change-password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, in, out any) (string, error) {
	body, err := jsonBody(in)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", endpoint, err)
	}
	return c.do(ctx, request{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, out)
}
