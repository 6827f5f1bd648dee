package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/authapi/internal/client/api"
	pkgapi "github.com/iudanet/authapi/pkg/api"
)

func (c *Cli) runSignIn(ctx context.Context) error {
	c.io.Println("=== Sign In ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.getPassword()
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	resp, err := c.apiClient.SignIn(ctx, pkgapi.SignInRequest{Email: email, Password: password})
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("incorrect email or password: %w", err)
		}
		return err
	}

	session, err := c.saveSession(ctx, resp)
	if err != nil {
		return err
	}

	c.io.Println("✓ " + resp.Message)
	c.io.Printf("User ID: %s\n", session.UserID)
	if session.ExpiresAt != 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
	}

	return nil
}
