package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authapi/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	c.printServerStatus(ctx)

	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'authapi-client signin' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Email: %s\n", session.Email)
	c.io.Printf("User ID: %s\n", session.UserID)

	if session.ExpiresAt == 0 {
		c.io.Println("Token expires: unknown")
		return nil
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)
	c.io.Printf("Token expires: %s\n", expiresAt.UTC().Format(time.RFC3339))

	if session.Expired(c.now()) {
		c.io.Println("⚠️  Token has expired. Please sign in again.")
	} else {
		c.io.Printf("Time remaining: %s\n", expiresAt.Sub(c.now()).Round(time.Second))
	}

	return nil
}

// printServerStatus недоступный сервер не ошибка команды: сессия хранится локально
func (c *Cli) printServerStatus(ctx context.Context) {
	health, err := c.apiClient.Health(ctx)
	if err != nil {
		c.io.Printf("Server: unreachable (%v)\n", err)
		return
	}
	if health.Version != "" {
		c.io.Printf("Server: %s (version %s)\n", health.Status, health.Version)
	} else {
		c.io.Printf("Server: %s\n", health.Status)
	}
}
