package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/authapi/internal/client/api"
	"github.com/iudanet/authapi/internal/client/storage"
)

// ErrNotAuthenticated нет действующей сессии
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'authapi-client signin' first")

func (c *Cli) runProfile(ctx context.Context) error {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired(c.now()) {
		return fmt.Errorf("session expired: %w", ErrNotAuthenticated)
	}

	user, err := c.apiClient.Profile(ctx, session.AccessToken)
	if err != nil {
		if api.IsUnauthorized(err) {
			// Токен отвергнут сервером: сессия больше не нужна
			if delErr := c.sessions.DeleteSession(ctx); delErr != nil && !errors.Is(delErr, storage.ErrSessionNotFound) {
				return fmt.Errorf("failed to delete rejected session: %w", delErr)
			}
			return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return err
	}

	c.io.Println("=== Profile ===")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Email: %s\n", user.Email)
	c.io.Printf("Active: %t\n", user.IsActive)

	return nil
}
