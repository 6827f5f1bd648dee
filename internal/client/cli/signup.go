package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/iudanet/authapi/pkg/api"
)

func (c *Cli) runSignUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	inactive := fs.Bool("inactive", false, "Register the account as inactive")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid signup arguments: %w", err)
	}

	c.io.Println("=== Sign Up ===")
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
	c.io.Println("Registering...")

	isActive := !*inactive
	resp, err := c.apiClient.SignUp(ctx, api.SignUpRequest{
		Email:    email,
		Password: password,
		IsActive: &isActive,
	})
	if err != nil {
		return err
	}

	if _, err := c.saveSession(ctx, resp); err != nil {
		return err
	}

	c.io.Println("✓ " + resp.Message)
	c.io.Printf("User ID: %s\n", resp.CurrentUser.ID)
	c.io.Printf("Email: %s\n", resp.CurrentUser.Email)
	if !resp.CurrentUser.IsActive {
		c.io.Println("⚠️  Account is inactive: sign in will be refused until it is activated.")
	}

	return nil
}
