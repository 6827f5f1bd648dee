package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCommand команда не распознана
var ErrUnknownCommand = errors.New("unknown command")

func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return c.runSignUp(ctx, args)
	case "signin":
		return c.runSignIn(ctx)
	case "profile":
		return c.runProfile(ctx)
	case "status":
		return c.runStatus(ctx)
	case "logout":
		return c.runLogout(ctx)
	default:
		c.PrintUsage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
