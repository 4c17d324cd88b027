package cli

import (
	"context"
	"errors"
	"fmt"
)

// LoginOptions defines the flags of sellctl login.
type LoginOptions struct {
	Output
	Email    string
	Password string
}

// LoginCommand exchanges credentials for a token and prints it.
func (c *OpsCLI) LoginCommand(ctx context.Context, opts LoginOptions) int {
	opts.defaults()
	if opts.Email == "" || opts.Password == "" {
		return opts.fail("login", errors.New("--email and --password are required"))
	}
	user, err := c.client.Login(ctx, opts.Email, opts.Password)
	if err != nil {
		return opts.fail("login", err)
	}
	if opts.JSONOutput {
		return opts.printJSON("login", map[string]any{"token": c.client.Token(), "user": user})
	}
	_, _ = fmt.Fprintf(opts.Stderr, "signed in as %s (%s)\n", user.Email, user.Role)
	_, _ = fmt.Fprintf(opts.Stdout, "export SELLCTL_TOKEN=%s\n", c.client.Token())
	return 0
}
