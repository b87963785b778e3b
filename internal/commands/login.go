package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/store"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd stores a bearer token sent with every API request.
type LoginCmd struct {
	token   string
	expires time.Duration
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Store an API token" }
func (c *LoginCmd) Usage() string     { return "taskdesk login --token <token> [--expires <duration>]" }
func (c *LoginCmd) NeedsAPI() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "")
	fs.DurationVar(&c.expires, "expires", 0, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	token := strings.TrimSpace(c.token)
	if token == "" {
		// Check if already logged in (token exists and is readable)
		if _, err := cfg.LoadToken(); err == nil {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
		fmt.Fprintln(errOut, "error: token required (run: taskdesk login --token <token>)")
		return exitcode.AuthError
	}
	if c.expires < 0 {
		fmt.Fprintf(errOut, "error: invalid expiry: %s\n", c.expires)
		return exitcode.UserError
	}

	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if c.expires > 0 {
		tok.Expiry = time.Now().Add(c.expires)
	}

	if err := cfg.SaveToken(tok); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	return succeed(out, cfg.Quiet)
}
