// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/logging"
	"taskdesk/internal/store"
)

// StoreFactory creates the session store from config.
// Used to inject the backend during dispatch.
type StoreFactory func(ctx context.Context, cfg *config.Config) (*store.Store, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  StoreFactory
	gatherer prometheus.Gatherer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGatherer logs a request summary from g after each command run with
// --debug.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(d *Dispatcher) { d.gatherer = g }
}

// NewDispatcher creates a new dispatcher with the given registry and store factory.
func NewDispatcher(registry *commands.Registry, factory StoreFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		args = []string{"list"}
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)

	// Common flags
	var (
		configDir string
		apiURL    string
		quiet     bool
		debug     bool
	)
	fs.StringVar(&configDir, "config", "", "")
	fs.StringVar(&apiURL, "api-url", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	positional, ok := commands.ParseFlags(fs, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	logger := logging.Setup(errOut, debug)

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	logger.Debug("config loaded", "dir", cfg.Dir, "api", cfg.APIBaseURL, "page_size", cfg.PageSize)

	var st *store.Store
	if cmd.NeedsAPI() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		st, err = d.factory(ctx, cfg)
		if err != nil {
			if errors.Is(err, config.ErrInvalidToken) {
				fmt.Fprintf(errOut, "error: auth error: %s (run: taskdesk login)\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
	}

	code := cmd.Run(ctx, cfg, st, positional, out, errOut)

	if debug && d.gatherer != nil {
		if err := restapi.LogSummary(logger, d.gatherer); err != nil {
			logger.Debug("metrics unavailable", "error", err)
		}
	}
	return code
}
