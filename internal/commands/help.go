package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/store"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. Usage lines come from the registry.
type HelpCmd struct {
	// Registry lists the commands to describe; nil means DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdesk help [command]" }
func (c *HelpCmd) NeedsAPI() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, found := reg.Find(args[0])
		if !found {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		fmt.Fprintf(out, "Usage:\n  %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
		return exitcode.Success
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %-16s %s\n", "taskdesk", "List tasks (same as list)")
	for _, cmd := range reg.All() {
		fmt.Fprintf(out, "  %-16s %s\n", "taskdesk "+cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
References:
  3                Row 3 of the last listed page
  h2, m1, l4       Row of the high, medium or low board section
  <id>             Task ID as returned by the API

Common flags:
  --config <dir>   Override config directory
  --api-url <url>  Override the API base URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
