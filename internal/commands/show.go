package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/store"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints the details of one task as the API currently has it.
type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"view"} }
func (c *ShowCmd) Synopsis() string  { return "Show task details" }
func (c *ShowCmd) Usage() string     { return "taskdesk show <ref>" }
func (c *ShowCmd) NeedsAPI() bool    { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	cached, err := lookupArgs(ctx, cfg, st, args)
	if err != nil {
		return report(errOut, err)
	}

	task, err := st.ShowTask(ctx, cached.ID)
	if err != nil {
		return report(errOut, err)
	}

	output.NewPrinter(out).Detail(task)
	return exitcode.Success
}
