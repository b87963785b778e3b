package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/store"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskdesk rm <ref>" }
func (c *RmCmd) NeedsAPI() bool    { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	task, err := lookupArgs(ctx, cfg, st, args)
	if err != nil {
		return report(errOut, err)
	}
	if err := st.DeleteTask(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return succeed(out, cfg.Quiet)
}
