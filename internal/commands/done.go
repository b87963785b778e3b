package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/store"
)

func init() {
	Register(&DoneCmd{})
	Register(&PendingCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskdesk done <ref>" }
func (c *DoneCmd) NeedsAPI() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	return runTransition(ctx, cfg, st, st.MarkAsDone, args, out, errOut)
}

// PendingCmd reopens a completed task.
type PendingCmd struct{}

func (c *PendingCmd) Name() string      { return "pending" }
func (c *PendingCmd) Aliases() []string { return []string{"reopen"} }
func (c *PendingCmd) Synopsis() string  { return "Mark a task pending" }
func (c *PendingCmd) Usage() string     { return "taskdesk pending <ref>" }
func (c *PendingCmd) NeedsAPI() bool    { return true }

func (c *PendingCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PendingCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	return runTransition(ctx, cfg, st, st.MarkAsPending, args, out, errOut)
}

// runTransition is the shared implementation for done and pending.
func runTransition(ctx context.Context, cfg *config.Config, st *store.Store, mark func(context.Context, string) error, args []string, out, errOut io.Writer) int {
	task, err := lookupArgs(ctx, cfg, st, args)
	if err != nil {
		return report(errOut, err)
	}
	if err := mark(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return succeed(out, cfg.Quiet)
}
