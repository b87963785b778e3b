package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/store"
	"taskdesk/internal/validate"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd fetches a task, applies the given changes, and sends the whole
// edited form back.
type EditCmd struct {
	title       string
	description string
	priority    string
	due         string
	status      string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskdesk edit [--title <t>] [--description <d>] [--priority <p>] [--due <date>] [--status <s>] <ref>"
}
func (c *EditCmd) NeedsAPI() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.status, "status", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if c.title == "" && c.description == "" && c.priority == "" && c.due == "" && c.status == "" {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	cached, err := lookupArgs(ctx, cfg, st, args)
	if err != nil {
		return report(errOut, err)
	}

	// The form starts from the API's copy, not the cached row
	current, err := st.ShowTask(ctx, cached.ID)
	if err != nil {
		return report(errOut, err)
	}

	form := validate.FormFromTask(current)
	if c.title != "" {
		form.Title = c.title
	}
	if c.description != "" {
		form.Description = c.description
	}
	if c.priority != "" {
		form.Priority = c.priority
	}
	if c.due != "" {
		form.DueDate = c.due
	}
	if c.status != "" {
		form.Status = c.status
	}

	in, err := form.Input()
	if err != nil {
		return report(errOut, err)
	}

	if _, err := st.UpdateTask(ctx, current.ID, in); err != nil {
		return report(errOut, err)
	}
	return succeed(out, cfg.Quiet)
}
