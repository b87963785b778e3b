package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
	"taskdesk/internal/store"
	"taskdesk/internal/validate"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskdesk` (no args) and `taskdesk list [filters]`.
type ListCmd struct {
	page     int
	limit    int
	priority string
	status   string
	title    string
	due      string
	filter   string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskdesk list [--page <n>] [--limit <n>] [--priority <p>] [--status <s>] [--title <t>] [--due <date>] [--filter <t>]"
}
func (c *ListCmd) NeedsAPI() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.page, "page", service.DefaultPage, "")
	fs.IntVar(&c.limit, "limit", 0, "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.filter, "filter", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", c.page)
		return exitcode.UserError
	}
	limit, ok := pageLimit(c.limit, cfg, errOut)
	if !ok {
		return exitcode.UserError
	}

	filters, err := c.filters()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := st.FetchTasks(ctx, c.page, limit, filters); err != nil {
		return report(errOut, err)
	}

	coll := st.General()
	rows := output.NumberRows(coll.Tasks, "")
	if c.filter != "" {
		rows = output.FilterRows(rows, c.filter)
	}

	p := output.NewPrinter(out)
	p.Table(rows)
	if !cfg.Quiet {
		p.Pagination(coll.Pagination, coll.Stale)
	}
	return exitcode.Success
}

func (c *ListCmd) filters() (service.Filters, error) {
	var f service.Filters
	if c.priority != "" {
		p, ok := service.ParsePriority(c.priority)
		if !ok {
			return f, fmt.Errorf("invalid priority: %s", c.priority)
		}
		f.Priority = p
	}
	if c.status != "" {
		s, ok := service.ParseStatus(c.status)
		if !ok {
			return f, fmt.Errorf("invalid status: %s", c.status)
		}
		f.Status = s
	}
	if c.due != "" {
		d, err := validate.ParseDate(c.due)
		if err != nil {
			return f, fmt.Errorf("invalid due date: %s", c.due)
		}
		f.DueDate = d.Format("2006-01-02")
	}
	f.Title = c.title
	return f, nil
}

// pageLimit resolves a --limit value, falling back to the configured page size.
func pageLimit(limit int, cfg *config.Config, errOut io.Writer) (int, bool) {
	switch {
	case limit < 0:
		fmt.Fprintf(errOut, "error: invalid limit: %d\n", limit)
		return 0, false
	case limit == 0:
		return cfg.PageSize, true
	default:
		return limit, true
	}
}
