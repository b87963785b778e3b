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
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd prints one table per priority, most urgent first.
type BoardCmd struct {
	page  int
	limit int
}

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return nil }
func (c *BoardCmd) Synopsis() string  { return "List tasks grouped by priority" }
func (c *BoardCmd) Usage() string     { return "taskdesk board [--page <n>] [--limit <n>]" }
func (c *BoardCmd) NeedsAPI() bool    { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.page, "page", service.DefaultPage, "")
	fs.IntVar(&c.limit, "limit", 0, "")
}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
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

	p := output.NewPrinter(out)
	for i, prio := range service.Priorities {
		// Partial failure: sections already printed stay on screen
		if err := st.FetchTasksByPriority(ctx, prio, c.page, limit); err != nil {
			return report(errOut, err)
		}
		coll, _ := st.ByPriority(prio)

		if i > 0 {
			fmt.Fprintln(out)
		}
		letter := PriorityLetter(prio)
		p.Section(fmt.Sprintf("%s (%s)", prio.Label(), letter))
		p.Tasks(coll.Tasks, letter)
		if !cfg.Quiet {
			p.Pagination(coll.Pagination, coll.Stale)
		}
	}
	return exitcode.Success
}
