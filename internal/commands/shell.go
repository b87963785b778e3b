package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/store"
)

// Prompt is printed before each shell line unless quiet.
const Prompt = "taskdesk> "

func init() {
	Register(&ShellCmd{})
}

// ShellCmd runs commands read line by line against one store, so lists
// fetched by one command are what the references of the next one select.
type ShellCmd struct {
	// Registry resolves command names; nil means DefaultRegistry.
	Registry *Registry

	// In is read for command lines; nil means os.Stdin.
	In io.Reader
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Run commands in one interactive session" }
func (c *ShellCmd) Usage() string     { return "taskdesk shell" }
func (c *ShellCmd) NeedsAPI() bool    { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	in := c.In
	if in == nil {
		in = os.Stdin
	}

	sc := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(out, Prompt)
		}
		if !sc.Scan() || ctx.Err() != nil {
			break
		}

		line, err := splitArgs(sc.Text())
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == "exit" || line[0] == "quit" {
			return exitcode.Success
		}

		cmd, found := reg.Find(line[0])
		if !found {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", line[0])
			continue
		}
		if cmd.Name() == c.Name() {
			fmt.Fprintln(errOut, "error: already in a shell")
			continue
		}

		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.RegisterFlags(fs)
		rest, parsed := ParseFlags(fs, line[1:], errOut)
		if !parsed {
			continue
		}
		cmd.Run(ctx, cfg, st, rest, out, errOut)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(errOut, "error: reading input: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a command line on spaces, keeping single- or
// double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
