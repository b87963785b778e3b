package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ParseFlags parses args into fs and reports flag errors on errOut in the
// CLI's "error: ..." format. It returns the positional arguments and false
// if parsing failed.
func ParseFlags(fs *flag.FlagSet, args []string, errOut io.Writer) ([]string, bool) {
	fs.SetOutput(io.Discard) // We handle errors ourselves

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		switch {
		case strings.HasPrefix(errStr, "flag needs an argument:"):
			name := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", name)
		case strings.HasPrefix(errStr, "flag provided but not defined:"):
			name := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", name)
		default:
			fmt.Fprintf(errOut, "error: %s\n", errStr)
		}
		return nil, false
	}

	// A leading "-" after parsing means the flag came after "--"
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return nil, false
	}
	return positional, true
}
