package commands

import (
	"errors"
	"fmt"
	"io"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/store"
	"taskdesk/internal/validate"
)

// report prints err on errOut and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var ae *store.ActionError
	var verrs validate.Errors
	switch {
	case errors.As(err, &ae):
		fmt.Fprintf(errOut, "error: %s\n", ae.Message)
		return exitcode.ForFailure(ae.Code, ae.Status)
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fmt.Fprintf(errOut, "error: %s: %s\n", fe.Field, fe.Message)
		}
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
}

// succeed prints the success marker unless quiet.
func succeed(out io.Writer, quiet bool) int {
	if !quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
