// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"net/http"

	"taskdesk/internal/taskerr"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, unknown task).
	UserError = 1

	// AuthError indicates the API rejected the stored credentials.
	AuthError = 2

	// BackendError indicates an API, network or unexpected failure.
	BackendError = 3
)

// ForFailure classifies a failed API call by its error code and HTTP status.
func ForFailure(code taskerr.Code, status int) int {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthError
	case code == taskerr.CodeTaskNotFound || code.IsValidation():
		return UserError
	default:
		return BackendError
	}
}
