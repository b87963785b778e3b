// Package taskerr decodes API error codes into a closed set and maps them
// to the localized messages shown to users.
package taskerr

import (
	"errors"
	"fmt"
)

// Code is an API error code. The zero value is CodeUnknown.
type Code int

const (
	CodeUnknown Code = iota
	CodeTaskNotFound
	CodeDueDateRequired
	CodeDueDateMustBeGreaterThanNow
	CodeTitleIsRequired
	CodeDescriptionIsRequired
	CodePriorityIsRequired
	CodeInvalidPriority
	CodeStatusIsRequired
	CodeInvalidStatus
	CodeInvalidID
	CodeInvalidDueDate
	CodeDateIsRequired
	CodeDateIsInvalid
)

// DefaultMessage is shown for every failure without a known code.
const DefaultMessage = "Ocurrió un error inesperado al obtener las tareas."

type entry struct {
	wire    string
	message string
}

var table = map[Code]entry{
	CodeTaskNotFound:                {"TASK_NOT_FOUND", "La tarea no fue encontrada."},
	CodeDueDateRequired:             {"DUE_DATE_REQUIRED", "La fecha de vencimiento es obligatoria."},
	CodeDueDateMustBeGreaterThanNow: {"DUE_DATE_MUST_BE_GREATER_THAN_NOW", "La fecha de vencimiento debe ser mayor a la fecha actual."},
	CodeTitleIsRequired:             {"TITLE_IS_REQUIRED", "El título es obligatorio."},
	CodeDescriptionIsRequired:       {"DESCRIPTION_IS_REQUIRED", "La descripción es obligatoria."},
	CodePriorityIsRequired:          {"PRIORITY_IS_REQUIRED", "La prioridad es obligatoria."},
	CodeInvalidPriority:             {"INVALID_PRIORITY", "La prioridad proporcionada no es válida."},
	CodeStatusIsRequired:            {"STATUS_IS_REQUIRED", "El estado es obligatorio."},
	CodeInvalidStatus:               {"INVALID_STATUS", "El estado proporcionado no es válido."},
	CodeInvalidID:                   {"INVALID_ID", "El identificador proporcionado no es válido."},
	CodeInvalidDueDate:              {"INVALID_DUEDATE", "La fecha de vencimiento proporcionada no es válida."},
	CodeDateIsRequired:              {"DATE_IS_REQUIRED", "La fecha es obligatoria."},
	CodeDateIsInvalid:               {"DATE_IS_INVALID", "La fecha proporcionada no es válida."},
}

var byWire = func() map[string]Code {
	m := make(map[string]Code, len(table))
	for c, e := range table {
		m[e.wire] = c
	}
	return m
}()

// Codes returns every known code, excluding CodeUnknown, in declaration order.
func Codes() []Code {
	out := make([]Code, 0, len(table))
	for c := CodeTaskNotFound; c <= CodeDateIsInvalid; c++ {
		out = append(out, c)
	}
	return out
}

// ParseCode decodes a wire code. Unrecognized codes yield CodeUnknown.
func ParseCode(s string) Code {
	if c, ok := byWire[s]; ok {
		return c
	}
	return CodeUnknown
}

// String returns the wire form of c.
func (c Code) String() string {
	if e, ok := table[c]; ok {
		return e.wire
	}
	return "UNKNOWN"
}

// Message returns the localized message for c.
func (c Code) Message() string {
	if e, ok := table[c]; ok {
		return e.message
	}
	return DefaultMessage
}

// IsValidation reports whether c describes a rejected payload or identifier,
// as opposed to a missing resource or an unexpected failure.
func (c Code) IsValidation() bool {
	switch c {
	case CodeUnknown, CodeTaskNotFound:
		return false
	}
	_, ok := table[c]
	return ok
}

// ServiceError is a non-success API response.
type ServiceError struct {
	Code    Code
	Status  int
	Raw     string // code as sent by the API, kept for logs
	Message string
}

// NewServiceError builds a ServiceError from a wire code and HTTP status.
func NewServiceError(status int, raw string) *ServiceError {
	code := ParseCode(raw)
	return &ServiceError{
		Code:    code,
		Status:  status,
		Raw:     raw,
		Message: code.Message(),
	}
}

func (e *ServiceError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Raw, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// CodeOf returns the code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// Message maps any error to the text users see. It never fails:
// nil, foreign errors and unknown codes all yield DefaultMessage.
func Message(err error) string {
	return CodeOf(err).Message()
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
