// Package validate checks task forms before they are sent to the API.
// It is advisory: the API remains the authority on every rule.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskdesk/internal/service"
)

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "priority", func(fl validator.FieldLevel) bool {
		_, ok := service.ParsePriority(fl.Field().String())
		return ok
	})
	mustRegister(v, "status", func(fl validator.FieldLevel) bool {
		_, ok := service.ParseStatus(fl.Field().String())
		return ok
	})
	mustRegister(v, "taskdate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// CreateForm is a new task as entered by the user.
type CreateForm struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"required,priority"`
	DueDate     string `json:"dueDate" validate:"required,taskdate"`
}

// UpdateForm is an edited task as entered by the user.
type UpdateForm struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"required,priority"`
	DueDate     string `json:"dueDate" validate:"required,taskdate"`
	Status      string `json:"status" validate:"required,status"`
}

// FieldError is one failed rule, ready for inline display.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists failed rules in field order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for field, or "".
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// Create validates f. It returns nil or Errors.
func Create(f CreateForm) error {
	return run(f)
}

// Update validates f. It returns nil or Errors.
func Update(f UpdateForm) error {
	return run(f)
}

// Input converts a valid form into an API payload.
func (f CreateForm) Input() (service.TaskInput, error) {
	if err := Create(f); err != nil {
		return service.TaskInput{}, err
	}
	p, _ := service.ParsePriority(f.Priority)
	due, _ := ParseDate(f.DueDate)
	return service.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Priority:    p,
		DueDate:     &due,
	}, nil
}

// Input converts a valid form into an API payload.
func (f UpdateForm) Input() (service.TaskInput, error) {
	if err := Update(f); err != nil {
		return service.TaskInput{}, err
	}
	p, _ := service.ParsePriority(f.Priority)
	s, _ := service.ParseStatus(f.Status)
	due, _ := ParseDate(f.DueDate)
	return service.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Priority:    p,
		Status:      s,
		DueDate:     &due,
	}, nil
}

// FormFromTask prefills an UpdateForm with the current values of t.
func FormFromTask(t service.Task) UpdateForm {
	return UpdateForm{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate.UTC().Format(time.RFC3339),
		Status:      string(t.Status),
	}
}

// DateLayouts are the accepted due date formats, tried in order.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
	"02/01/2006",
}

// ErrInvalidDate is returned by ParseDate for unparseable input.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses s with the first matching layout in DateLayouts.
// Inputs without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func run(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}
