package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"taskdesk/internal/service"
)

var required = map[string]string{
	"title":    "El titulo es requerido",
	"priority": "La prioridad es requerida",
	"dueDate":  "La fecha de vencimiento es requerida",
	"status":   "El estado es requerido",
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		if m, ok := required[fe.Field()]; ok {
			return m
		}
		return "Campo requerido"
	case "priority":
		return "La prioridad debe ser una de: " + priorityLabels()
	case "status":
		return "El estado debe ser uno de: " + statusLabels()
	case "taskdate":
		return "La fecha de vencimiento no es una fecha válida"
	}
	return "Valor no válido"
}

func priorityLabels() string {
	labels := make([]string, len(service.Priorities))
	for i, p := range service.Priorities {
		labels[i] = p.Label()
	}
	return strings.Join(labels, ", ")
}

func statusLabels() string {
	return service.StatusPending.Label() + ", " + service.StatusDone.Label()
}
