// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"taskdesk/internal/service"
)

// Column headers of the task table.
var Headers = []string{"#", "Titulo", "Prioridad", "Estado", "Fecha de vencimiento"}

const detailLabelWidth = 12

// EmptyMessage is printed instead of an empty table.
const EmptyMessage = "no hay tareas"

// Variant is the visual weight of a badge.
type Variant int

const (
	VariantDefault Variant = iota
	VariantSecondary
	VariantDestructive
)

// PriorityVariant returns the badge variant of p.
func PriorityVariant(p service.Priority) Variant {
	switch p {
	case service.PriorityHigh:
		return VariantDestructive
	case service.PriorityLow:
		return VariantSecondary
	default:
		return VariantDefault
	}
}

// StatusVariant returns the badge variant of s.
func StatusVariant(s service.Status) Variant {
	if s == service.StatusDone {
		return VariantDefault
	}
	return VariantSecondary
}

// Printer renders tasks for one output stream. Colors follow the stream's
// terminal capabilities, so a non-terminal writer receives plain text.
type Printer struct {
	w      io.Writer
	badges map[Variant]lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	badge := r.NewStyle().Padding(0, 1)
	return &Printer{
		w: w,
		badges: map[Variant]lipgloss.Style{
			VariantDefault:     badge.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
			VariantSecondary:   badge.Foreground(lipgloss.Color("252")).Background(lipgloss.Color("238")),
			VariantDestructive: badge.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Bold(true),
		},
		header: r.NewStyle().Bold(true).Padding(0, 1),
		label:  r.NewStyle().Bold(true),
		dim:    r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Badge renders text with the style of v.
func (p *Printer) Badge(v Variant, text string) string {
	return p.badges[v].Render(text)
}

// Row is one table line: a task and the reference that selects it.
type Row struct {
	Ref  string
	Task service.Task
}

// NumberRows gives each task the reference prefix followed by its 1-based
// position, so "h" yields h1, h2, ...
func NumberRows(tasks []service.Task, prefix string) []Row {
	rows := make([]Row, len(tasks))
	for i, t := range tasks {
		rows[i] = Row{Ref: fmt.Sprintf("%s%d", prefix, i+1), Task: t}
	}
	return rows
}

// FilterRows keeps the rows whose title includes filter. References are
// left as they were, so they keep selecting the same tasks.
func FilterRows(rows []Row, filter string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if IncludesString(r.Task.Title, filter) {
			out = append(out, r)
		}
	}
	return out
}

// Tasks prints tasks as a table numbered with prefix.
func (p *Printer) Tasks(tasks []service.Task, prefix string) {
	p.Table(NumberRows(tasks, prefix))
}

// Table prints rows as a task table, or EmptyMessage when there are none.
func (p *Printer) Table(rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintln(p.w, EmptyMessage)
		return
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		t := r.Task
		cells[i] = []string{
			r.Ref,
			normalizeTitle(t.Title),
			p.Badge(PriorityVariant(t.Priority), t.Priority.Label()),
			p.Badge(StatusVariant(t.Status), t.Status.Label()),
			FormatDate(t.DueDate),
		}
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return cell
		})
	fmt.Fprintln(p.w, tbl.Render())
}

// Pagination prints the page footer of a collection.
func (p *Printer) Pagination(pg service.Pagination, stale bool) {
	line := FormatPagination(pg)
	if stale {
		line += " (sin actualizar)"
	}
	fmt.Fprintln(p.w, p.dim.Render(line))
}

// Section prints a heading above a table.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w, p.label.Render(title))
}

// Detail prints every field of a single task.
func (p *Printer) Detail(t service.Task) {
	desc := t.Description
	if strings.TrimSpace(desc) == "" {
		desc = "-"
	}
	fields := [][2]string{
		{"ID", t.ID},
		{"Titulo", normalizeTitle(t.Title)},
		{"Descripcion", desc},
		{"Prioridad", p.Badge(PriorityVariant(t.Priority), t.Priority.Label())},
		{"Estado", p.Badge(StatusVariant(t.Status), t.Status.Label())},
		{"Vencimiento", FormatDate(t.DueDate)},
		{"Creada", formatTimestamp(t.CreatedAt)},
		{"Actualizada", formatTimestamp(t.UpdatedAt)},
	}
	for _, f := range fields {
		name := f[0] + ":"
		pad := strings.Repeat(" ", detailLabelWidth-utf8.RuneCountInString(name))
		fmt.Fprintf(p.w, "%s%s %s\n", p.label.Render(name), pad, f[1])
	}
}

// FormatDate renders the calendar date of t in UTC as d/m/yyyy, without
// zero padding.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	u := t.UTC()
	return fmt.Sprintf("%d/%d/%d", u.Day(), int(u.Month()), u.Year())
}

// FormatPagination renders pg as "página P de N · T tareas".
func FormatPagination(pg service.Pagination) string {
	pages := pg.TotalPages
	if pages < 1 {
		pages = 1
	}
	page := pg.Page
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("página %d de %d · %d tareas", page, pages, pg.Total)
}

// IncludesString reports whether value contains filter, ignoring case and
// surrounding whitespace in filter. An empty filter matches everything.
func IncludesString(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2/1/2006 15:04")
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(sin titulo)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(sin titulo)"
	}
	return title
}
