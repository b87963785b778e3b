package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskdesk/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Priority service.Priority // "" for the general list
	Row      int              // 1-based row, 0 when ID is set
	ID       string           // raw task ID
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

var priorityLetters = map[rune]service.Priority{
	'h': service.PriorityHigh,
	'm': service.PriorityMedium,
	'l': service.PriorityLow,
}

// PriorityLetter returns the reference prefix of the list for p.
func PriorityLetter(p service.Priority) string {
	for r, lp := range priorityLetters {
		if lp == p {
			return string(r)
		}
	}
	return ""
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return PriorityLetter(r.Priority) + strconv.Itoa(r.Row)
}

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. All digits (e.g., 3) → row of the general list
// 2. h, m or l followed by digits (e.g., h2) → row of that priority list
// 3. h, m or l alone followed by a digits arg (h 2) → separated form of 2
// 4. h, m or l alone with no second arg → error: task reference required
// 5. Anything else → raw task ID
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	first := strings.TrimSpace(args[0])
	if first == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	// Case 1
	if isAllDigits(first) {
		row, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{Row: row}, nil
	}

	if p, ok := priorityLetters[rune(first[0])]; ok {
		// Case 2
		if len(first) > 1 && isAllDigits(first[1:]) {
			row, err := strconv.Atoi(first[1:])
			if err != nil {
				return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
			}
			return TaskRef{Priority: p, Row: row}, nil
		}

		if len(first) == 1 {
			// Case 4
			if len(args) < 2 {
				return TaskRef{}, ErrTaskRefRequired
			}
			// Case 3
			if isAllDigits(args[1]) {
				row, err := strconv.Atoi(args[1])
				if err != nil {
					return TaskRef{}, fmt.Errorf("invalid task reference: %s", args[1])
				}
				return TaskRef{Priority: p, Row: row}, nil
			}
			return TaskRef{}, fmt.Errorf("invalid task reference: %s %s", first, args[1])
		}
	}

	// Case 5
	return TaskRef{ID: first}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
