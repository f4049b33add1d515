// Package subject manages the ordered, duplicate-free list of subjects
// attached to a student record.
//
// Every function here treats its input slice as read-only and returns a
// new slice, so a rejected change can never corrupt the caller's list.
package subject

import (
	"strconv"
	"strings"

	"github.com/aanand-mishra/xgrade/internal/types"
)

// RejectMessage is the single signal shown for any rejected subject,
// whatever rule failed. The failing rule is kept in the error's Fields.
const RejectMessage = "subject already added or invalid input"

// Parse turns raw name/marks input into a Subject.
// The name is trimmed and must be non-empty; marks must be a base-10
// integer (surrounding spaces are ignored).
func Parse(name, marks string) (types.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Subject{}, types.NewValidationError(RejectMessage, "name", "subject name is required")
	}

	n, err := strconv.Atoi(strings.TrimSpace(marks))
	if err != nil {
		return types.Subject{}, types.NewValidationError(RejectMessage, "marks", "marks must be an integer")
	}

	return types.Subject{Name: name, Marks: n}, nil
}

// Add validates the candidate and appends it to a copy of list.
//
// Rules, in order: non-empty name, integer marks, no existing subject with
// the same name under case-insensitive comparison (the whole list is
// checked, not just the last entry).
func Add(list []types.Subject, name, marks string) ([]types.Subject, error) {
	s, err := Parse(name, marks)
	if err != nil {
		return list, err
	}

	if Contains(list, s.Name) {
		return list, types.NewValidationError(RejectMessage, "name",
			"subject "+strconv.Quote(s.Name)+" is already added")
	}

	out := make([]types.Subject, len(list), len(list)+1)
	copy(out, list)
	return append(out, s), nil
}

// Remove drops the subject whose name matches case-insensitively.
// It reports false (and returns list unchanged) when nothing matched.
func Remove(list []types.Subject, name string) ([]types.Subject, bool) {
	i := index(list, strings.TrimSpace(name))
	if i < 0 {
		return list, false
	}

	out := make([]types.Subject, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), true
}

// Contains reports whether list already holds name (case-insensitive).
func Contains(list []types.Subject, name string) bool {
	return index(list, strings.TrimSpace(name)) >= 0
}

func index(list []types.Subject, name string) int {
	for i, s := range list {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			return i
		}
	}
	return -1
}
