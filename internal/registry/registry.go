// Package registry holds the client's cached snapshot of all student
// records as last fetched from the external service.
//
// A Registry is immutable once built. Refreshing means building a new one
// and swapping it in wholesale; there is no in-place patching.
package registry

import (
	"strings"

	"github.com/aanand-mishra/xgrade/internal/types"
)

type Registry struct {
	records []types.Student
}

// New snapshots records (deep copies) in the order given.
func New(records []types.Student) *Registry {
	return &Registry{records: types.CloneAll(records)}
}

// Len returns the number of records.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Records returns a deep copy of every record, in registry order.
func (r *Registry) Records() []types.Student {
	if r == nil {
		return []types.Student{}
	}
	return types.CloneAll(r.records)
}

// Get looks a record up by id.
func (r *Registry) Get(id string) (types.Student, bool) {
	if r == nil || id == "" {
		return types.Student{}, false
	}
	for _, s := range r.records {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return types.Student{}, false
}

// Search returns the first record whose name equals name under
// case-insensitive comparison. Names are not unique; the first listed wins.
func (r *Registry) Search(name string) (types.Student, error) {
	if r != nil {
		for _, s := range r.records {
			if strings.EqualFold(s.Name, name) {
				return s.Clone(), nil
			}
		}
	}
	return types.Student{}, &types.NotFoundError{Query: name}
}

// Filter returns the records whose name or roll contains text
// (case-insensitive). An empty text matches everything.
func (r *Registry) Filter(text string) []types.Student {
	out := []types.Student{}
	if r == nil {
		return out
	}

	needle := strings.ToLower(text)
	for _, s := range r.records {
		if strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.Roll), needle) {
			out = append(out, s.Clone())
		}
	}
	return out
}
