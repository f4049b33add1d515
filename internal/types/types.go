// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// the form controller, the registry, the storage backends and the HTTP
// handlers can all import types without depending on each other.
package types

// Subject is one name/marks pair inside a student record.
//
// Names are unique within a single Student under case-insensitive
// comparison; the subject package is the only place that appends to a
// Subjects slice, and it enforces that rule.
type Subject struct {
	Name  string `json:"name"`
	Marks int    `json:"marks"`
}

// Student represents a student record as exchanged with the external
// service.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — the wire names used by the service and the local API.
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package before a record is submitted. Only name, roll and dob are
//     required; class and section are free-form.
type Student struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"    validate:"required"`
	Roll     string    `json:"roll"    validate:"required"`
	Class    string    `json:"class"`
	Section  string    `json:"section"`
	DOB      string    `json:"dob"     validate:"required"`
	Subjects []Subject `json:"subjects"`
}

// Clone returns a deep copy of s. The copy never shares its Subjects
// backing array with s, so editing one cannot leak into the other.
func (s Student) Clone() Student {
	c := s
	c.Subjects = make([]Subject, len(s.Subjects))
	copy(c.Subjects, s.Subjects)
	return c
}

// CloneAll deep-copies every record in list, preserving order.
// The result is never nil.
func CloneAll(list []Student) []Student {
	out := make([]Student, 0, len(list))
	for _, s := range list {
		out = append(out, s.Clone())
	}
	return out
}
