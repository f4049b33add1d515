// Package form is the student record form controller.
//
// A State is a value: every transition returns a new State and leaves the
// receiver untouched. The record inside a State is the form's private
// working copy; it never aliases a registry row.
package form

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/xgrade/internal/subject"
	"github.com/aanand-mishra/xgrade/internal/types"
	"github.com/aanand-mishra/xgrade/internal/validator"
)

// Mode tells whether a submit creates a new record or updates one.
type Mode string

const (
	Creating Mode = "creating"
	Editing  Mode = "editing"
)

// RequiredMessage is shown when name, roll or dob is missing.
const RequiredMessage = "please fill all required fields"

// Editable field names accepted by Set. They match the JSON names.
const (
	FieldName    = "name"
	FieldRoll    = "roll"
	FieldClass   = "class"
	FieldSection = "section"
	FieldDOB     = "dob"
)

// State is one snapshot of the form.
type State struct {
	Mode   Mode          `json:"mode"`
	Record types.Student `json:"record"`
}

// New returns an empty form in Creating mode.
func New() State {
	return State{Mode: Creating, Record: types.Student{Subjects: []types.Subject{}}}
}

// Set changes one free-form field. Values are not validated here; only an
// unknown field name is rejected.
func (s State) Set(field, value string) (State, error) {
	next := s.copy()

	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldName:
		next.Record.Name = value
	case FieldRoll:
		next.Record.Roll = value
	case FieldClass:
		next.Record.Class = value
	case FieldSection:
		next.Record.Section = value
	case FieldDOB:
		next.Record.DOB = value
	default:
		return s, types.NewValidationError("unknown form field", field,
			fmt.Sprintf("%s is not an editable field", field))
	}

	return next, nil
}

// AddSubject appends a subject to the working copy. On rejection the
// receiver is returned unchanged together with the error.
func (s State) AddSubject(name, marks string) (State, error) {
	list, err := subject.Add(s.Record.Subjects, name, marks)
	if err != nil {
		return s, err
	}

	next := s.copy()
	next.Record.Subjects = list
	return next, nil
}

// RemoveSubject drops a subject by name (case-insensitive).
func (s State) RemoveSubject(name string) (State, error) {
	list, ok := subject.Remove(s.Record.Subjects, name)
	if !ok {
		return s, types.NewValidationError("subject not in form", "name",
			fmt.Sprintf("subject %q is not in the form", name))
	}

	next := s.copy()
	next.Record.Subjects = list
	return next, nil
}

// Edit loads a deep copy of record and switches to Editing mode. Any
// unsaved input is discarded. A record without an id cannot be edited,
// so it yields a cleared Creating form instead.
func (s State) Edit(record types.Student) State {
	if record.ID == "" {
		return New()
	}

	rec := record.Clone()
	if rec.Subjects == nil {
		rec.Subjects = []types.Subject{}
	}
	return State{Mode: Editing, Record: rec}
}

// Cancel discards edits and returns a cleared Creating form.
func (s State) Cancel() State { return New() }

// Reset is the post-submit transition; it is the same cleared form.
func (s State) Reset() State { return New() }

// Validate checks the required fields. It never touches the state.
func (s State) Validate() error {
	rec := s.Record
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Roll = strings.TrimSpace(rec.Roll)
	rec.DOB = strings.TrimSpace(rec.DOB)
	return validator.Struct(rec, RequiredMessage)
}

// Payload is the record to send. In Creating mode the id is forced empty
// whatever the working copy holds.
func (s State) Payload() types.Student {
	p := s.Record.Clone()
	if s.Mode != Editing {
		p.ID = ""
	}
	return p
}

func (s State) copy() State {
	return State{Mode: s.Mode, Record: s.Record.Clone()}
}
