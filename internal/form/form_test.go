package form

import (
	"errors"
	"testing"

	"github.com/aanand-mishra/xgrade/internal/types"
)

func filled(t *testing.T) State {
	t.Helper()

	s := New()
	var err error
	for field, value := range map[string]string{
		FieldName: "Asha", FieldRoll: "12", FieldClass: "10", FieldSection: "A", FieldDOB: "2005-01-01",
	} {
		if s, err = s.Set(field, value); err != nil {
			t.Fatalf("Set(%s) error = %v", field, err)
		}
	}
	return s
}

func TestNewIsEmptyCreatingForm(t *testing.T) {
	s := New()
	if s.Mode != Creating {
		t.Errorf("mode = %q, want %q", s.Mode, Creating)
	}
	if s.Record.ID != "" || s.Record.Name != "" || len(s.Record.Subjects) != 0 {
		t.Errorf("record = %+v, want empty", s.Record)
	}
}

func TestSetDoesNotMutateReceiver(t *testing.T) {
	s := New()
	next, err := s.Set("name", "Asha")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if s.Record.Name != "" {
		t.Error("receiver changed")
	}
	if next.Record.Name != "Asha" || next.Mode != Creating {
		t.Errorf("next = %+v", next)
	}
}

func TestSetRejectsUnknownField(t *testing.T) {
	for _, field := range []string{"id", "subjects", "email"} {
		s, err := New().Set(field, "x")
		if !types.IsValidation(err) {
			t.Errorf("Set(%q) error = %v, want validation error", field, err)
		}
		if s.Record.ID != "" {
			t.Errorf("Set(%q) changed the id", field)
		}
	}
}

func TestValidateRequiresNameRollDOB(t *testing.T) {
	tests := []struct {
		name    string
		clear   string
		missing string
	}{
		{name: "no name", clear: FieldName, missing: "name"},
		{name: "no roll", clear: FieldRoll, missing: "roll"},
		{name: "no dob", clear: FieldDOB, missing: "dob"},
		{name: "blank name", clear: FieldName, missing: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := ""
			if tt.name == "blank name" {
				value = "   "
			}
			s, _ := filled(t).Set(tt.clear, value)

			err := s.Validate()
			var ve *types.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if _, ok := ve.Fields[tt.missing]; !ok {
				t.Errorf("fields = %v, want %q", ve.Fields, tt.missing)
			}
		})
	}

	// class and section are optional
	s, _ := filled(t).Set(FieldClass, "")
	s, _ = s.Set(FieldSection, "")
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() without class/section error = %v", err)
	}
}

func TestAddSubjectRejectionKeepsState(t *testing.T) {
	s, err := New().AddSubject("Math", "90")
	if err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}

	same, err := s.AddSubject("math", "50")
	if !types.IsValidation(err) {
		t.Fatalf("duplicate AddSubject() error = %v", err)
	}
	if len(same.Record.Subjects) != 1 || same.Record.Subjects[0].Marks != 90 {
		t.Errorf("subjects = %+v, want only Math:90", same.Record.Subjects)
	}

	if _, err := s.AddSubject("Science", "abc"); !types.IsValidation(err) {
		t.Errorf("non-integer marks error = %v", err)
	}

	removed, err := s.RemoveSubject("MATH")
	if err != nil {
		t.Fatalf("RemoveSubject() error = %v", err)
	}
	if len(removed.Record.Subjects) != 0 {
		t.Errorf("subjects after remove = %+v", removed.Record.Subjects)
	}
	if _, err := removed.RemoveSubject("Math"); !types.IsValidation(err) {
		t.Errorf("RemoveSubject(missing) error = %v", err)
	}
}

func TestEditLoadsIsolatedCopy(t *testing.T) {
	row := types.Student{
		ID: "7", Name: "Ravi", Roll: "13", DOB: "2005-02-02",
		Subjects: []types.Subject{{Name: "Math", Marks: 70}},
	}

	s, _ := New().Set(FieldName, "unsaved")
	s = s.Edit(row)
	if s.Mode != Editing {
		t.Fatalf("mode = %q, want editing", s.Mode)
	}
	if s.Record.Name != "Ravi" {
		t.Errorf("name = %q, unsaved input not discarded", s.Record.Name)
	}

	s, _ = s.AddSubject("Art", "60")
	s.Record.Subjects[0].Marks = 1
	if len(row.Subjects) != 1 || row.Subjects[0].Marks != 70 {
		t.Errorf("registry row mutated: %+v", row.Subjects)
	}
}

func TestEditWithoutIDStaysCreating(t *testing.T) {
	s := New().Edit(types.Student{Name: "Ghost"})
	if s.Mode != Creating || s.Record.Name != "" {
		t.Errorf("Edit(no id) = %+v", s)
	}
}

func TestPayloadForcesEmptyIDWhenCreating(t *testing.T) {
	s := filled(t)
	s.Record.ID = "stale"
	if p := s.Payload(); p.ID != "" {
		t.Errorf("creating payload id = %q, want empty", p.ID)
	}

	e := New().Edit(types.Student{ID: "42", Name: "Asha", Roll: "12", DOB: "2005-01-01"})
	if p := e.Payload(); p.ID != "42" {
		t.Errorf("editing payload id = %q, want 42", p.ID)
	}
}

func TestCancelAndResetClear(t *testing.T) {
	e := New().Edit(types.Student{ID: "42", Name: "Asha"})
	for name, s := range map[string]State{"cancel": e.Cancel(), "reset": e.Reset()} {
		if s.Mode != Creating || s.Record.ID != "" || s.Record.Name != "" {
			t.Errorf("%s = %+v, want cleared creating form", name, s)
		}
	}
}
