package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/xgrade/internal/config"
	"github.com/aanand-mishra/xgrade/internal/storage"
	"github.com/aanand-mishra/xgrade/internal/types"
)

var _ storage.Storage = (*SQLite)(nil)

func openTemp(t *testing.T) *SQLite {
	t.Helper()

	s, err := New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "students.db")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateListRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	asha := types.Student{
		ID: "ignored", Name: "Asha", Roll: "12", Class: "10", Section: "A", DOB: "2005-01-01",
		Subjects: []types.Subject{{Name: "Math", Marks: 90}, {Name: "Art", Marks: 70}},
	}
	ravi := types.Student{Name: "Ravi", Roll: "13", Class: "10", Section: "B", DOB: "2005-02-02"}

	ashaID, err := s.CreateStudent(ctx, asha)
	if err != nil {
		t.Fatalf("CreateStudent(asha) error = %v", err)
	}
	if ashaID == "" || ashaID == "ignored" {
		t.Fatalf("id = %q, want generated id", ashaID)
	}
	raviID, err := s.CreateStudent(ctx, ravi)
	if err != nil {
		t.Fatalf("CreateStudent(ravi) error = %v", err)
	}

	got, err := s.ListStudents(ctx)
	if err != nil {
		t.Fatalf("ListStudents() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != ashaID || got[1].ID != raviID {
		t.Errorf("order = [%s %s], want insertion order", got[0].ID, got[1].ID)
	}
	if len(got[0].Subjects) != 2 || got[0].Subjects[0].Name != "Math" || got[0].Subjects[1].Name != "Art" {
		t.Errorf("subjects = %+v", got[0].Subjects)
	}
	if got[1].Subjects == nil || len(got[1].Subjects) != 0 {
		t.Errorf("ravi subjects = %#v, want empty slice", got[1].Subjects)
	}
}

func TestUpdateReplacesSubjects(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	id, err := s.CreateStudent(ctx, types.Student{
		Name: "Asha", Roll: "12", DOB: "2005-01-01",
		Subjects: []types.Subject{{Name: "Math", Marks: 90}},
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	err = s.UpdateStudent(ctx, id, types.Student{
		Name: "Asha K", Roll: "12", DOB: "2005-01-01", Section: "C",
		Subjects: []types.Subject{{Name: "Science", Marks: 60}},
	})
	if err != nil {
		t.Fatalf("UpdateStudent() error = %v", err)
	}

	got, _ := s.ListStudents(ctx)
	if got[0].Name != "Asha K" || got[0].Section != "C" {
		t.Errorf("record = %+v", got[0])
	}
	if len(got[0].Subjects) != 1 || got[0].Subjects[0].Name != "Science" {
		t.Errorf("subjects = %+v", got[0].Subjects)
	}
}

func TestUnknownIDFails(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if err := s.UpdateStudent(ctx, "missing", types.Student{Name: "x", Roll: "1", DOB: "d"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStudent(missing) error = %v", err)
	}
	if err := s.DeleteStudent(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteStudent(missing) error = %v", err)
	}
}

func TestDeleteRemovesSubjects(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	id, _ := s.CreateStudent(ctx, types.Student{
		Name: "Asha", Roll: "12", DOB: "2005-01-01",
		Subjects: []types.Subject{{Name: "Math", Marks: 90}},
	})
	if err := s.DeleteStudent(ctx, id); err != nil {
		t.Fatalf("DeleteStudent() error = %v", err)
	}

	got, _ := s.ListStudents(ctx)
	if len(got) != 0 {
		t.Errorf("len = %d after delete", len(got))
	}

	var n int
	if err := s.Db.QueryRow("SELECT COUNT(*) FROM subjects").Scan(&n); err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if n != 0 {
		t.Errorf("orphan subjects = %d", n)
	}
}
