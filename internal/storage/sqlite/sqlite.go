// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// It lets the application run against a local file instead of the
// external service. Ids are random UUID strings, like the ones the
// service hands out, and list order is insertion order.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aanand-mishra/xgrade/internal/config"
	"github.com/aanand-mishra/xgrade/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by UpdateStudent and DeleteStudent when no row
// carries the id.
var ErrNotFound = errors.New("student not found")

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.StoragePath, creates the tables if
// they do not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   students — one row per record; rowid keeps insertion order
	//   subjects — ordered by position within a student
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			roll    TEXT NOT NULL,
			class   TEXT NOT NULL DEFAULT '',
			section TEXT NOT NULL DEFAULT '',
			dob     TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS subjects (
			student_id TEXT    NOT NULL,
			position   INTEGER NOT NULL,
			name       TEXT    NOT NULL,
			marks      INTEGER NOT NULL,
			PRIMARY KEY (student_id, position)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CreateStudent inserts the record and its subjects in one transaction and
// returns the generated id. The id field of student is ignored.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	id := uuid.NewString()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO students (id, name, roll, class, section, dob) VALUES (?, ?, ?, ?, ?, ?)",
			id, student.Name, student.Roll, student.Class, student.Section, student.DOB,
		)
		if err != nil {
			return fmt.Errorf("insert student: %w", err)
		}
		return insertSubjects(ctx, tx, id, student.Subjects)
	})
	if err != nil {
		return "", fmt.Errorf("CreateStudent: %w", err)
	}

	return id, nil
}

// ListStudents returns every record with its subjects, in insertion order.
func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, roll, class, section, dob FROM students ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	index := make(map[string]int)

	for rows.Next() {
		st := types.Student{Subjects: []types.Subject{}}
		if err := rows.Scan(&st.ID, &st.Name, &st.Roll, &st.Class, &st.Section, &st.DOB); err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		index[st.ID] = len(students)
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}

	subRows, err := s.Db.QueryContext(ctx,
		"SELECT student_id, name, marks FROM subjects ORDER BY student_id, position",
	)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query subjects: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var (
			studentID string
			sub       types.Subject
		)
		if err := subRows.Scan(&studentID, &sub.Name, &sub.Marks); err != nil {
			return nil, fmt.Errorf("ListStudents: scan subject: %w", err)
		}
		if i, ok := index[studentID]; ok {
			students[i].Subjects = append(students[i].Subjects, sub)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: subject iteration: %w", err)
	}

	return students, nil
}

// UpdateStudent replaces the record's fields and its whole subject list.
func (s *SQLite) UpdateStudent(ctx context.Context, id string, student types.Student) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE students SET name = ?, roll = ?, class = ?, section = ?, dob = ? WHERE id = ?",
			student.Name, student.Roll, student.Class, student.Section, student.DOB, id,
		)
		if err != nil {
			return fmt.Errorf("update student: %w", err)
		}
		if err := requireRow(res, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM subjects WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("clear subjects: %w", err)
		}
		return insertSubjects(ctx, tx, id, student.Subjects)
	})
	if err != nil {
		return fmt.Errorf("UpdateStudent: %w", err)
	}
	return nil
}

// DeleteStudent removes the record and its subjects.
func (s *SQLite) DeleteStudent(ctx context.Context, id string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM subjects WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("delete subjects: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return requireRow(res, id)
	})
	if err != nil {
		return fmt.Errorf("DeleteStudent: %w", err)
	}
	return nil
}

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertSubjects(ctx context.Context, tx *sql.Tx, id string, subjects []types.Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO subjects (student_id, position, name, marks) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("prepare subjects: %w", err)
	}
	defer stmt.Close()

	for i, sub := range subjects {
		if _, err := stmt.ExecContext(ctx, id, i, sub.Name, sub.Marks); err != nil {
			return fmt.Errorf("insert subject %q: %w", sub.Name, err)
		}
	}
	return nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
