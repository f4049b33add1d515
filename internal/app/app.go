// Package app is the student-record workflow: it owns the form's working
// copy and the registry snapshot, talks to the storage backend, and turns
// every action into a typed result plus a notice.
//
// Rules enforced here:
//
//   - Every mutating call that succeeds is followed by a full refresh of
//     the registry (mutate is the only path to the backend's write side).
//   - Only one mutating call is outstanding at a time; a second one fails
//     with types.ErrBusy before any request is made.
//   - Backend calls run on a context detached from the caller's
//     cancellation: once issued, a call completes or fails on its own.
//   - A failed call leaves form and registry exactly as they were.
//   - A snapshot fetched earlier never replaces one fetched later.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aanand-mishra/xgrade/internal/export"
	"github.com/aanand-mishra/xgrade/internal/form"
	"github.com/aanand-mishra/xgrade/internal/registry"
	"github.com/aanand-mishra/xgrade/internal/storage"
	"github.com/aanand-mishra/xgrade/internal/types"
)

// Operation names used in notices and RemoteError.Op.
const (
	OpList    = "list"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRefresh = "refresh"
)

// Result describes a successful submit. ID is the id assigned by a create
// (reported once, not retained by the form) or the id updated.
type Result struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// App is safe for concurrent use.
type App struct {
	store  storage.Storage
	log    *slog.Logger
	notify Notifier

	busy atomic.Bool
	// fetches numbers every ListStudents call in the order it was issued.
	fetches atomic.Uint64

	mu      sync.RWMutex
	form    form.State
	formRev uint64 // bumped on every form change
	reg     *registry.Registry
	regGen  uint64 // fetch number of the snapshot in reg
	match   *types.Student
}

// New builds an App with an empty form and an empty registry. A nil
// notifier logs notices through log.
func New(store storage.Storage, log *slog.Logger, notifier Notifier) *App {
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	return &App{
		store:  store,
		log:    log,
		notify: notifier,
		form:   form.New(),
		reg:    registry.New(nil),
	}
}

// Busy reports whether a submit or delete is outstanding.
func (a *App) Busy() bool { return a.busy.Load() }

// Form returns the current form state.
func (a *App) Form() form.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.form
}

// Students returns the registry rows matching text (all rows for "").
func (a *App) Students(text string) []types.Student {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reg.Filter(text)
}

// Refresh replaces the registry with a fresh snapshot from the backend.
// On failure the registry is left untouched.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.refresh(context.WithoutCancel(ctx), OpList); err != nil {
		a.notify.Notify(ctx, Notice{Level: LevelError, Action: OpList, Message: "failed to fetch students", Err: err})
		return err
	}
	return nil
}

// SetField changes one free-form field of the working copy.
func (a *App) SetField(field, value string) error {
	return a.update(func(s form.State) (form.State, error) { return s.Set(field, value) })
}

// SetFields applies several field changes atomically: either all of them
// or none.
func (a *App) SetFields(fields map[string]string) error {
	return a.update(func(s form.State) (form.State, error) {
		var err error
		for k, v := range fields {
			if s, err = s.Set(k, v); err != nil {
				return s, err
			}
		}
		return s, nil
	})
}

// AddSubject appends a subject to the working copy.
func (a *App) AddSubject(ctx context.Context, name, marks string) error {
	err := a.update(func(s form.State) (form.State, error) { return s.AddSubject(name, marks) })
	if err != nil {
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: "add_subject", Message: err.Error(), Err: err})
	}
	return err
}

// RemoveSubject drops a subject from the working copy.
func (a *App) RemoveSubject(name string) error {
	return a.update(func(s form.State) (form.State, error) { return s.RemoveSubject(name) })
}

// Edit loads a copy of the registry row with the given id into the form.
func (a *App) Edit(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.reg.Get(id)
	if !ok {
		err := &types.NotFoundError{Query: id}
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: "edit", Message: "student not found", Err: err})
		return err
	}

	a.setForm(a.form.Edit(rec))
	return nil
}

// Cancel leaves edit mode and clears the form.
func (a *App) Cancel() {
	a.mu.Lock()
	a.setForm(a.form.Cancel())
	a.mu.Unlock()
}

// Submit validates the form and creates or updates the record depending on
// the form's mode. Validation failures never reach the backend.
//
// On success the form is cleared, unless it was changed while the call was
// in flight; the newer edits are kept.
func (a *App) Submit(ctx context.Context) (Result, error) {
	a.mu.RLock()
	st, rev := a.form, a.formRev
	a.mu.RUnlock()

	if err := st.Validate(); err != nil {
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: "submit", Message: form.RequiredMessage, Err: err})
		return Result{}, err
	}

	payload := st.Payload()
	res := Result{Op: OpCreate}
	call := func(ctx context.Context) error {
		id, err := a.store.CreateStudent(ctx, payload)
		res.ID = id
		return err
	}
	if st.Mode == form.Editing {
		res = Result{Op: OpUpdate, ID: payload.ID}
		call = func(ctx context.Context) error {
			return a.store.UpdateStudent(ctx, payload.ID, payload)
		}
	}

	err := a.mutate(ctx, res.Op, call, func() {
		if a.formRev != rev {
			a.log.Debug("form changed during submit, keeping it", slog.String("op", res.Op))
			return
		}
		a.setForm(a.form.Reset())
	})
	if err != nil && !isRefreshFailure(err) {
		return Result{}, err
	}

	msg := "student submitted successfully"
	if res.Op == OpUpdate {
		msg = "student updated successfully"
	}
	a.notify.Notify(ctx, Notice{Level: LevelInfo, Action: res.Op, Message: msg + " (id " + res.ID + ")"})
	return res, err
}

// Delete removes the record with the given id. An empty id is rejected
// without contacting the backend.
func (a *App) Delete(ctx context.Context, id string) error {
	if id == "" {
		err := types.NewValidationError("no id provided for deletion", "id", "id is required")
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: OpDelete, Message: err.Message, Err: err})
		return err
	}

	err := a.mutate(ctx, OpDelete, func(ctx context.Context) error {
		return a.store.DeleteStudent(ctx, id)
	}, nil)
	if err != nil && !isRefreshFailure(err) {
		return err
	}

	a.notify.Notify(ctx, Notice{Level: LevelInfo, Action: OpDelete, Message: "student deleted (id " + id + ")"})
	return err
}

// Search looks a student up by exact (case-insensitive) name. A hit
// becomes the displayed match; a miss clears it.
func (a *App) Search(ctx context.Context, name string) (types.Student, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.reg.Search(name)
	if err != nil {
		a.match = nil
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: "search", Message: "student not found", Err: err})
		return types.Student{}, err
	}

	a.match = &rec
	return rec.Clone(), nil
}

// Match returns the displayed search match, if any.
func (a *App) Match() (types.Student, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.match == nil {
		return types.Student{}, false
	}
	return a.match.Clone(), true
}

// CloseMatch dismisses the displayed search match.
func (a *App) CloseMatch() {
	a.mu.Lock()
	a.match = nil
	a.mu.Unlock()
}

// ExportCSV renders the rows matching text as CSV.
func (a *App) ExportCSV(text string) string {
	return export.CSV(a.Students(text))
}

// ExportXLSX writes the rows matching text as a workbook.
func (a *App) ExportXLSX(w io.Writer, text string) error {
	return export.XLSX(w, a.Students(text))
}

// update applies a form transition under the lock; a rejected transition
// leaves the form as it was.
func (a *App) update(fn func(form.State) (form.State, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := fn(a.form)
	if err != nil {
		return err
	}
	a.setForm(next)
	return nil
}

// setForm must be called with mu held.
func (a *App) setForm(s form.State) {
	a.form = s
	a.formRev++
}

// mutate runs one write against the backend. On success it applies
// onSuccess (under the lock) and then refreshes the registry.
func (a *App) mutate(ctx context.Context, op string, call func(context.Context) error, onSuccess func()) error {
	if !a.busy.CompareAndSwap(false, true) {
		a.notify.Notify(ctx, Notice{Level: LevelWarn, Action: op, Message: types.ErrBusy.Error(), Err: types.ErrBusy})
		return types.ErrBusy
	}
	defer a.busy.Store(false)

	callCtx := context.WithoutCancel(ctx)

	if err := call(callCtx); err != nil {
		rerr := &types.RemoteError{Op: op, Status: statusOf(err), Err: err}
		a.log.Error("backend call failed", slog.String("op", op), slog.String("error", err.Error()))
		a.notify.Notify(ctx, Notice{Level: LevelError, Action: op, Message: "failed to " + op + " student", Err: rerr})
		return rerr
	}

	if onSuccess != nil {
		a.mu.Lock()
		onSuccess()
		a.mu.Unlock()
	}

	if err := a.refresh(callCtx, OpRefresh); err != nil {
		a.notify.Notify(ctx, Notice{Level: LevelError, Action: OpRefresh, Message: "failed to fetch students", Err: err})
		return err
	}
	return nil
}

// refresh fetches a snapshot and installs it unless a fetch issued after
// this one has already been installed. Dropping a stale snapshot is not an
// error: the registry already holds newer data.
func (a *App) refresh(ctx context.Context, op string) error {
	gen := a.fetches.Add(1)

	list, err := a.store.ListStudents(ctx)
	if err != nil {
		a.log.Error("fetching students failed", slog.String("error", err.Error()))
		return &types.RemoteError{Op: op, Status: statusOf(err), Err: err}
	}

	reg := registry.New(list)

	a.mu.Lock()
	stale := gen < a.regGen
	if !stale {
		a.reg, a.regGen = reg, gen
	}
	a.mu.Unlock()

	if stale {
		a.log.Debug("dropping stale snapshot", slog.Uint64("fetch", gen))
		return nil
	}
	a.log.Debug("registry refreshed", slog.Int("students", reg.Len()))
	return nil
}

func isRefreshFailure(err error) bool {
	var re *types.RemoteError
	return errors.As(err, &re) && re.Op == OpRefresh
}

// statusOf returns the HTTP status carried by err, if the backend
// reported one.
func statusOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}
