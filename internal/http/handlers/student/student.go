// Package student contains the HTTP handlers of the local API — the
// presentation layer in front of the student-record workflow.
//
// Each handler is built by a factory that receives the *app.App and
// returns the func(http.ResponseWriter, *http.Request) the router needs:
//
//	router.HandleFunc("POST /api/form/submit", student.Submit(a))
//
// Handlers only translate HTTP to app calls and app errors to HTTP; all
// rules live in the app package.
package student

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/xgrade/internal/app"
	"github.com/aanand-mishra/xgrade/internal/export"
	"github.com/aanand-mishra/xgrade/internal/form"
	"github.com/aanand-mishra/xgrade/internal/types"
	"github.com/aanand-mishra/xgrade/internal/utils/response"
)

// FormView is the JSON shape of the form.
type FormView struct {
	Mode   form.Mode     `json:"mode"`
	Record types.Student `json:"record"`
	Busy   bool          `json:"busy"`
}

// SubjectInput accepts marks either as a JSON string or a JSON number;
// parsing happens in the subject package like any other input.
type SubjectInput struct {
	Name  string          `json:"name"`
	Marks json.RawMessage `json:"marks"`
}

// Routes registers every handler on a new ServeMux.
//
// Route table:
//
//	GET    /api/students              → list (optional ?q= filter)
//	POST   /api/students/refresh      → re-fetch from the backend
//	GET    /api/students/search       → exact name search (?name=)
//	GET    /api/match                 → displayed search match
//	DELETE /api/match                 → dismiss the match
//	DELETE /api/students/{id}         → delete
//	POST   /api/students/{id}/edit    → load into the form
//	GET    /api/form                  → form state
//	PATCH  /api/form                  → field changes
//	POST   /api/form/subjects         → add subject
//	DELETE /api/form/subjects/{name}  → remove subject
//	POST   /api/form/submit           → create or update
//	POST   /api/form/cancel           → leave edit mode
//	GET    /api/export                → students.csv / students.xlsx
func Routes(a *app.App) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /api/students", List(a))
	router.HandleFunc("POST /api/students/refresh", Refresh(a))
	router.HandleFunc("GET /api/students/search", Search(a))
	router.HandleFunc("GET /api/match", GetMatch(a))
	router.HandleFunc("DELETE /api/match", CloseMatch(a))
	router.HandleFunc("DELETE /api/students/{id}", Delete(a))
	router.HandleFunc("POST /api/students/{id}/edit", Edit(a))

	router.HandleFunc("GET /api/form", GetForm(a))
	router.HandleFunc("PATCH /api/form", PatchForm(a))
	router.HandleFunc("POST /api/form/subjects", AddSubject(a))
	router.HandleFunc("DELETE /api/form/subjects/{name}", RemoveSubject(a))
	router.HandleFunc("POST /api/form/submit", Submit(a))
	router.HandleFunc("POST /api/form/cancel", Cancel(a))

	router.HandleFunc("GET /api/export", Export(a))

	return router
}

// List handles GET /api/students?q=
// Returns the registry rows whose name or roll contains q.
func List(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		slog.Info("listing students", slog.String("q", q))

		response.WriteJSON(w, http.StatusOK, a.Students(q))
	}
}

// Refresh handles POST /api/students/refresh
func Refresh(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("refreshing students")

		if err := a.Refresh(r.Context()); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, a.Students(""))
	}
}

// Search handles GET /api/students/search?name=
//
// Success response (200 OK): the first student whose name matches.
// Error response: 404 when nothing matches.
func Search(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		slog.Info("searching student", slog.String("name", name))

		found, err := a.Search(r.Context(), name)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, found)
	}
}

// GetMatch handles GET /api/match
func GetMatch(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := a.Match()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		response.WriteJSON(w, http.StatusOK, m)
	}
}

// CloseMatch handles DELETE /api/match
func CloseMatch(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.CloseMatch()
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}

// Delete handles DELETE /api/students/{id}
//
// Success response (200 OK):
//
//	{ "status": "deleted" }
func Delete(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.PathValue("id"))
		slog.Info("deleting a student", slog.String("id", id))

		if err := a.Delete(r.Context(), id); err != nil {
			slog.Error("error deleting student", slog.String("id", id), slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Edit handles POST /api/students/{id}/edit
// Loads a copy of the row into the form and returns the form.
func Edit(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("editing a student", slog.String("id", id))

		if err := a.Edit(r.Context(), id); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, view(a))
	}
}

// GetForm handles GET /api/form
func GetForm(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, view(a))
	}
}

// PatchForm handles PATCH /api/form
//
// Request body (JSON): any subset of the editable fields.
//
//	{ "name": "Asha", "dob": "2005-01-01" }
func PatchForm(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		if err := decode(r, &fields); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := a.SetFields(fields); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, view(a))
	}
}

// AddSubject handles POST /api/form/subjects
//
// Request body (JSON):
//
//	{ "name": "Math", "marks": 90 }   or   { "name": "Math", "marks": "90" }
func AddSubject(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in SubjectInput
		if err := decode(r, &in); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := a.AddSubject(r.Context(), in.Name, rawMarks(in.Marks)); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, view(a))
	}
}

// RemoveSubject handles DELETE /api/form/subjects/{name}
func RemoveSubject(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.RemoveSubject(r.PathValue("name")); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, view(a))
	}
}

// Submit handles POST /api/form/submit
//
// Success responses:
//
//	201 Created  { "op": "create", "id": "<assigned id>" }
//	200 OK       { "op": "update", "id": "<id>" }
//
// Error responses:
//
//	400 — missing required fields (no request reached the backend)
//	409 — another submit/delete is outstanding
//	502 — the backend call (or the refresh after it) failed
func Submit(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("submitting form", slog.String("mode", string(a.Form().Mode)))

		res, err := a.Submit(r.Context())
		if err != nil {
			response.WriteError(w, err)
			return
		}

		status := http.StatusOK
		if res.Op == app.OpCreate {
			status = http.StatusCreated
		}
		slog.Info("form submitted", slog.String("op", res.Op), slog.String("id", res.ID))
		response.WriteJSON(w, status, res)
	}
}

// Cancel handles POST /api/form/cancel
func Cancel(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Cancel()
		response.WriteJSON(w, http.StatusOK, view(a))
	}
}

// Export handles GET /api/export?q=&format=csv|xlsx
// Streams the filtered registry as a file download.
func Export(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		format := strings.ToLower(r.URL.Query().Get("format"))
		slog.Info("exporting students", slog.String("q", q), slog.String("format", format))

		switch format {
		case "", "csv":
			attachment(w, export.ContentTypeCSV, export.FileName)
			w.WriteHeader(http.StatusOK)
			writeBody(w, []byte(a.ExportCSV(q)))
		case "xlsx":
			var buf bytes.Buffer
			if err := a.ExportXLSX(&buf, q); err != nil {
				slog.Error("xlsx export failed", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			attachment(w, export.ContentTypeXLSX, export.XLSXFileName)
			w.WriteHeader(http.StatusOK)
			writeBody(w, buf.Bytes())
		default:
			response.WriteError(w, types.NewValidationError("unsupported export format", "format",
				fmt.Sprintf("format %q is not csv or xlsx", format)))
		}
	}
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
}

// writeBody sends an already committed download. The status line is out,
// so a failed write can only be logged.
func writeBody(w io.Writer, p []byte) {
	if _, err := w.Write(p); err != nil {
		slog.Error("failed to write export", slog.String("error", err.Error()))
	}
}

func view(a *app.App) FormView {
	f := a.Form()
	return FormView{Mode: f.Mode, Record: f.Record, Busy: a.Busy()}
}

// decode reads a JSON body into dst; an empty body is an error.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// rawMarks turns the marks member back into the raw text the user typed:
// a JSON string is unquoted, anything else (a number) is used verbatim.
func rawMarks(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
