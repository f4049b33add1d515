package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aanand-mishra/xgrade/internal/types"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{name: "validation", err: types.NewValidationError("bad", "roll", "roll is a required field"), status: http.StatusBadRequest, kind: KindValidation},
		{name: "not found", err: &types.NotFoundError{Query: "x"}, status: http.StatusNotFound, kind: KindNotFound},
		{name: "busy", err: fmt.Errorf("submit: %w", types.ErrBusy), status: http.StatusConflict, kind: KindBusy},
		{name: "remote", err: &types.RemoteError{Op: "create", Err: errors.New("refused")}, status: http.StatusBadGateway, kind: KindRemote},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError, kind: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := FromError(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if body.Kind != tt.kind || body.Status != StatusError {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestWriteErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	_ = WriteError(rec, types.NewValidationError("please fill all required fields", "dob", "dob is a required field"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got Response
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Fields["dob"] != "dob is a required field" {
		t.Errorf("fields = %v", got.Fields)
	}
}
