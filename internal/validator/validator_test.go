package validator

import (
	"errors"
	"testing"

	"github.com/aanand-mishra/xgrade/internal/types"
)

func TestStructReportsMissingFieldsByJSONName(t *testing.T) {
	err := Struct(types.Student{Name: "Asha"}, "please fill all required fields")

	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Struct() error = %v, want *ValidationError", err)
	}
	if ve.Message != "please fill all required fields" {
		t.Errorf("message = %q", ve.Message)
	}
	for _, field := range []string{"roll", "dob"} {
		msg, ok := ve.Fields[field]
		if !ok {
			t.Errorf("missing field %q in %v", field, ve.Fields)
			continue
		}
		if msg != field+" is a required field" {
			t.Errorf("Fields[%q] = %q", field, msg)
		}
	}
	if _, ok := ve.Fields["name"]; ok {
		t.Error("name reported although it is set")
	}
}

func TestStructAcceptsCompleteRecord(t *testing.T) {
	s := types.Student{Name: "Asha", Roll: "12", DOB: "2005-01-01"}
	if err := Struct(s, "x"); err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
}
