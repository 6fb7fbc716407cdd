package validation

import (
	"errors"
	"strings"
	"testing"
)

type slotInput struct {
	Date  string `json:"date" validate:"required,calendar_date"`
	Start string `json:"start_time" validate:"required,hhmm"`
	Zone  string `json:"timezone" validate:"omitempty,timezone"`
}

func TestStruct_CustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		in         slotInput
		wantFields []string
	}{
		{"valid", slotInput{Date: "2024-06-03", Start: "09:30", Zone: "Asia/Tokyo"}, nil},
		{"bad time", slotInput{Date: "2024-06-03", Start: "9:30"}, []string{"start_time"}},
		{"bad date", slotInput{Date: "2024-02-30", Start: "09:30"}, []string{"date"}},
		{"missing", slotInput{}, []string{"date", "start_time"}},
		{"bad zone", slotInput{Date: "2024-06-03", Start: "09:30", Zone: "Moon/Base"}, []string{"timezone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(v, &tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var errs Errors
			if !errors.As(err, &errs) {
				t.Fatalf("expected Errors, got %v", err)
			}
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("expected %d errors, got %v", len(tt.wantFields), errs)
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("error %d: field %s, want %s", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestErrors_PrefixAndDetails(t *testing.T) {
	errs := Errors{{Field: "start_time", Message: "start_time must be a time in HH:MM format"}}.Prefix("rules[1]")
	if errs[0].Field != "rules[1].start_time" {
		t.Errorf("unexpected prefixed field %s", errs[0].Field)
	}
	if !strings.Contains(errs.Error(), "1 error(s)") {
		t.Errorf("unexpected message %s", errs.Error())
	}
	if _, ok := errs.Details()["errors"]; !ok {
		t.Errorf("details should carry the errors list")
	}
}
