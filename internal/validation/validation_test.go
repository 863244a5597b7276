package validation

import (
	"errors"
	"strings"
	"testing"

	"aslipolitik/internal/apperr"
)

type sample struct {
	Name     string `json:"name" validate:"required,min=2,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Category string `json:"category" validate:"required,category"`
	Slug     string `json:"slug" validate:"omitempty,slug"`
	Internal string `json:"-" validate:"omitempty,max=1"`
}

func valid() sample {
	return sample{Name: "Asha", Email: "asha@example.com", Category: "india_regional"}
}

func TestStructValid(t *testing.T) {
	if err := Struct(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := valid()
	s.Slug = "state-elections-2026"
	if err := Struct(s); err != nil {
		t.Fatalf("valid slug rejected: %v", err)
	}
}

func TestStructFieldMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sample)
		field  string
		want   string
	}{
		{"missing name", func(s *sample) { s.Name = "" }, "name", "is required"},
		{"short name", func(s *sample) { s.Name = "A" }, "name", "at least 2"},
		{"long name", func(s *sample) { s.Name = strings.Repeat("a", 11) }, "name", "at most 10"},
		{"bad email", func(s *sample) { s.Email = "not-an-email" }, "email", "valid email"},
		{"unknown category", func(s *sample) { s.Category = "sports" }, "category", "known category"},
		{"bad slug", func(s *sample) { s.Slug = "Not A Slug" }, "slug", "lowercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)

			fields, ok := apperr.FieldsOf(Struct(s))
			if !ok {
				t.Fatal("expected validation errors")
			}
			msg, found := fields[tt.field]
			if !found {
				t.Fatalf("field %q missing from %v", tt.field, fields)
			}
			if !strings.Contains(msg, tt.want) {
				t.Errorf("message %q does not mention %q", msg, tt.want)
			}
		})
	}
}

func TestStructCollectsAllFields(t *testing.T) {
	err := Struct(sample{})

	var ves apperr.ValidationErrors
	if !errors.As(err, &ves) {
		t.Fatalf("expected apperr.ValidationErrors, got %T", err)
	}
	got := ves.SortedFields()
	want := []string{"category", "email", "name"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("fields: got %v, want %v", got, want)
	}
}

func TestStructNonStruct(t *testing.T) {
	err := Struct(42)
	if err == nil {
		t.Fatal("expected an error for a non-struct value")
	}
	if _, ok := apperr.FieldsOf(err); ok {
		t.Error("a non-struct value is not a field validation failure")
	}
}
