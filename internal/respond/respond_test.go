package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusServiceUnavailable, "try again")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "try again" {
		t.Errorf("error: got %v", body["error"])
	}
	if _, ok := body["fields"]; ok {
		t.Error("fields should be omitted when empty")
	}
}

func TestInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	Invalid(rec, map[string]string{"email": "invalid email"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Fields["email"] != "invalid email" {
		t.Errorf("fields: got %v", body.Fields)
	}
}
