package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "cardfleet/pkg/domain-errors"
)

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeConflict, "card is already assigned"))

	if rec.Code != 409 {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "conflict" {
		t.Errorf("error = %q, want conflict", body["error"])
	}
	if body["error_description"] != "card is already assigned" {
		t.Errorf("error_description = %q", body["error_description"])
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"))

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal_error" {
		t.Errorf("error = %q, want internal_error", body["error"])
	}
	if _, ok := body["error_description"]; ok {
		t.Error("internal errors must not leak a description")
	}
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body decodes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/admin/cards/verify",
			strings.NewReader(`{"serial_number":"NFC-001"}`))

		req, ok := DecodeAndPrepare[struct {
			SerialNumber string `json:"serial_number"`
		}](rec, r, logger)
		if !ok {
			t.Fatal("expected ok")
		}
		if req.SerialNumber != "NFC-001" {
			t.Errorf("serial_number = %q, want NFC-001", req.SerialNumber)
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/admin/cards/verify",
			strings.NewReader(`{not json`))

		_, ok := DecodeAndPrepare[struct{}](rec, r, logger)
		if ok {
			t.Fatal("expected decode to fail")
		}
		if rec.Code != 400 {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Errorf("error = %q, want bad_request", body["error"])
		}
	})
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]int{"count": 2})

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["count"] != 2 {
		t.Errorf("count = %d, want 2", body["count"])
	}
}
