package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestWriteAPIError_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteAPIError(w, nil, model.NewVideoNotFoundError("vid-404"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	body := decodeErrorBody(t, w)
	if body.Code != model.ErrCodeVideoNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeVideoNotFound)
	}
	if body.Category != "video" {
		t.Errorf("category = %q, want %q", body.Category, "video")
	}
	if body.Message == "" || body.Action == "" {
		t.Error("message and action should not be empty")
	}
	if body.RequestID != "" {
		t.Errorf("request_id = %q, want empty without request", body.RequestID)
	}
}

func TestWriteAPIError_IncludesRequestID(t *testing.T) {
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, r, model.NewInvalidSourceError("Vimeo"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/videos?source=Vimeo", nil)
	req.Header.Set(RequestIDHeader, "req-abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeErrorBody(t, w)
	if body.RequestID != "req-abc-123" {
		t.Errorf("request_id = %q, want %q", body.RequestID, "req-abc-123")
	}

	// ヘッダーとボディのIDが一致すること
	if got := w.Header().Get(RequestIDHeader); got != body.RequestID {
		t.Errorf("header %s = %q, body request_id = %q", RequestIDHeader, got, body.RequestID)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeVideoNotFound, http.StatusNotFound},
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeInvalidSource, http.StatusBadRequest},
		{model.ErrCodeTranscriptionInProgress, http.StatusConflict},
		{model.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{model.ErrCodeEnrichmentUnavailable, http.StatusServiceUnavailable},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusForError(&model.APIError{Code: tt.code}); got != tt.want {
				t.Errorf("StatusForError(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteAPIError(w, nil, model.NewInternalError())

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	for _, field := range []string{"code", "message", "category", "action"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if _, ok := raw["request_id"]; ok {
		t.Error("request_id should be omitted when empty")
	}
}
