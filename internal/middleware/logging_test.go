package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// serveAndDecodeLog はハンドラーを1回実行し、出力されたログエントリを返す。
func serveAndDecodeLog(t *testing.T, h http.Handler, req *http.Request, level slog.Level) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	NewLoggingMiddleware(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	if buf.Len() == 0 {
		return nil
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)

	entry := serveAndDecodeLog(t, h, req, slog.LevelInfo)

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/api/videos" {
		t.Errorf("path = %v, want /api/videos", entry["path"])
	}
	if status, _ := entry["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if n, _ := entry["bytes"].(float64); n != 11 {
		t.Errorf("bytes = %v, want 11", entry["bytes"])
	}
	if entry["client"] != "192.0.2.1" {
		t.Errorf("client = %v, want 192.0.2.1", entry["client"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
	if _, ok := entry["request_id"]; ok {
		t.Errorf("request_id should be omitted, got %v", entry["request_id"])
	}
}

func TestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req = req.WithContext(context.WithValue(req.Context(), requestIDContextKey, "req-123"))

	entry := serveAndDecodeLog(t, h, req, slog.LevelInfo)

	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", entry["request_id"])
	}
	// 何も書き込まないハンドラーは200として記録される
	if status, _ := entry["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}

func TestLoggingMiddleware_IncludesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(logger))
	r.Post("/api/videos/{id}/transcription", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/videos/vid-001/transcription", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry["route"] != "/api/videos/{id}/transcription" {
		t.Errorf("route = %v", entry["route"])
	}
	if entry["path"] != "/api/videos/vid-001/transcription" {
		t.Errorf("path = %v", entry["path"])
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"成功はINFO", "/api/videos", http.StatusOK, "INFO"},
		{"409はWARN", "/api/videos/vid-001/transcription", http.StatusConflict, "WARN"},
		{"429はWARN", "/api/videos", http.StatusTooManyRequests, "WARN"},
		{"503はERROR", "/api/videos/vid-001/link", http.StatusServiceUnavailable, "ERROR"},
		{"ヘルスチェック成功はDEBUG", "/health", http.StatusOK, "DEBUG"},
		{"メトリクス取得成功はDEBUG", "/metrics", http.StatusOK, "DEBUG"},
		{"ヘルスチェック失敗はERROR", "/health", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)

			entry := serveAndDecodeLog(t, h, req, slog.LevelDebug)

			if entry["level"] != tt.want {
				t.Errorf("level = %v, want %s", entry["level"], tt.want)
			}
			if status := int(entry["status"].(float64)); status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
		})
	}
}

func TestLoggingMiddleware_HealthSuppressedAtInfo(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	if entry := serveAndDecodeLog(t, h, req, slog.LevelInfo); entry != nil {
		t.Errorf("health check should not be logged at INFO, got %v", entry)
	}
}

func TestLoggingMiddleware_FirstStatusWins(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/videos/missing", nil)

	entry := serveAndDecodeLog(t, h, req, slog.LevelInfo)

	if status := int(entry["status"].(float64)); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}
