package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JoaoVitorSD/aia-action/internal/middleware"
	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層のエラーを統一エラーフォーマットで返す。
// APIError以外は内部エラーとしてログに残し、詳細はクライアントに返さない。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, r, apiErr)
		return
	}

	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteAPIError(w, r, model.NewInternalError())
}
