package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// request_id はRequestIDミドルウェアを通過したリクエストでのみ設定される。
type ErrorResponseBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusForError はエラーコードに対応するHTTPステータスコードを返す。
// 未知のコードは500として扱う。
func StatusForError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeVideoNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidSource:
		return http.StatusBadRequest
	case model.ErrCodeTranscriptionInProgress:
		return http.StatusConflict
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case model.ErrCodeEnrichmentUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteAPIError はエラーコードに対応するステータスで統一フォーマットのエラーレスポンスを書き込む。
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr *model.APIError) {
	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
	if r != nil {
		body.RequestID = RequestIDFromContext(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusForError(apiErr))
	json.NewEncoder(w).Encode(body)
}
