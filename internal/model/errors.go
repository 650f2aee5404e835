package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, video, enrichment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeVideoNotFound           = "VIDEO_NOT_FOUND"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeInvalidSource           = "INVALID_SOURCE"
	ErrCodeTranscriptionInProgress = "TRANSCRIPTION_IN_PROGRESS"
	ErrCodeEnrichmentUnavailable   = "ENRICHMENT_UNAVAILABLE"
	ErrCodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// NewVideoNotFoundError は動画未検出エラーを生成する。
func NewVideoNotFoundError(videoID string) *APIError {
	return &APIError{
		Code:     ErrCodeVideoNotFound,
		Message:  fmt.Sprintf("指定された動画が見つかりません: %s", videoID),
		Category: "video",
		Action:   "動画IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidSourceError は無効なソース指定エラーを生成する。
func NewInvalidSourceError(source string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSource,
		Message:  fmt.Sprintf("無効なソースです: %s", source),
		Category: "validation",
		Action:   "ソースには TikTok または YouTube を指定してください。",
	}
}

// NewTranscriptionInProgressError は文字起こし実行中に再実行しようとした場合のエラーを生成する。
func NewTranscriptionInProgressError(videoID string) *APIError {
	return &APIError{
		Code:     ErrCodeTranscriptionInProgress,
		Message:  fmt.Sprintf("文字起こしは既に実行中です: %s", videoID),
		Category: "enrichment",
		Action:   "完了するまで待ってから再度お試しください。",
	}
}

// NewEnrichmentUnavailableError はエンリッチメント処理が停止している場合のエラーを生成する。
func NewEnrichmentUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeEnrichmentUnavailable,
		Message:  "エンリッチメント処理は停止しています。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterに示された秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
