package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/JoaoVitorSD/aia-action/internal/middleware"
	"github.com/JoaoVitorSD/aia-action/internal/model"
	"github.com/JoaoVitorSD/aia-action/internal/video"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize はリクエストボディの上限。
const maxRequestBodySize = 64 << 10

// VideoServiceInterface は動画ハンドラーが必要とするサービスインターフェース。
type VideoServiceInterface interface {
	List(ctx context.Context, source, query string) ([]video.View, error)
	Get(ctx context.Context, videoID string) (*video.View, error)
	UpdateLink(ctx context.Context, videoID, rawURL string) (*video.View, error)
	Transcribe(ctx context.Context, videoID string) (*video.View, error)
	SendAction(ctx context.Context, videoID string) (*video.View, error)
	Remove(ctx context.Context, videoID string) error
}

// VideoHandler は動画レビューのHTTPハンドラー。
type VideoHandler struct {
	service VideoServiceInterface
}

// NewVideoHandler はVideoHandlerを生成する。
func NewVideoHandler(service VideoServiceInterface) *VideoHandler {
	return &VideoHandler{service: service}
}

// updateLinkRequest はリンク設定リクエストのボディ。
// 空文字列はリンクの解除を表す。
type updateLinkRequest struct {
	VideoURL *string `json:"video_url"`
}

type emotionResponse struct {
	Label      string `json:"label"`
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
	Tone       string `json:"tone"`
}

type decisionResponse struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

type metadataResponse struct {
	Status       string `json:"status"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

type statsResponse struct {
	Status string `json:"status"`
	Views  *int64 `json:"views"`
	Likes  *int64 `json:"likes"`
	Error  string `json:"error"`
}

type transcriptionResponse struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// videoResponse は動画情報のAPIレスポンス。
// views/likes/transcript は表示に使う実効値で、上流の値は baseline_* に入る。
type videoResponse struct {
	ID                  string                `json:"id"`
	Source              string                `json:"source"`
	Views               int64                 `json:"views"`
	Likes               int64                 `json:"likes"`
	Transcript          string                `json:"transcript"`
	BaselineViews       int64                 `json:"baseline_views"`
	BaselineLikes       int64                 `json:"baseline_likes"`
	BaselineTranscript  string                `json:"baseline_transcript"`
	FacialEmotion       emotionResponse       `json:"facial_emotion"`
	Sentiment           string                `json:"sentiment"`
	Topic               string                `json:"topic"`
	SuggestedAction     string                `json:"suggested_action"`
	ActionPriority      string                `json:"action_priority"`
	ActionJustification string                `json:"action_justification"`
	ActionStatus        string                `json:"action_status"`
	Decision            decisionResponse      `json:"decision"`
	Descriptors         []string              `json:"descriptors"`
	VideoURL            string                `json:"video_url"`
	EmbedURL            string                `json:"embed_url,omitempty"`
	Metadata            metadataResponse      `json:"metadata"`
	Stats               statsResponse         `json:"stats"`
	Transcription       transcriptionResponse `json:"transcription"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// ListVideos は動画一覧を返す。
// GET /api/videos?source=&q=
func (h *VideoHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.service.List(r.Context(), q.Get("source"), q.Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]videoResponse, len(views))
	for i, v := range views {
		resp[i] = toVideoResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetVideo は動画詳細を返す。
// GET /api/videos/{id}
func (h *VideoHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(*view))
}

// UpdateLink は動画リンクを設定し、エンリッチメントを開始する。
// PUT /api/videos/{id}/link
func (h *VideoHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var req updateLinkRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, r, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.VideoURL == nil {
		middleware.WriteAPIError(w, r, model.NewInvalidRequestError("video_url は必須です"))
		return
	}

	view, err := h.service.UpdateLink(r.Context(), chi.URLParam(r, "id"), *req.VideoURL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(*view))
}

// Transcribe は文字起こしを再実行する。結果は非同期に反映されるため202を返す。
// POST /api/videos/{id}/transcription
func (h *VideoHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Transcribe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toVideoResponse(*view))
}

// SendAction は推奨アクションを送信済みにする。
// POST /api/videos/{id}/action
func (h *VideoHandler) SendAction(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.SendAction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(*view))
}

// DeleteVideo は動画を削除する。
// DELETE /api/videos/{id}
func (h *VideoHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toVideoResponse はvideo.ViewからAPIレスポンスに変換する。
func toVideoResponse(view video.View) videoResponse {
	v := view.Video

	descriptors := view.Descriptors
	if descriptors == nil {
		descriptors = []string{}
	}

	return videoResponse{
		ID:                 v.ID,
		Source:             string(v.Source),
		Views:              v.EffectiveViews(),
		Likes:              v.EffectiveLikes(),
		Transcript:         v.EffectiveTranscript(),
		BaselineViews:      v.ViewCountBaseline,
		BaselineLikes:      v.LikeCountBaseline,
		BaselineTranscript: v.VoiceTranscriptBaseline,
		FacialEmotion: emotionResponse{
			Label:      v.PredominantFacialEmotion,
			Name:       view.Emotion.Name,
			Confidence: view.Emotion.Confidence,
			Tone:       view.EmotionTone,
		},
		Sentiment:           v.OverallAISentiment,
		Topic:               v.AnalyzedTopic,
		SuggestedAction:     v.SuggestedAction,
		ActionPriority:      string(v.ActionPriority),
		ActionJustification: v.ActionJustification,
		ActionStatus:        string(v.ActionStatus),
		Decision: decisionResponse{
			Action:   view.Decision.Action,
			Priority: string(view.Decision.Priority),
		},
		Descriptors: descriptors,
		VideoURL:    v.VideoURL,
		EmbedURL:    view.EmbedURL,
		Metadata: metadataResponse{
			Status:       string(v.Metadata.Status),
			Title:        v.Metadata.Title,
			Author:       v.Metadata.Author,
			ThumbnailURL: v.Metadata.ThumbnailURL,
			Error:        v.Metadata.Error,
		},
		Stats: statsResponse{
			Status: string(v.Stats.Status),
			Views:  v.Stats.Views,
			Likes:  v.Stats.Likes,
			Error:  v.Stats.Error,
		},
		Transcription: transcriptionResponse{
			Status: string(v.Transcription.Status),
			Text:   v.Transcription.Text,
			Error:  v.Transcription.Error,
		},
		UpdatedAt: v.UpdatedAt,
	}
}
