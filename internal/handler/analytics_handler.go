package handler

import (
	"context"
	"net/http"

	"github.com/JoaoVitorSD/aia-action/internal/analytics"
)

// AnalyticsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	Summary(ctx context.Context) (analytics.Summary, error)
	Descriptors(ctx context.Context) ([]analytics.DescriptorStat, error)
}

// AnalyticsHandler はダッシュボード集計のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type bucketResponse struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SummaryResponse はダッシュボード集計のレスポンス。
// reportサブコマンドの出力にも使う。
type SummaryResponse struct {
	TotalVideos  int              `json:"total_videos"`
	TotalViews   int64            `json:"total_views"`
	TotalLikes   int64            `json:"total_likes"`
	AverageViews int64            `json:"average_views"`
	BySentiment  []bucketResponse `json:"by_sentiment"`
	BySource     []bucketResponse `json:"by_source"`
	ByPriority   []bucketResponse `json:"by_priority"`
	ByEmotion    []bucketResponse `json:"by_emotion"`
}

// DescriptorResponse は形容詞集計の1件分のレスポンス。
type DescriptorResponse struct {
	Descriptor string `json:"descriptor"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Summary はダッシュボード集計を返す。
// GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToSummaryResponse(summary))
}

// Descriptors は形容詞の集計を返す。
// GET /api/analytics/descriptors
func (h *AnalyticsHandler) Descriptors(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Descriptors(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDescriptorResponses(stats))
}

// ToSummaryResponse はanalytics.SummaryからAPIレスポンスに変換する。
func ToSummaryResponse(s analytics.Summary) SummaryResponse {
	return SummaryResponse{
		TotalVideos:  s.TotalVideos,
		TotalViews:   s.TotalViews,
		TotalLikes:   s.TotalLikes,
		AverageViews: s.AverageViews,
		BySentiment:  toBucketResponses(s.BySentiment),
		BySource:     toBucketResponses(s.BySource),
		ByPriority:   toBucketResponses(s.ByPriority),
		ByEmotion:    toBucketResponses(s.ByEmotion),
	}
}

// ToDescriptorResponses は形容詞集計をAPIレスポンスに変換する。
func ToDescriptorResponses(stats []analytics.DescriptorStat) []DescriptorResponse {
	out := make([]DescriptorResponse, len(stats))
	for i, s := range stats {
		out[i] = DescriptorResponse{
			Descriptor: s.Descriptor,
			Count:      s.Count,
			Percentage: s.Percentage,
		}
	}
	return out
}

func toBucketResponses(buckets []analytics.Bucket) []bucketResponse {
	out := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = bucketResponse{Label: b.Label, Count: b.Count}
	}
	return out
}
