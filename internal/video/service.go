// Package video は動画レビューのユースケースを提供する。
// 一覧・詳細の取得、リンク設定と文字起こしの起動、アクション送信、分析結果の集計を扱う。
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JoaoVitorSD/aia-action/internal/analytics"
	"github.com/JoaoVitorSD/aia-action/internal/enrichment"
	"github.com/JoaoVitorSD/aia-action/internal/model"
	"github.com/JoaoVitorSD/aia-action/internal/repository"
	"github.com/JoaoVitorSD/aia-action/internal/rules"
	"github.com/JoaoVitorSD/aia-action/internal/videolink"
)

// Enricher はエンリッチメント処理の起動インターフェース。
type Enricher interface {
	SetVideoURL(ctx context.Context, videoID, rawURL string) (*model.Video, error)
	Transcribe(ctx context.Context, videoID string) (*model.Video, error)
	Release(videoID string)
}

// ActionRecorder はアクション送信の記録インターフェース。
type ActionRecorder interface {
	RecordActionSent()
}

// View は動画と、読み取り時に計算する派生情報をまとめた表示用オブジェクト。
// 判定結果や抽出結果はキャッシュせず、取得のたびに計算し直す。
type View struct {
	Video       *model.Video
	EmbedURL    string
	Decision    rules.Decision
	Emotion     analytics.Emotion
	EmotionTone string
	Descriptors []string
}

// Service は動画レビューのサービス層。
type Service struct {
	repo     repository.VideoRepository
	enricher Enricher
	recorder ActionRecorder
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.VideoRepository,
	enricher Enricher,
	recorder ActionRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		enricher: enricher,
		recorder: recorder,
		logger:   logger,
	}
}

// ParseSource はクエリパラメータのソース指定を解釈する。
// 空文字列と "all" は全ソースを表し、ゼロ値を返す。
func ParseSource(raw string) (model.Source, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", nil
	case "tiktok":
		return model.SourceTikTok, nil
	case "youtube":
		return model.SourceYouTube, nil
	default:
		return "", model.NewInvalidSourceError(raw)
	}
}

// List は条件に合う動画を登録順に返す。
func (s *Service) List(ctx context.Context, source, query string) ([]View, error) {
	src, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	videos, err := s.repo.List(ctx, model.VideoFilter{Source: src, Query: strings.TrimSpace(query)})
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}

	views := make([]View, len(videos))
	for i, v := range videos {
		views[i] = newView(v)
	}
	return views, nil
}

// Get は動画の詳細を返す。
func (s *Service) Get(ctx context.Context, videoID string) (*View, error) {
	v, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if v == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}
	view := newView(v)
	return &view, nil
}

// UpdateLink は動画リンクを設定し、エンリッチメント処理を開始する。
// 空文字列はリンクの解除として扱う。
func (s *Service) UpdateLink(ctx context.Context, videoID, rawURL string) (*View, error) {
	v, err := s.enricher.SetVideoURL(ctx, videoID, rawURL)
	if err != nil {
		return nil, mapEnrichmentError(videoID, err)
	}
	view := newView(v)
	return &view, nil
}

// Transcribe は文字起こしを再実行する。
func (s *Service) Transcribe(ctx context.Context, videoID string) (*View, error) {
	v, err := s.enricher.Transcribe(ctx, videoID)
	if err != nil {
		return nil, mapEnrichmentError(videoID, err)
	}
	view := newView(v)
	return &view, nil
}

// SendAction は推奨アクションを送信済みにする。
// 送信済みの動画に対しては何もせず、現在の状態を返す。
// 送信の記録は状態を実際に変更した呼び出しでのみ行う。
func (s *Service) SendAction(ctx context.Context, videoID string) (*View, error) {
	updated, changed, err := s.repo.MarkActionSent(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("アクション状態の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}

	if changed {
		s.recorder.RecordActionSent()
		decision := rules.Classify(updated)
		s.logger.Info("アクションを送信しました",
			slog.String("video_id", videoID),
			slog.String("action", decision.Action),
			slog.String("priority", string(decision.Priority)),
		)
	}

	view := newView(updated)
	return &view, nil
}

// Remove は動画を削除し、その動画のエンリッチメント処理を破棄する。
// 実行中の処理の結果は書き戻されない。
func (s *Service) Remove(ctx context.Context, videoID string) error {
	deleted, err := s.repo.Delete(ctx, videoID)
	if err != nil {
		return fmt.Errorf("動画の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewVideoNotFoundError(videoID)
	}

	s.enricher.Release(videoID)
	s.logger.Info("動画を削除しました", slog.String("video_id", videoID))
	return nil
}

// Summary は全動画のダッシュボード集計を返す。
func (s *Service) Summary(ctx context.Context) (analytics.Summary, error) {
	videos, err := s.repo.List(ctx, model.VideoFilter{})
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	return analytics.Summarize(videos), nil
}

// Descriptors は全動画の文字起こしに現れる形容詞の集計を返す。
func (s *Service) Descriptors(ctx context.Context) ([]analytics.DescriptorStat, error) {
	videos, err := s.repo.List(ctx, model.VideoFilter{})
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	return analytics.Aggregate(videos), nil
}

func newView(v *model.Video) View {
	embedURL, _ := videolink.EmbedURL(v.VideoURL)
	emotion := analytics.ParseEmotion(v.PredominantFacialEmotion)
	return View{
		Video:       v,
		EmbedURL:    embedURL,
		Decision:    rules.Classify(v),
		Emotion:     emotion,
		EmotionTone: analytics.EmotionTone(emotion.Name),
		Descriptors: analytics.ExtractDescriptors(v.EffectiveTranscript()),
	}
}

// mapEnrichmentError はエンリッチメント層のエラーをAPIErrorに変換する。
func mapEnrichmentError(videoID string, err error) error {
	switch {
	case errors.Is(err, enrichment.ErrVideoNotFound):
		return model.NewVideoNotFoundError(videoID)
	case errors.Is(err, enrichment.ErrTranscriptionInProgress):
		return model.NewTranscriptionInProgressError(videoID)
	case errors.Is(err, enrichment.ErrCoordinatorClosed):
		return model.NewEnrichmentUnavailableError()
	default:
		return err
	}
}
