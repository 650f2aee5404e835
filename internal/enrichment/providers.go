// Package enrichment は動画ごとのエンリッチメント処理（メタデータ・統計・文字起こし）を調停する。
//
// 各 (動画ID, 種別) ごとにエポックを持ち、URL変更や再実行のたびにエポックを進める。
// プロバイダー呼び出しの完了時に、開始時に取得したエポックが現在値と一致する場合のみ結果を書き戻す。
package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

var (
	// ErrVideoNotFound は対象の動画が存在しない場合のエラー。
	ErrVideoNotFound = errors.New("動画が見つかりません")
	// ErrTranscriptionInProgress は文字起こし実行中に再実行しようとした場合のエラー。
	ErrTranscriptionInProgress = errors.New("文字起こしは既に実行中です")
	// ErrCoordinatorClosed は停止済みのCoordinatorを操作した場合のエラー。
	ErrCoordinatorClosed = errors.New("エンリッチメント処理は停止しています")
)

// MetadataProvider は動画メタデータの取得インターフェース。
// 結果がnilの場合は取得不可として扱う。
type MetadataProvider interface {
	FetchMetadata(ctx context.Context, videoURL string) (*model.VideoMetadata, error)
}

// StatsProvider は再生数・いいね数の取得インターフェース。
type StatsProvider interface {
	FetchStats(ctx context.Context, videoURL string) (model.StatsResult, error)
}

// TranscriptionProvider は文字起こしのインターフェース。
// fallback には動画の現在の文字起こしが渡される。
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, videoURL, fallback string) (model.TranscriptionResult, error)
}

// MetricsRecorder はエンリッチメント処理のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordEnrichmentStarted(kind string)
	RecordEnrichmentSuccess(kind string)
	RecordEnrichmentFailure(kind string, reason string)
	RecordEnrichmentStale(kind string)
	RecordProviderLatency(kind string, duration time.Duration)
}

// Providers はCoordinatorが利用するプロバイダー一式。
type Providers struct {
	Metadata      MetadataProvider
	Stats         StatsProvider
	Transcription TranscriptionProvider
}

type nopMetrics struct{}

func (nopMetrics) RecordEnrichmentStarted(string) {}
func (nopMetrics) RecordEnrichmentSuccess(string) {}
func (nopMetrics) RecordEnrichmentFailure(string, string) {}
func (nopMetrics) RecordEnrichmentStale(string) {}
func (nopMetrics) RecordProviderLatency(string, time.Duration) {}
