package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoaoVitorSD/aia-action/internal/metrics"
	"github.com/JoaoVitorSD/aia-action/internal/model"
	"github.com/JoaoVitorSD/aia-action/internal/repository"
	"github.com/JoaoVitorSD/aia-action/internal/videolink"
)

// pipelineKey は (動画ID, 種別) の組。エポックはこの単位で管理する。
type pipelineKey struct {
	videoID string
	kind    model.EnrichmentKind
}

// Coordinator は動画ごとの3種類のエンリッチメント処理を管理する。
//
// 起動判定・状態遷移・書き戻しはすべて mu の下で行い、
// プロバイダー呼び出しのみをgoroutineで非同期に実行する。
// エポック比較とリポジトリへの書き込みは同じロック区間で行うため、
// 比較と適用の間にURL変更が割り込むことはない。
type Coordinator struct {
	repo      repository.VideoRepository
	providers Providers
	metrics   MetricsRecorder
	logger    *slog.Logger

	mu     sync.Mutex
	epochs map[pipelineKey]uint64
	closed bool

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator はCoordinatorの新しいインスタンスを生成する。
// maxConcurrentが0以下の場合はデフォルト値8を使用する。
// recorderがnilの場合はメトリクスを記録しない。
func NewCoordinator(
	repo repository.VideoRepository,
	providers Providers,
	recorder MetricsRecorder,
	logger *slog.Logger,
	maxConcurrent int,
) *Coordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if recorder == nil {
		recorder = nopMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		repo:      repo,
		providers: providers,
		metrics:   recorder,
		logger:    logger,
		epochs:    make(map[pipelineKey]uint64),
		sem:       make(chan struct{}, maxConcurrent),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetVideoURL は動画のURLを設定し、値が変わった場合は3種類の処理を再起動する。
// URLの設定とエンリッチメント状態のリセットは1回の更新で行う。
// 現在と同じURLが指定された場合は何もしない。
func (c *Coordinator) SetVideoURL(ctx context.Context, videoID, rawURL string) (*model.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCoordinatorClosed
	}

	current, err := c.findLocked(ctx, videoID)
	if err != nil {
		return nil, err
	}

	videoURL := strings.TrimSpace(rawURL)
	if videoURL == current.VideoURL {
		return current, nil
	}

	updated, err := c.repo.Update(ctx, videoID, model.NewURLChangePatch(videoURL))
	if err != nil {
		return nil, fmt.Errorf("動画URLの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, ErrVideoNotFound
	}

	c.logger.Info("動画URLを更新しました",
		slog.String("video_id", videoID),
		slog.String("video_url", videoURL),
	)

	// リセット直後なので文字起こしも未実行状態であり、自動起動の対象になる
	for _, kind := range model.EnrichmentKinds() {
		c.triggerLocked(ctx, updated, kind)
	}

	return c.findLocked(ctx, videoID)
}

// Transcribe はオペレーター操作による文字起こしを開始する。
// 実行中の場合は ErrTranscriptionInProgress を返し、キューには積まない。
// URLが未設定の場合はエラー状態にする。
func (c *Coordinator) Transcribe(ctx context.Context, videoID string) (*model.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCoordinatorClosed
	}

	current, err := c.findLocked(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if current.Transcription.Status == model.EnrichmentLoading {
		return nil, ErrTranscriptionInProgress
	}

	if strings.TrimSpace(current.VideoURL) == "" {
		c.bumpLocked(pipelineKey{videoID: videoID, kind: model.KindTranscription})
		if _, err := c.repo.Update(ctx, videoID, model.NewErrorPatch(model.KindTranscription, model.MsgMissingLinkToTranscribe)); err != nil {
			return nil, fmt.Errorf("文字起こし状態の更新に失敗しました: %w", err)
		}
		c.metrics.RecordEnrichmentFailure(string(model.KindTranscription), metrics.ReasonInvalidLink)
		return c.findLocked(ctx, videoID)
	}

	c.triggerLocked(ctx, current, model.KindTranscription)
	return c.findLocked(ctx, videoID)
}

// Bootstrap は読み込み時点でURLが設定されている動画の処理を開始する。
// 文字起こしは未実行状態の場合のみ開始する。
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	videos, err := c.repo.List(ctx, model.VideoFilter{})
	if err != nil {
		return fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCoordinatorClosed
	}

	started := 0
	for _, v := range videos {
		if strings.TrimSpace(v.VideoURL) == "" {
			continue
		}
		for _, kind := range model.EnrichmentKinds() {
			if kind == model.KindTranscription && v.Transcription.Status != model.EnrichmentUnset {
				continue
			}
			c.triggerLocked(ctx, v, kind)
		}
		started++
	}

	c.logger.Info("既存動画のエンリッチメントを開始しました",
		slog.Int("video_count", started),
	)
	return nil
}

// RefreshStats はリンクが設定済みの動画の統計を再取得する。
// 取得中の動画と、リンクを解決できない動画は対象外。
// 再取得中も前回の再生数・いいね数は表示に使われ、失敗時もそのまま残る。
// 再取得を開始した動画の数を返す。
func (c *Coordinator) RefreshStats(ctx context.Context) (int, error) {
	videos, err := c.repo.List(ctx, model.VideoFilter{})
	if err != nil {
		return 0, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrCoordinatorClosed
	}

	started := 0
	for _, listed := range videos {
		v, err := c.findLocked(ctx, listed.ID)
		if err != nil {
			continue
		}
		if v.Stats.Status == model.EnrichmentLoading {
			continue
		}
		if _, ok := videolink.Resolve(v.VideoURL); !ok {
			continue
		}
		c.triggerLocked(ctx, v, model.KindStats)
		started++
	}
	return started, nil
}

// Release は削除された動画のエンリッチメント処理を破棄する。video.Service.Remove から呼ばれる。
// 実行中の処理は完了まで動作するが、その結果は書き戻されない。
func (c *Coordinator) Release(videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, kind := range model.EnrichmentKinds() {
		c.bumpLocked(pipelineKey{videoID: videoID, kind: kind})
	}
}

// Close はCoordinatorを停止する。
// 以降に完了した処理の結果は破棄され、実行中のプロバイダー呼び出しにはキャンセルが通知される。
// 全goroutineの終了を待ってから戻る。
func (c *Coordinator) Close() {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.mu.Unlock()

	if alreadyClosed {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.logger.Info("エンリッチメント処理を停止しました")
}

// triggerLocked はエポックを進めたうえで、1種類の処理を同期的に開始する。
// URLが空なら未実行のまま、解決できなければエラー状態にし、プロバイダーは呼ばない。
// c.mu を保持した状態で呼ぶこと。
func (c *Coordinator) triggerLocked(ctx context.Context, v *model.Video, kind model.EnrichmentKind) {
	key := pipelineKey{videoID: v.ID, kind: kind}
	epoch := c.bumpLocked(key)

	videoURL := strings.TrimSpace(v.VideoURL)
	if videoURL == "" {
		return
	}

	if _, ok := videolink.Resolve(videoURL); !ok {
		c.writeLocked(ctx, v.ID, model.NewErrorPatch(kind, model.MsgInvalidLink))
		c.metrics.RecordEnrichmentFailure(string(kind), metrics.ReasonInvalidLink)
		return
	}

	c.writeLocked(ctx, v.ID, model.NewLoadingPatch(kind))
	c.metrics.RecordEnrichmentStarted(string(kind))

	// 文字起こしには現在の文字起こしを元テキストとして渡す
	fallback := v.EffectiveTranscript()
	runID := uuid.NewString()

	c.wg.Add(1)
	go c.run(key, epoch, runID, videoURL, fallback)
}

// run はプロバイダーを呼び出し、結果をエポック検証付きで書き戻す。
func (c *Coordinator) run(key pipelineKey, epoch uint64, runID, videoURL, fallback string) {
	defer c.wg.Done()

	select {
	case c.sem <- struct{}{}:
	case <-c.ctx.Done():
		return
	}
	defer func() { <-c.sem }()

	start := time.Now()
	patch, reason := c.call(key.kind, videoURL, fallback)
	duration := time.Since(start)
	c.metrics.RecordProviderLatency(string(key.kind), duration)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.epochs[key] != epoch {
		c.metrics.RecordEnrichmentStale(string(key.kind))
		c.logger.Debug("古いエンリッチメント結果を破棄しました",
			slog.String("video_id", key.videoID),
			slog.String("kind", string(key.kind)),
			slog.String("run_id", runID),
		)
		return
	}

	c.writeLocked(c.ctx, key.videoID, patch)

	if reason != "" {
		c.metrics.RecordEnrichmentFailure(string(key.kind), reason)
		c.logger.Warn("エンリッチメントに失敗しました",
			slog.String("video_id", key.videoID),
			slog.String("kind", string(key.kind)),
			slog.String("run_id", runID),
			slog.String("reason", reason),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return
	}

	c.metrics.RecordEnrichmentSuccess(string(key.kind))
	c.logger.Info("エンリッチメントが完了しました",
		slog.String("video_id", key.videoID),
		slog.String("kind", string(key.kind)),
		slog.String("run_id", runID),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
}

// call は種別に応じたプロバイダーを呼び出し、書き戻すパッチを返す。
// 失敗時は失敗理由のラベルも返す。
func (c *Coordinator) call(kind model.EnrichmentKind, videoURL, fallback string) (model.VideoPatch, string) {
	switch kind {
	case model.KindMetadata:
		meta, err := c.providers.Metadata.FetchMetadata(c.ctx, videoURL)
		if err != nil {
			c.logProviderError(kind, videoURL, err)
			return model.NewErrorPatch(kind, model.MsgMetadataUnavailable), metrics.ReasonProviderError
		}
		if meta == nil {
			return model.NewErrorPatch(kind, model.MsgMetadataUnavailable), metrics.ReasonUnavailable
		}
		return model.VideoPatch{Metadata: &model.MetadataPatch{
			Status: model.EnrichmentSuccess,
			Result: meta,
		}}, ""

	case model.KindStats:
		res, err := c.providers.Stats.FetchStats(c.ctx, videoURL)
		if err != nil {
			c.logProviderError(kind, videoURL, err)
			return model.NewErrorPatch(kind, model.MsgStatsFailed), metrics.ReasonProviderError
		}
		if res.Error != "" {
			return model.NewErrorPatch(kind, res.Error), metrics.ReasonErrorPayload
		}
		return model.VideoPatch{Stats: &model.StatsPatch{
			Status: model.EnrichmentSuccess,
			Views:  res.Views,
			Likes:  res.Likes,
		}}, ""

	case model.KindTranscription:
		res, err := c.providers.Transcription.Transcribe(c.ctx, videoURL, fallback)
		if err != nil {
			c.logProviderError(kind, videoURL, err)
			return model.NewErrorPatch(kind, model.MsgTranscriptionFailed), metrics.ReasonProviderError
		}
		if res.Error != "" {
			return model.NewErrorPatch(kind, res.Error), metrics.ReasonErrorPayload
		}
		text := res.Transcription
		return model.VideoPatch{Transcription: &model.TranscriptionPatch{
			Status: model.EnrichmentSuccess,
			Text:   &text,
		}}, ""
	}

	return model.VideoPatch{}, metrics.ReasonUnavailable
}

func (c *Coordinator) logProviderError(kind model.EnrichmentKind, videoURL string, err error) {
	c.logger.Warn("プロバイダーの呼び出しに失敗しました",
		slog.String("kind", string(kind)),
		slog.String("video_url", videoURL),
		slog.String("error", err.Error()),
	)
}

func (c *Coordinator) bumpLocked(key pipelineKey) uint64 {
	c.epochs[key]++
	return c.epochs[key]
}

func (c *Coordinator) findLocked(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := c.repo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if v == nil {
		return nil, ErrVideoNotFound
	}
	return v, nil
}

// writeLocked はパッチを適用する。失敗はその動画のみに閉じるためログ出力に留める。
func (c *Coordinator) writeLocked(ctx context.Context, videoID string, patch model.VideoPatch) {
	if _, err := c.repo.Update(ctx, videoID, patch); err != nil {
		c.logger.Error("エンリッチメント状態の更新に失敗しました",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
	}
}
