// Package refresh はリンク済み動画の再生数・いいね数を定期的に再取得するジョブを提供する。
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JoaoVitorSD/aia-action/internal/enrichment"
)

// StatsRefresher は統計の再取得を開始するインターフェース。
// テスト時にモックに差し替え可能。
type StatsRefresher interface {
	RefreshStats(ctx context.Context) (int, error)
}

// Config はジョブの設定パラメータ。
type Config struct {
	// Interval は再取得の実行間隔。0以下の場合はジョブを起動しない。
	Interval time.Duration
}

// Job は統計の定期再取得ジョブ。
// 前回値の維持と取得中の二重起動防止はStatsRefresher側で行う。
type Job struct {
	refresher         StatsRefresher
	logger            *slog.Logger
	config            Config
	consecutiveErrors int
	backoffUntil      time.Time
	now               func() time.Time
}

// NewJob はJobの新しいインスタンスを生成する。
func NewJob(refresher StatsRefresher, logger *slog.Logger, config Config) *Job {
	return &Job{
		refresher: refresher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Enabled はジョブを起動する設定かどうかを返す。
func (j *Job) Enabled() bool {
	return j.config.Interval > 0
}

// Start はジョブをcronのスケジューラで定期実行する。
// コンテキストがキャンセルされるか、Coordinatorが停止するまでブロックする。
// 起動直後は既存動画の取得が進行中のため、最初の実行は1間隔後に行う。
// cronの最小間隔は1秒で、それ未満の間隔は1秒に切り上げられる。
func (j *Job) Start(ctx context.Context) {
	if !j.Enabled() {
		return
	}

	stopped := make(chan struct{})
	var once sync.Once

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(j.config.Interval), cron.FuncJob(func() {
		if err := j.RunOnce(ctx); err != nil {
			if errors.Is(err, enrichment.ErrCoordinatorClosed) {
				once.Do(func() { close(stopped) })
				return
			}
			j.logger.Error("統計の再取得に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}))

	j.logger.Info("統計の再取得ジョブを開始しました",
		slog.Duration("interval", j.config.Interval),
	)
	c.Start()

	select {
	case <-ctx.Done():
		j.logger.Info("統計の再取得ジョブを停止しました")
	case <-stopped:
		j.logger.Info("エンリッチメント処理が停止したため再取得ジョブを終了します")
	}

	<-c.Stop().Done()
}

// RunOnce は1回の再取得サイクルを実行する。
func (j *Job) RunOnce(ctx context.Context) error {
	now := j.now()

	// バックオフ中の場合はスキップ
	if !j.backoffUntil.IsZero() && now.Before(j.backoffUntil) {
		j.logger.Info("統計の再取得はバックオフ中のためスキップします",
			slog.Time("backoff_until", j.backoffUntil),
		)
		return nil
	}

	started, err := j.refresher.RefreshStats(ctx)
	if err != nil {
		if errors.Is(err, enrichment.ErrCoordinatorClosed) {
			return err
		}
		j.consecutiveErrors++
		if backoff := j.calculateErrorBackoff(j.consecutiveErrors); backoff > 0 {
			j.backoffUntil = now.Add(backoff)
			j.logger.Warn("連続エラーによりバックオフを適用します",
				slog.Int("consecutive_errors", j.consecutiveErrors),
				slog.Duration("backoff_duration", backoff),
			)
		}
		return fmt.Errorf("統計の再取得の開始に失敗しました: %w", err)
	}

	j.consecutiveErrors = 0
	j.backoffUntil = time.Time{}

	j.logger.Info("統計の再取得を開始しました",
		slog.Int("video_count", started),
		slog.Float64("duration_ms", float64(j.now().Sub(now).Milliseconds())),
	)
	return nil
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 5間隔分、5回連続: 10間隔分。
func (j *Job) calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 5:
		return 10 * j.config.Interval
	case consecutiveErrors >= 3:
		return 5 * j.config.Interval
	default:
		return 0
	}
}
