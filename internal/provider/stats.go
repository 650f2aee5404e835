package provider

import (
	"context"
	"math"
	"time"
	"unicode/utf16"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// SimulatedStats はURLから決定的に再生数・いいね数を生成する統計プロバイダー。
// 同じURLには常に同じ値を返す。
type SimulatedStats struct {
	latency time.Duration
}

// NewSimulatedStats はSimulatedStatsを生成する。latency は応答までの待ち時間。
func NewSimulatedStats(latency time.Duration) *SimulatedStats {
	return &SimulatedStats{latency: latency}
}

// FetchStats はURLに対応する統計値を返す。
// 再生数は5,000〜99,999、いいね数は再生数の5〜19.5%（最低200）になる。
func (s *SimulatedStats) FetchStats(ctx context.Context, videoURL string) (model.StatsResult, error) {
	if videoURL == "" {
		return model.StatsResult{Error: model.MsgMissingLink}, nil
	}

	if err := sleepCtx(ctx, s.latency); err != nil {
		return model.StatsResult{}, err
	}

	seed := seedFromString(videoURL)
	views := 5000 + seed%95000
	ratio := 0.05 + float64(seed%30)/200
	likes := int64(math.Max(200, math.Round(float64(views)*ratio)))

	return model.StatsResult{Views: &views, Likes: &likes}, nil
}

// seedFromString はUTF-16コード単位に対する32bitローリングハッシュの絶対値を返す。
func seedFromString(s string) int64 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	seed := int64(hash)
	if seed < 0 {
		seed = -seed
	}
	return seed
}

// sleepCtx は指定時間待機する。コンテキストがキャンセルされた場合はそのエラーを返す。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
