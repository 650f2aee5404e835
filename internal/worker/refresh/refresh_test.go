package refresh

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JoaoVitorSD/aia-action/internal/enrichment"
)

// --- モック定義 ---

type mockRefresher struct {
	calls     atomic.Int32
	refreshFn func(ctx context.Context) (int, error)
}

func (m *mockRefresher) RefreshStats(ctx context.Context) (int, error) {
	m.calls.Add(1)
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return 0, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

// --- テスト ---

func TestJob_Enabled(t *testing.T) {
	var buf bytes.Buffer
	if NewJob(&mockRefresher{}, newTestLogger(&buf), Config{}).Enabled() {
		t.Error("Interval=0 のジョブは無効であるべき")
	}
	if !NewJob(&mockRefresher{}, newTestLogger(&buf), Config{Interval: time.Minute}).Enabled() {
		t.Error("Interval>0 のジョブは有効であるべき")
	}
}

func TestJob_RunOnce_Success(t *testing.T) {
	var buf bytes.Buffer
	refresher := &mockRefresher{refreshFn: func(context.Context) (int, error) { return 3, nil }}
	job := NewJob(refresher, newTestLogger(&buf), Config{Interval: time.Minute})

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce がエラーを返した: %v", err)
	}
	if refresher.calls.Load() != 1 {
		t.Errorf("RefreshStats 呼び出し回数 = %d, want 1", refresher.calls.Load())
	}
	if !strings.Contains(buf.String(), `"video_count":3`) {
		t.Errorf("ログに video_count が含まれていない: %s", buf.String())
	}
}

func TestJob_RunOnce_BackoffAfterConsecutiveErrors(t *testing.T) {
	var buf bytes.Buffer
	refresher := &mockRefresher{refreshFn: func(context.Context) (int, error) {
		return 0, errors.New("list failed")
	}}
	job := NewJob(refresher, newTestLogger(&buf), Config{Interval: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := job.RunOnce(context.Background()); err == nil {
			t.Fatalf("%d回目: エラーが返されるべき", i+1)
		}
	}
	if want := now.Add(5 * time.Minute); !job.backoffUntil.Equal(want) {
		t.Errorf("backoffUntil = %v, want %v", job.backoffUntil, want)
	}

	// バックオフ中は呼び出さない
	if err := job.RunOnce(context.Background()); err != nil {
		t.Errorf("バックオフ中はエラーを返さないべき: %v", err)
	}
	if refresher.calls.Load() != 3 {
		t.Errorf("RefreshStats 呼び出し回数 = %d, want 3", refresher.calls.Load())
	}

	// バックオフ明けに成功するとリセットされる
	now = now.Add(6 * time.Minute)
	refresher.refreshFn = func(context.Context) (int, error) { return 1, nil }
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce がエラーを返した: %v", err)
	}
	if job.consecutiveErrors != 0 || !job.backoffUntil.IsZero() {
		t.Errorf("成功後にリセットされていない: errors=%d backoffUntil=%v", job.consecutiveErrors, job.backoffUntil)
	}
}

func TestJob_CalculateErrorBackoff(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockRefresher{}, newTestLogger(&buf), Config{Interval: time.Minute})

	tests := []struct {
		errors int
		want   time.Duration
	}{
		{1, 0},
		{2, 0},
		{3, 5 * time.Minute},
		{4, 5 * time.Minute},
		{5, 10 * time.Minute},
		{12, 10 * time.Minute},
	}
	for _, tt := range tests {
		if got := job.calculateErrorBackoff(tt.errors); got != tt.want {
			t.Errorf("calculateErrorBackoff(%d) = %v, want %v", tt.errors, got, tt.want)
		}
	}
}

func TestJob_Start_RunsOnScheduleAndStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	refresher := &mockRefresher{}
	job := NewJob(refresher, newTestLogger(&buf), Config{Interval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(4 * time.Second)
	for refresher.calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if refresher.calls.Load() < 1 {
		t.Errorf("スケジュールで実行されていない: calls=%d", refresher.calls.Load())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Start がキャンセル後に停止しない")
	}
}

func TestJob_Start_StopsWhenCoordinatorClosed(t *testing.T) {
	var buf bytes.Buffer
	refresher := &mockRefresher{refreshFn: func(context.Context) (int, error) {
		return 0, enrichment.ErrCoordinatorClosed
	}}
	job := NewJob(refresher, newTestLogger(&buf), Config{Interval: time.Second})

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(4 * time.Second):
		t.Fatal("Coordinator停止後も Start が終了しない")
	}
	if refresher.calls.Load() != 1 {
		t.Errorf("RefreshStats 呼び出し回数 = %d, want 1", refresher.calls.Load())
	}
}

func TestJob_Start_DisabledReturnsImmediately(t *testing.T) {
	var buf bytes.Buffer
	refresher := &mockRefresher{}
	job := NewJob(refresher, newTestLogger(&buf), Config{})

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("無効なジョブの Start が戻らない")
	}
	if refresher.calls.Load() != 0 {
		t.Errorf("無効なジョブで RefreshStats が呼ばれた: %d", refresher.calls.Load())
	}
}
