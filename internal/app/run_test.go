package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JoaoVitorSD/aia-action/internal/repository"
)

// setTestEnv は.envファイルやホスト環境の値が混入しないようにする。
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{
		"SERVER_PORT", "SEED_FILE", "LOG_LEVEL", "CORS_ALLOWED_ORIGIN",
		"ENRICH_MAX_CONCURRENT", "METADATA_TIMEOUT", "METADATA_MAX_SIZE", "OEMBED_ENDPOINT",
		"STATS_LATENCY", "TRANSCRIPTION_LATENCY", "STATS_REFRESH_INTERVAL", "RATE_LIMIT_GENERAL", "RATE_LIMIT_ENRICH",
	} {
		t.Setenv(key, "")
	}
}

// writeSeedWithoutLinks はリンクを持たない動画だけのシードを作成する。
// 起動時のエンリッチメントで外部に接続しないようにするため。
func writeSeedWithoutLinks(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `videos:
  - id: run-1
    source: TikTok
    views: 100
    likes: 10
    transcript: "Bolo muito gostoso e fofinho."
    facial_emotion: "Alegria (80%)"
    sentiment: "Positivo"
    topic: "Elogio ao Produto"
    suggested_action: "Alerta: Marketing (Slack)"
    action_priority: "Média"
    action_justification: "-"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("シードファイルの作成に失敗: %v", err)
	}
	return path
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ポートの確保に失敗: %v", err)
	}
	defer ln.Close()
	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("アドレスの解析に失敗: %v", err)
	}
	return port
}

func TestRun_ReportCommand_WritesSummary(t *testing.T) {
	setTestEnv(t)

	var out bytes.Buffer
	orig := reportOut
	reportOut = &out
	t.Cleanup(func() { reportOut = orig })

	var logs bytes.Buffer
	if err := Run(&logs, []string{"report"}); err != nil {
		t.Fatalf("Run(report) がエラーを返した: %v", err)
	}

	videos, err := repository.LoadSeed("")
	if err != nil {
		t.Fatalf("シードの読み込みに失敗: %v", err)
	}

	var got struct {
		Summary struct {
			TotalVideos int `json:"total_videos"`
		} `json:"summary"`
		Descriptors []json.RawMessage `json:"descriptors"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("レポートがJSONではない: %v\nraw: %s", err, out.String())
	}
	if got.Summary.TotalVideos != len(videos) {
		t.Errorf("total_videos = %d, want %d", got.Summary.TotalVideos, len(videos))
	}
	if len(got.Descriptors) == 0 {
		t.Error("descriptors が空")
	}
	if bytes.Contains(out.Bytes(), []byte(`"msg"`)) {
		t.Error("レポート出力にログが混入している")
	}
}

func TestRun_WithInvalidEnv_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("RATE_LIMIT_GENERAL", "0")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"serve"}); err == nil {
		t.Fatal("Run with invalid env should return error")
	}
}

func TestRun_WithMissingSeed_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SEED_FILE", filepath.Join(t.TempDir(), "none.yaml"))

	var buf bytes.Buffer
	if err := Run(&buf, []string{"report"}); err == nil {
		t.Fatal("Run with missing seed file should return error")
	}
}

func TestRunServe_StopsOnContextCancel(t *testing.T) {
	setTestEnv(t)
	port := freePort(t)
	t.Setenv("SERVER_PORT", port)
	t.Setenv("SEED_FILE", writeSeedWithoutLinks(t))

	var logs bytes.Buffer
	cfg, err := Init(&logs)
	if err != nil {
		t.Fatalf("Init がエラーを返した: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := runHealthcheck(port); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("サーバーが起動しない: %v", <-done)
		}
		time.Sleep(20 * time.Millisecond)
	}

	resp, err := http.Get("http://localhost:" + port + "/api/videos")
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/videos status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe がエラーを返した: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServe が停止しない")
	}
}

func TestRunHealthcheck(t *testing.T) {
	t.Run("200なら成功", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("path = %q, want /health", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		if err := runHealthcheck(serverPort(t, server)); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("200以外はエラー", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		if err := runHealthcheck(serverPort(t, server)); err == nil {
			t.Error("expected error for 503, got nil")
		}
	})
}

func serverPort(t *testing.T, server *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("URLの解析に失敗: %v", err)
	}
	return u.Port()
}
