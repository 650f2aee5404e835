package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/JoaoVitorSD/aia-action/internal/analytics"
	"github.com/JoaoVitorSD/aia-action/internal/config"
	"github.com/JoaoVitorSD/aia-action/internal/enrichment"
	"github.com/JoaoVitorSD/aia-action/internal/handler"
	"github.com/JoaoVitorSD/aia-action/internal/logger"
	"github.com/JoaoVitorSD/aia-action/internal/metrics"
	"github.com/JoaoVitorSD/aia-action/internal/middleware"
	"github.com/JoaoVitorSD/aia-action/internal/provider"
	"github.com/JoaoVitorSD/aia-action/internal/repository"
	"github.com/JoaoVitorSD/aia-action/internal/security"
	"github.com/JoaoVitorSD/aia-action/internal/video"
	"github.com/JoaoVitorSD/aia-action/internal/worker/refresh"
)

const shutdownTimeout = 30 * time.Second

// reportOut はreportコマンドの出力先。ログと混ざらないようにログ出力先とは分ける。
var reportOut io.Writer = os.Stdout

// Init はアプリケーションの初期化を行う。
// 環境変数（および.env）からConfigを読み込み、設定されたレベルでJSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(w, slog.LevelInfo)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandReport:
		return runReport(reportOut, cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// components はserve/reportの両モードで共有する依存関係。
type components struct {
	registry    *prometheus.Registry
	coordinator *enrichment.Coordinator
	service     *video.Service
}

// build はConfigから依存関係を組み立てる。
func build(cfg *config.Config, log *slog.Logger) (*components, error) {
	videos, err := repository.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}
	repo, err := repository.NewMemoryVideoRepo(videos)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	guard := security.NewSSRFGuard(metadataHosts(cfg.OEmbedEndpoint)...)
	metadataClient := provider.NewMetadataClient(
		guard.NewSafeClient(cfg.MetadataTimeout),
		guard,
		security.NewTextSanitizer(),
		collector,
		log,
		provider.MetadataClientConfig{
			Endpoint:    cfg.OEmbedEndpoint,
			MaxBodySize: cfg.MetadataMaxSize,
		},
	)

	coordinator := enrichment.NewCoordinator(repo, enrichment.Providers{
		Metadata:      metadataClient,
		Stats:         provider.NewSimulatedStats(cfg.StatsLatency),
		Transcription: provider.NewSimulatedTranscriber(cfg.TranscriptionLatency),
	}, collector, log, cfg.EnrichMaxConcurrent)

	return &components{
		registry:    reg,
		coordinator: coordinator,
		service:     video.NewService(repo, coordinator, collector, log),
	}, nil
}

// metadataHosts はメタデータ取得で接続を許可するホスト一覧を返す。
// TikTokのページに加えて、oEmbedエンドポイントのホストも許可する。
func metadataHosts(endpoint string) []string {
	hosts := []string{"tiktok.com"}
	if u, err := url.Parse(endpoint); err == nil && u.Hostname() != "" {
		hosts = append(hosts, u.Hostname())
	}
	return hosts
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとサーバーとエンリッチメント処理を停止する。
func runServe(ctx context.Context, cfg *config.Config) error {
	log := slog.Default()

	c, err := build(cfg, log)
	if err != nil {
		return err
	}

	rl := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitEnrich),
		log,
	)
	defer rl.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rl,
		VideoService:      c.service,
		AnalyticsService:  c.service,
		MetricsHandler:    metrics.Handler(c.registry),
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := c.coordinator.Bootstrap(ctx); err != nil {
		c.coordinator.Close()
		return fmt.Errorf("failed to bootstrap enrichment: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	refreshJob := refresh.NewJob(c.coordinator, log, refresh.Config{Interval: cfg.StatsRefreshInterval})
	if refreshJob.Enabled() {
		g.Go(func() error {
			refreshJob.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		c.coordinator.Close()
		if err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("API server stopped gracefully")
	return nil
}

// reportOutput はreportコマンドの出力形式。
type reportOutput struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Summary     handler.SummaryResponse      `json:"summary"`
	Descriptors []handler.DescriptorResponse `json:"descriptors"`
}

// runReport はシードデータの集計結果をJSONで出力する。
// エンリッチメントは実行せず、読み込んだ時点の値で集計する。
func runReport(w io.Writer, cfg *config.Config) error {
	c, err := build(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer c.coordinator.Close()

	ctx := context.Background()
	summary, err := c.service.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize videos: %w", err)
	}
	descriptors, err := c.service.Descriptors(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate descriptors: %w", err)
	}

	return writeReport(w, summary, descriptors, time.Now().UTC())
}

func writeReport(w io.Writer, summary analytics.Summary, descriptors []analytics.DescriptorStat, now time.Time) error {
	out := reportOutput{
		GeneratedAt: now,
		Summary:     handler.ToSummaryResponse(summary),
		Descriptors: handler.ToDescriptorResponses(descriptors),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
