package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Seed
	SeedFile string

	// Logging
	LogLevel string

	// CORS
	CORSAllowedOrigin string

	// Enrichment
	EnrichMaxConcurrent  int
	MetadataTimeout      time.Duration
	MetadataMaxSize      int64
	OEmbedEndpoint       string
	StatsLatency         time.Duration
	TranscriptionLatency time.Duration
	// StatsRefreshInterval が0の場合、統計の定期再取得は行わない
	StatsRefreshInterval time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitEnrich  int
}

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// LoadDotEnv は.envファイルから環境変数を読み込む。
// pathが空の場合はカレントディレクトリの.envを使う。ファイルが存在しない場合は何もしない。
// 既に設定されている環境変数は上書きしない。
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load は.envファイル（存在する場合）と環境変数からConfigを読み込む。
// 値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	if err := LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:           getEnvString("SERVER_PORT", "8080"),
		SeedFile:             getEnvString("SEED_FILE", ""),
		LogLevel:             strings.ToUpper(getEnvString("LOG_LEVEL", "INFO")),
		CORSAllowedOrigin:    getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		EnrichMaxConcurrent:  getEnvInt("ENRICH_MAX_CONCURRENT", 8),
		MetadataTimeout:      getEnvDuration("METADATA_TIMEOUT", 10*time.Second),
		MetadataMaxSize:      getEnvInt64("METADATA_MAX_SIZE", 1048576),
		OEmbedEndpoint:       getEnvString("OEMBED_ENDPOINT", "https://www.tiktok.com/oembed"),
		StatsLatency:         getEnvDuration("STATS_LATENCY", 300*time.Millisecond),
		TranscriptionLatency: getEnvDuration("TRANSCRIPTION_LATENCY", 400*time.Millisecond),
		StatsRefreshInterval: getEnvDuration("STATS_REFRESH_INTERVAL", 0),
		RateLimitGeneral:     getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitEnrich:      getEnvInt("RATE_LIMIT_ENRICH", 30),
	}

	var invalid []string
	if !validLogLevels[cfg.LogLevel] {
		invalid = append(invalid, "LOG_LEVEL")
	}
	if cfg.EnrichMaxConcurrent <= 0 {
		invalid = append(invalid, "ENRICH_MAX_CONCURRENT")
	}
	if cfg.RateLimitGeneral <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERAL")
	}
	if cfg.RateLimitEnrich <= 0 {
		invalid = append(invalid, "RATE_LIMIT_ENRICH")
	}
	if cfg.StatsRefreshInterval < 0 {
		invalid = append(invalid, "STATS_REFRESH_INTERVAL")
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
