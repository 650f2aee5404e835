// Package provider はエンリッチメント処理が呼び出すプロバイダーの実装を提供する。
// メタデータはTikTokのoEmbedエンドポイントから取得し、統計と文字起こしは決定的なシミュレーションで生成する。
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

const (
	// DefaultOEmbedEndpoint はTikTok oEmbedのエンドポイント。
	DefaultOEmbedEndpoint = "https://www.tiktok.com/oembed"
	// defaultMaxBodySize はレスポンスボディの最大サイズ。
	defaultMaxBodySize = 1 << 20
	userAgent          = "aia-action/1.0 (+metadata)"
)

// URLValidator は外部呼び出し前のURL検証インターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// TextSanitizer は外部由来テキストのサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// StatusRecorder はHTTPステータスの記録インターフェース。
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// oEmbedResponse はoEmbedレスポンスのうち利用するフィールド。
type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// MetadataClient はoEmbedを使って動画のタイトル・作者・サムネイルを取得する。
// oEmbedにタイトルがない場合は動画ページのOpen Graphメタ情報で補完する。
type MetadataClient struct {
	httpClient  *http.Client
	validator   URLValidator
	sanitizer   TextSanitizer
	recorder    StatusRecorder
	logger      *slog.Logger
	endpoint    string
	maxBodySize int64
}

// MetadataClientConfig はMetadataClientの設定。
type MetadataClientConfig struct {
	// Endpoint が空の場合は DefaultOEmbedEndpoint を使う。
	Endpoint string
	// MaxBodySize が0以下の場合は1MiBを使う。
	MaxBodySize int64
}

// NewMetadataClient はMetadataClientの新しいインスタンスを生成する。
func NewMetadataClient(
	httpClient *http.Client,
	validator URLValidator,
	sanitizer TextSanitizer,
	recorder StatusRecorder,
	logger *slog.Logger,
	cfg MetadataClientConfig,
) *MetadataClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOEmbedEndpoint
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	return &MetadataClient{
		httpClient:  httpClient,
		validator:   validator,
		sanitizer:   sanitizer,
		recorder:    recorder,
		logger:      logger,
		endpoint:    cfg.Endpoint,
		maxBodySize: cfg.MaxBodySize,
	}
}

// FetchMetadata は動画URLのメタデータを取得する。
// エンドポイントが成功以外のステータスを返した場合や、有用な情報が得られない場合はnilを返す。
func (c *MetadataClient) FetchMetadata(ctx context.Context, videoURL string) (*model.VideoMetadata, error) {
	if videoURL == "" {
		return nil, nil
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	q.Set("url", videoURL)
	reqURL.RawQuery = q.Encode()

	body, ok, err := c.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var resp oEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("oEmbedレスポンスのパースに失敗しました",
			slog.String("video_url", videoURL),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	meta := &model.VideoMetadata{
		Title:        c.sanitizer.Sanitize(resp.Title),
		Author:       c.sanitizer.Sanitize(resp.AuthorName),
		ThumbnailURL: resp.ThumbnailURL,
	}

	if meta.Title == "" {
		c.fillFromPage(ctx, videoURL, meta)
	}

	if *meta == (model.VideoMetadata{}) {
		return nil, nil
	}
	return meta, nil
}

// fillFromPage は動画ページのOpen Graphメタ情報で空のフィールドを補完する。
// ページ取得の失敗はoEmbedの結果をそのまま使うためログ出力に留める。
func (c *MetadataClient) fillFromPage(ctx context.Context, videoURL string, meta *model.VideoMetadata) {
	body, ok, err := c.get(ctx, videoURL)
	if err != nil || !ok {
		c.logger.Debug("動画ページからのメタデータ補完をスキップしました",
			slog.String("video_url", videoURL),
		)
		return
	}

	og := parseOpenGraph(body)
	if meta.Title == "" {
		meta.Title = c.sanitizer.Sanitize(og.Title)
	}
	if meta.Author == "" {
		meta.Author = c.sanitizer.Sanitize(og.Creator)
	}
	if meta.ThumbnailURL == "" {
		meta.ThumbnailURL = og.Image
	}
}

// get はURLを検証してからGETし、200の場合のみボディを返す。
func (c *MetadataClient) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if err := c.validator.ValidateURL(rawURL); err != nil {
		return nil, false, fmt.Errorf("URL検証に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	c.recorder.RecordHTTPStatus(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("メタデータ取得先がエラーステータスを返しました",
			slog.String("url", rawURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, false, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, true, nil
}
