// Package videolink は動画プラットフォームのURLから動画IDを解決する。
// ネットワークアクセスは行わない。
package videolink

import (
	"net/url"
	"regexp"
	"strings"
)

// EmbedBase はTikTok埋め込みプレイヤーのベースURL。
const EmbedBase = "https://www.tiktok.com/embed/v2"

// videoIDPattern は /video/ の直後に続く数字列にマッチする。
var videoIDPattern = regexp.MustCompile(`/video/(\d+)`)

// Ref は解決済みの動画参照を表す。
type Ref struct {
	ID string
}

// Resolve はURLから動画IDを取り出す。
// 解決できない場合は false を返す。入力の形式に関わらずパニックしない。
func Resolve(raw string) (Ref, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Ref{}, false
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Ref{}, false
	}

	if m := videoIDPattern.FindStringSubmatch(u.Path); m != nil {
		return Ref{ID: m[1]}, true
	}

	// 数字以外のIDは "video" セグメントの次のセグメントを採用する
	segments := nonEmptySegments(u.Path)
	for i, seg := range segments {
		if seg != "video" {
			continue
		}
		if i+1 < len(segments) {
			return Ref{ID: segments[i+1]}, true
		}
		break
	}

	return Ref{}, false
}

// EmbedURL は埋め込みプレイヤーのURLを返す。解決できない場合は false を返す。
func EmbedURL(raw string) (string, bool) {
	ref, ok := Resolve(raw)
	if !ok {
		return "", false
	}
	return EmbedBase + "/" + ref.ID, true
}

func nonEmptySegments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
