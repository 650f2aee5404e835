// Package model はドメインモデルを定義する。
package model

import "time"

// Source は動画の取得元プラットフォームを表す。
type Source string

const (
	// SourceTikTok はTikTok由来の動画。
	SourceTikTok Source = "TikTok"
	// SourceYouTube はYouTube由来の動画。
	SourceYouTube Source = "YouTube"
)

// Priority はアクションの優先度を表す。
type Priority string

const (
	// PriorityCritical は最優先で対応すべきアクション。
	PriorityCritical Priority = "Crítica"
	// PriorityHigh は優先度の高いアクション。
	PriorityHigh Priority = "Alta"
	// PriorityMedium は通常優先度のアクション。
	PriorityMedium Priority = "Média"
	// PriorityLow は優先度の低いアクション。
	PriorityLow Priority = "Baixa"
)

// ActionStatus はアクションの送信状態を表す。
// Pendente → Ação Enviada の一方向にのみ遷移する。
type ActionStatus string

const (
	// ActionStatusPending は未送信。
	ActionStatusPending ActionStatus = "Pendente"
	// ActionStatusSent は送信済み。
	ActionStatusSent ActionStatus = "Ação Enviada"
)

// Video はレビュー対象の動画と、その分析結果・エンリッチメント状態を表す。
// 分析フィールドは上流で計算済みのものとして扱い、読み込み後は変更しない。
type Video struct {
	ID     string
	Source Source

	// 上流の分析結果（不変）
	ViewCountBaseline        int64
	LikeCountBaseline        int64
	VoiceTranscriptBaseline  string
	PredominantFacialEmotion string // 例: "Alegria (82%)"
	OverallAISentiment       string
	AnalyzedTopic            string
	SuggestedAction          string
	ActionPriority           Priority
	ActionJustification      string

	// オペレーター操作・エンリッチメントで変化するフィールド
	ActionStatus  ActionStatus
	VideoURL      string
	Metadata      MetadataEnrichment
	Stats         StatsEnrichment
	Transcription TranscriptionEnrichment

	UpdatedAt time.Time
}

// EffectiveViews は表示用の再生数を返す。
// エンリッチメントで取得した値があればそれを、なければベースライン値を返す。
func (v *Video) EffectiveViews() int64 {
	if v.Stats.Views != nil {
		return *v.Stats.Views
	}
	return v.ViewCountBaseline
}

// EffectiveLikes は表示用のいいね数を返す。
func (v *Video) EffectiveLikes() int64 {
	if v.Stats.Likes != nil {
		return *v.Stats.Likes
	}
	return v.LikeCountBaseline
}

// EffectiveTranscript は現在の文字起こしを返す。
// 文字起こし結果があればそれを返す。リンク変更後は結果が届くまで空文字列、
// それ以外は分析時のベースラインを返す。
func (v *Video) EffectiveTranscript() string {
	switch {
	case v.Transcription.Text != "":
		return v.Transcription.Text
	case v.Transcription.BaselineReplaced:
		return ""
	default:
		return v.VoiceTranscriptBaseline
	}
}

// Clone はポインタフィールドを含めた値のコピーを返す。
// ストア外に渡した値が内部状態と共有されないようにする。
func (v Video) Clone() Video {
	out := v
	out.Stats.Views = cloneInt64(v.Stats.Views)
	out.Stats.Likes = cloneInt64(v.Stats.Likes)
	return out
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}

// VideoFilter は動画一覧の絞り込み条件を表す。
type VideoFilter struct {
	// Source が空の場合は全ソースを対象とする。
	Source Source
	// Query は文字起こしに対する部分一致（大文字小文字を区別しない）。
	Query string
}
