package model

import "time"

// EnrichmentKind はエンリッチメントの種類を表す。
type EnrichmentKind string

const (
	// KindMetadata はタイトル・作者・サムネイルの取得。
	KindMetadata EnrichmentKind = "metadata"
	// KindStats は再生数・いいね数の取得。
	KindStats EnrichmentKind = "stats"
	// KindTranscription は音声の文字起こし。
	KindTranscription EnrichmentKind = "transcription"
)

// EnrichmentKinds は全エンリッチメント種別を固定順で返す。
func EnrichmentKinds() []EnrichmentKind {
	return []EnrichmentKind{KindMetadata, KindStats, KindTranscription}
}

// EnrichmentStatus はエンリッチメントパイプラインの状態を表す。
// ゼロ値（空文字列）は未実行を表す。
type EnrichmentStatus string

const (
	// EnrichmentUnset は未実行。
	EnrichmentUnset EnrichmentStatus = ""
	// EnrichmentLoading は取得中。
	EnrichmentLoading EnrichmentStatus = "loading"
	// EnrichmentSuccess は取得成功。
	EnrichmentSuccess EnrichmentStatus = "success"
	// EnrichmentError は取得失敗。
	EnrichmentError EnrichmentStatus = "error"
)

// エンティティのエラーフィールドに格納するユーザー向けメッセージ。
// 失敗原因ごとに異なる文言を使う。
const (
	MsgInvalidLink             = "Link inválido ou sem ID de vídeo do TikTok."
	MsgMissingLinkToTranscribe = "Cole um link do TikTok para transcrever."
	MsgMissingLink             = "Nenhum link de vídeo informado."
	MsgMetadataUnavailable     = "Não foi possível carregar o título/autor do TikTok (link inválido ou serviço indisponível)."
	MsgStatsFailed             = "Não foi possível carregar as métricas do vídeo."
	MsgTranscriptionFailed     = "Não foi possível transcrever o vídeo."
)

// MetadataEnrichment はメタデータ取得の状態と結果。
type MetadataEnrichment struct {
	Status       EnrichmentStatus
	Title        string
	Author       string
	ThumbnailURL string
	Error        string
}

// StatsEnrichment は統計取得の状態と結果。
// Views/Likes がnilの場合はベースライン値にフォールバックする。
type StatsEnrichment struct {
	Status EnrichmentStatus
	Views  *int64
	Likes  *int64
	Error  string
}

// TranscriptionEnrichment は文字起こしの状態と結果。
type TranscriptionEnrichment struct {
	Status EnrichmentStatus
	Text   string
	Error  string
	// BaselineReplaced はリンク変更によって分析時の文字起こしが別の動画のものになったことを示す。
	// 立っている間は新しい文字起こしが届くまで実効文字起こしを空とする。
	BaselineReplaced bool
}

// VideoMetadata はメタデータプロバイダーが返す結果。
type VideoMetadata struct {
	Title        string
	Author       string
	ThumbnailURL string
}

// StatsResult は統計プロバイダーが返す結果。
// Error が空でない場合は明示的なエラー応答として扱う。
type StatsResult struct {
	Views *int64
	Likes *int64
	Error string
}

// TranscriptionResult は文字起こしプロバイダーが返す結果。
type TranscriptionResult struct {
	Transcription string
	Error         string
}

// VideoPatch はVideoに対する型付きの部分更新を表す。
// nilのフィールドは変更しない。適用はVideo.Applyを通してのみ行う。
type VideoPatch struct {
	// VideoURL を設定すると、3種類のエンリッチメント状態も同じ更新でリセットされ、
	// 分析時の文字起こしは実効値として使われなくなる。
	VideoURL      *string
	ActionStatus  *ActionStatus
	Metadata      *MetadataPatch
	Stats         *StatsPatch
	Transcription *TranscriptionPatch
}

// MetadataPatch はメタデータ状態の更新。StatusとErrorは常に一緒に設定される。
type MetadataPatch struct {
	Status EnrichmentStatus
	Error  string
	Result *VideoMetadata
}

// StatsPatch は統計状態の更新。
// Views/Likes は値がある場合のみ上書きし、nilなら前回の値を維持する。
type StatsPatch struct {
	Status EnrichmentStatus
	Error  string
	Views  *int64
	Likes  *int64
}

// TranscriptionPatch は文字起こし状態の更新。
type TranscriptionPatch struct {
	Status EnrichmentStatus
	Error  string
	Text   *string
}

// Apply はパッチを適用した新しいVideoを返す。レシーバは変更しない。
func (v Video) Apply(p VideoPatch, now time.Time) Video {
	out := v.Clone()

	if p.VideoURL != nil {
		out.VideoURL = *p.VideoURL
		out.Metadata = MetadataEnrichment{}
		out.Stats = StatsEnrichment{}
		out.Transcription = TranscriptionEnrichment{BaselineReplaced: true}
	}

	if p.ActionStatus != nil && out.ActionStatus != ActionStatusSent {
		out.ActionStatus = *p.ActionStatus
	}

	if m := p.Metadata; m != nil {
		out.Metadata.Status = m.Status
		out.Metadata.Error = m.Error
		if m.Result != nil {
			out.Metadata.Title = m.Result.Title
			out.Metadata.Author = m.Result.Author
			out.Metadata.ThumbnailURL = m.Result.ThumbnailURL
		}
	}

	if s := p.Stats; s != nil {
		out.Stats.Status = s.Status
		out.Stats.Error = s.Error
		if s.Views != nil {
			out.Stats.Views = cloneInt64(s.Views)
		}
		if s.Likes != nil {
			out.Stats.Likes = cloneInt64(s.Likes)
		}
	}

	if t := p.Transcription; t != nil {
		out.Transcription.Status = t.Status
		out.Transcription.Error = t.Error
		if t.Text != nil {
			out.Transcription.Text = *t.Text
		}
	}

	out.UpdatedAt = now
	return out
}

// Status は指定種別のエンリッチメント状態を返す。
func (v *Video) Status(kind EnrichmentKind) EnrichmentStatus {
	switch kind {
	case KindMetadata:
		return v.Metadata.Status
	case KindStats:
		return v.Stats.Status
	case KindTranscription:
		return v.Transcription.Status
	default:
		return EnrichmentUnset
	}
}

// NewURLChangePatch はURL変更パッチを生成する。
func NewURLChangePatch(url string) VideoPatch {
	return VideoPatch{VideoURL: &url}
}

// NewLoadingPatch は指定種別を取得中にし、エラーをクリアするパッチを生成する。
func NewLoadingPatch(kind EnrichmentKind) VideoPatch {
	return newStatusPatch(kind, EnrichmentLoading, "")
}

// NewErrorPatch は指定種別をエラー状態にするパッチを生成する。
func NewErrorPatch(kind EnrichmentKind, message string) VideoPatch {
	return newStatusPatch(kind, EnrichmentError, message)
}

func newStatusPatch(kind EnrichmentKind, status EnrichmentStatus, message string) VideoPatch {
	switch kind {
	case KindMetadata:
		return VideoPatch{Metadata: &MetadataPatch{Status: status, Error: message}}
	case KindStats:
		return VideoPatch{Stats: &StatsPatch{Status: status, Error: message}}
	case KindTranscription:
		return VideoPatch{Transcription: &TranscriptionPatch{Status: status, Error: message}}
	default:
		return VideoPatch{}
	}
}
