package provider

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// transcriptPreviewLen は合成テキストに含めるURLの最大文字数。
const transcriptPreviewLen = 60

// SimulatedTranscriber は文字起こしのシミュレーション。
// 元テキストがあればそれを返し、なければURLから合成したテキストを返す。
type SimulatedTranscriber struct {
	latency time.Duration
}

// NewSimulatedTranscriber はSimulatedTranscriberを生成する。
func NewSimulatedTranscriber(latency time.Duration) *SimulatedTranscriber {
	return &SimulatedTranscriber{latency: latency}
}

// Transcribe は文字起こし結果を返す。URLが空の場合はエラー応答を返す。
func (s *SimulatedTranscriber) Transcribe(ctx context.Context, videoURL, fallback string) (model.TranscriptionResult, error) {
	if videoURL == "" {
		return model.TranscriptionResult{Error: model.MsgMissingLink}, nil
	}

	text := fallback
	if text == "" {
		text = "Transcrição simulada a partir do link: " + preview(videoURL, transcriptPreviewLen)
	}

	if err := sleepCtx(ctx, s.latency); err != nil {
		return model.TranscriptionResult{}, err
	}
	return model.TranscriptionResult{Transcription: text}, nil
}

// preview は先頭n文字を返し、切り詰めた場合は "..." を付ける。
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
