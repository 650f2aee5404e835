package repository

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

//go:embed seed/videos.yaml
var defaultSeed []byte

// seedFile はシードYAMLのトップレベル構造。
type seedFile struct {
	Videos []seedVideo `yaml:"videos"`
}

// seedVideo はシードYAML上の動画1件。
type seedVideo struct {
	ID                  string `yaml:"id"`
	Source              string `yaml:"source"`
	Views               int64  `yaml:"views"`
	Likes               int64  `yaml:"likes"`
	Transcript          string `yaml:"transcript"`
	FacialEmotion       string `yaml:"facial_emotion"`
	Sentiment           string `yaml:"sentiment"`
	Topic               string `yaml:"topic"`
	SuggestedAction     string `yaml:"suggested_action"`
	ActionPriority      string `yaml:"action_priority"`
	ActionJustification string `yaml:"action_justification"`
	ActionStatus        string `yaml:"action_status"`
	VideoURL            string `yaml:"video_url"`
}

// LoadSeed はシードファイルから動画一覧を読み込む。
// path が空の場合はバイナリに埋め込まれた既定のシードを使う。
func LoadSeed(path string) ([]model.Video, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("シードファイルの読み込みに失敗しました: %w", err)
		}
		data = raw
	}
	return ParseSeed(data)
}

// ParseSeed はYAMLを動画一覧に変換する。
func ParseSeed(data []byte) ([]model.Video, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("シードYAMLのパースに失敗しました: %w", err)
	}

	videos := make([]model.Video, 0, len(f.Videos))
	for i, sv := range f.Videos {
		v, err := sv.toModel()
		if err != nil {
			return nil, fmt.Errorf("シードの%d件目が不正です: %w", i+1, err)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (sv seedVideo) toModel() (model.Video, error) {
	source := model.Source(sv.Source)
	if source != model.SourceTikTok && source != model.SourceYouTube {
		return model.Video{}, fmt.Errorf("ソースが不正です: %q", sv.Source)
	}

	priority := model.Priority(sv.ActionPriority)
	switch priority {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		return model.Video{}, fmt.Errorf("優先度が不正です: %q", sv.ActionPriority)
	}

	status := model.ActionStatus(sv.ActionStatus)
	switch status {
	case "":
		status = model.ActionStatusPending
	case model.ActionStatusPending, model.ActionStatusSent:
	default:
		return model.Video{}, fmt.Errorf("アクション状態が不正です: %q", sv.ActionStatus)
	}

	return model.Video{
		ID:                       sv.ID,
		Source:                   source,
		ViewCountBaseline:        sv.Views,
		LikeCountBaseline:        sv.Likes,
		VoiceTranscriptBaseline:  sv.Transcript,
		PredominantFacialEmotion: sv.FacialEmotion,
		OverallAISentiment:       sv.Sentiment,
		AnalyzedTopic:            sv.Topic,
		SuggestedAction:          sv.SuggestedAction,
		ActionPriority:           priority,
		ActionJustification:      sv.ActionJustification,
		ActionStatus:             status,
		VideoURL:                 sv.VideoURL,
	}, nil
}
