package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// emotionPattern は "Alegria (82%)" 形式の感情表記にマッチする。
var emotionPattern = regexp.MustCompile(`(.+?)\s*\((\d+)%\)`)

// Emotion は表情分析の感情名と確信度。
type Emotion struct {
	Name       string
	Confidence int
}

// ParseEmotion は感情表記を感情名と確信度に分解する。
// 確信度の表記がない場合は入力全体を感情名とし、確信度は0とする。
func ParseEmotion(raw string) Emotion {
	m := emotionPattern.FindStringSubmatch(raw)
	if m == nil {
		return Emotion{Name: raw}
	}
	confidence, err := strconv.Atoi(m[2])
	if err != nil {
		confidence = 0
	}
	return Emotion{Name: strings.TrimSpace(m[1]), Confidence: confidence}
}

// EmotionTone は感情名を表示用のトーンに分類する。
func EmotionTone(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "raiva"), strings.Contains(lower, "frustração"):
		return "anger"
	case strings.Contains(lower, "tristeza"):
		return "sadness"
	case strings.Contains(lower, "alegria"), strings.Contains(lower, "animado"):
		return "joy"
	case strings.Contains(lower, "confusão"):
		return "confusion"
	default:
		return "neutral"
	}
}

// Bucket はラベルごとの件数。
type Bucket struct {
	Label string
	Count int
}

// Summary はダッシュボード用の集計結果。
type Summary struct {
	TotalVideos  int
	TotalViews   int64
	TotalLikes   int64
	AverageViews int64
	BySentiment  []Bucket
	BySource     []Bucket
	ByPriority   []Bucket
	ByEmotion    []Bucket
}

// Summarize は動画一覧を集計する。
// 再生数・いいね数はエンリッチメント結果を優先した実効値を使う。
// 各分布は最初に現れた順に並べる。
func Summarize(videos []*model.Video) Summary {
	s := Summary{TotalVideos: len(videos)}

	sentiment := newCounter()
	source := newCounter()
	priority := newCounter()
	emotion := newCounter()

	for _, v := range videos {
		s.TotalViews += v.EffectiveViews()
		s.TotalLikes += v.EffectiveLikes()
		sentiment.add(v.OverallAISentiment)
		source.add(string(v.Source))
		priority.add(string(v.ActionPriority))
		emotion.add(firstWord(v.PredominantFacialEmotion))
	}

	if len(videos) > 0 {
		s.AverageViews = int64(math.Round(float64(s.TotalViews) / float64(len(videos))))
	}

	s.BySentiment = sentiment.buckets()
	s.BySource = source.buckets()
	s.ByPriority = priority.buckets()
	s.ByEmotion = emotion.buckets()
	return s
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// counter は出現順を保持するカウンタ。
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) buckets() []Bucket {
	out := make([]Bucket, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, Bucket{Label: label, Count: c.counts[label]})
	}
	return out
}
