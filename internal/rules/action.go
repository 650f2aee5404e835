// Package rules は分析結果から推奨アクションと優先度を判定する。
package rules

import (
	"strings"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// アクション名
const (
	ActionProductTicket = "Criar Ticket: Produto (Jira)"
	ActionCXLead        = "Enviar Lead: CX (Zendesk)"
	ActionMarketing     = "Alerta: Marketing (Slack)"
	ActionManualReview  = "Analisar Manualmente"
)

// Decision は判定結果。
type Decision struct {
	Action   string
	Priority model.Priority
}

// signals は判定に使う分析フィールドを小文字化したもの。
type signals struct {
	emotion   string
	topic     string
	sentiment string
}

// rule は条件と判定結果の組。
type rule struct {
	name    string
	matches func(s signals) bool
	outcome Decision
}

// ruleTable は上から順に評価し、最初に条件を満たした規則を採用する。
var ruleTable = []rule{
	{
		name: "anger_usability",
		matches: func(s signals) bool {
			return strings.Contains(s.emotion, "raiva") && strings.Contains(s.topic, "usabilidade")
		},
		outcome: Decision{Action: ActionProductTicket, Priority: model.PriorityCritical},
	},
	{
		name: "sadness_negative",
		matches: func(s signals) bool {
			return strings.Contains(s.emotion, "tristeza") && strings.Contains(s.sentiment, "negativo")
		},
		outcome: Decision{Action: ActionCXLead, Priority: model.PriorityHigh},
	},
	{
		name: "joy_feature",
		matches: func(s signals) bool {
			return strings.Contains(s.emotion, "alegria") && strings.Contains(s.topic, "feature")
		},
		outcome: Decision{Action: ActionMarketing, Priority: model.PriorityMedium},
	},
}

// defaultDecision はどの規則にも一致しない場合の判定結果。
var defaultDecision = Decision{Action: ActionManualReview, Priority: model.PriorityLow}

// Classify は動画の感情・トピック・感情分析から推奨アクションを判定する。
// エンリッチメント結果は参照しない。
func Classify(v *model.Video) Decision {
	s := signals{
		emotion:   strings.ToLower(v.PredominantFacialEmotion),
		topic:     strings.ToLower(v.AnalyzedTopic),
		sentiment: strings.ToLower(v.OverallAISentiment),
	}
	for _, r := range ruleTable {
		if r.matches(s) {
			return r.outcome
		}
	}
	return defaultDecision
}
