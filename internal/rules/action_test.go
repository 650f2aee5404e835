package rules

import (
	"testing"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		emotion   string
		topic     string
		sentiment string
		want      Decision
	}{
		{
			name:      "raiva + usabilidade",
			emotion:   "Raiva (90%)",
			topic:     "Problema de Usabilidade",
			sentiment: "Negativo",
			want:      Decision{Action: "Criar Ticket: Produto (Jira)", Priority: model.PriorityCritical},
		},
		{
			name:      "tristeza + negativo",
			emotion:   "Tristeza (70%)",
			topic:     "Entrega",
			sentiment: "Muito Negativo",
			want:      Decision{Action: "Enviar Lead: CX (Zendesk)", Priority: model.PriorityHigh},
		},
		{
			name:      "alegria + feature",
			emotion:   "ALEGRIA (95%)",
			topic:     "Nova FEATURE de agendamento",
			sentiment: "Positivo",
			want:      Decision{Action: "Alerta: Marketing (Slack)", Priority: model.PriorityMedium},
		},
		{
			name:      "一致なし",
			emotion:   "Surpresa (60%)",
			topic:     "Cardápio",
			sentiment: "Neutro",
			want:      Decision{Action: "Analisar Manualmente", Priority: model.PriorityLow},
		},
		{
			name:      "raiva だがトピック不一致",
			emotion:   "Raiva (80%)",
			topic:     "Preço",
			sentiment: "Negativo",
			want:      Decision{Action: "Analisar Manualmente", Priority: model.PriorityLow},
		},
		{
			name: "空のフィールド",
			want: Decision{Action: "Analisar Manualmente", Priority: model.PriorityLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &model.Video{
				PredominantFacialEmotion: tt.emotion,
				AnalyzedTopic:            tt.topic,
				OverallAISentiment:       tt.sentiment,
			}
			if got := Classify(v); got != tt.want {
				t.Errorf("Classify = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassify_RuleOrderWins(t *testing.T) {
	// 複数の規則の条件を同時に満たす場合は上位の規則が優先される
	tests := []struct {
		name string
		v    model.Video
		want model.Priority
	}{
		{
			name: "規則1が規則2より優先",
			v: model.Video{
				PredominantFacialEmotion: "Raiva e Tristeza",
				AnalyzedTopic:            "Usabilidade",
				OverallAISentiment:       "Negativo",
			},
			want: model.PriorityCritical,
		},
		{
			name: "規則2が規則3より優先",
			v: model.Video{
				PredominantFacialEmotion: "Tristeza com Alegria",
				AnalyzedTopic:            "Feature nova",
				OverallAISentiment:       "Negativo",
			},
			want: model.PriorityHigh,
		},
		{
			name: "規則1が規則3より優先",
			v: model.Video{
				PredominantFacialEmotion: "Raiva / Alegria",
				AnalyzedTopic:            "Usabilidade da feature",
				OverallAISentiment:       "Positivo",
			},
			want: model.PriorityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.v).Priority; got != tt.want {
				t.Errorf("Priority = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	v := &model.Video{
		PredominantFacialEmotion: "Raiva (90%)",
		AnalyzedTopic:            "Problema de Usabilidade",
	}
	before := *v

	first := Classify(v)
	second := Classify(v)
	if first != second {
		t.Errorf("同じ入力で結果が異なる: %+v vs %+v", first, second)
	}
	if before.PredominantFacialEmotion != v.PredominantFacialEmotion || before.AnalyzedTopic != v.AnalyzedTopic {
		t.Error("Classify が入力を変更した")
	}
}

func TestClassify_IgnoresEnrichment(t *testing.T) {
	text := "raiva usabilidade"
	v := &model.Video{
		PredominantFacialEmotion: "Alegria",
		AnalyzedTopic:            "Cardápio",
		Transcription:            model.TranscriptionEnrichment{Status: model.EnrichmentSuccess, Text: text},
		Metadata:                 model.MetadataEnrichment{Title: text},
	}
	if got := Classify(v); got != defaultDecision {
		t.Errorf("Classify = %+v, エンリッチメント結果を参照してはならない", got)
	}
}
