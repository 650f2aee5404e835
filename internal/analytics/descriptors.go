// Package analytics は文字起こしからの形容詞抽出と、動画一覧の集計を提供する。
package analytics

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/JoaoVitorSD/aia-action/internal/model"
)

// descriptorVocabulary は肯定的な形容詞の表記と正規形の一覧。
// 抽出結果はこの並び順で返す。女性形・アクセントなしの表記は男性単数形に正規化する。
var descriptorVocabulary = []struct{ form, canonical string }{
	{"delicioso", "delicioso"},
	{"deliciosa", "delicioso"},
	{"frio", "frio"},
	{"fria", "frio"},
	{"salgado", "salgado"},
	{"salgada", "salgado"},
	{"cremoso", "cremoso"},
	{"cremosa", "cremoso"},
	{"quente", "quente"},
	{"doce", "doce"},
	{"fresco", "fresco"},
	{"fresca", "fresco"},
	{"crocante", "crocante"},
	{"perfeito", "perfeito"},
	{"perfeita", "perfeito"},
	{"incrível", "incrível"},
	{"incrivel", "incrível"},
	{"ótimo", "ótimo"},
	{"ótima", "ótimo"},
	{"excelente", "excelente"},
	{"maravilhoso", "maravilhoso"},
	{"maravilhosa", "maravilhoso"},
	{"saboroso", "saboroso"},
	{"saborosa", "saboroso"},
	{"apetitoso", "apetitoso"},
	{"apetitosa", "apetitoso"},
}

// DescriptorStat は形容詞ごとの集計結果。
type DescriptorStat struct {
	Descriptor string
	// Count はその形容詞を含む動画の数（1本の中での出現回数ではない）。
	Count int
	// Percentage は全動画数に対する割合（四捨五入した整数）。
	Percentage int
}

// ExtractDescriptors はテキストから肯定的な形容詞を正規形で抽出する。
// 単語単位・大文字小文字を区別せずに一致を判定する。
// 結果はテキスト上の出現順ではなく語彙一覧の順で、重複なく返す。
func ExtractDescriptors(text string) []string {
	present := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), isWordSeparator) {
		present[w] = true
	}

	var found []string
	seen := make(map[string]bool)
	for _, d := range descriptorVocabulary {
		if !present[d.form] || seen[d.canonical] {
			continue
		}
		seen[d.canonical] = true
		found = append(found, d.canonical)
	}
	return found
}

// Aggregate は動画一覧の実効文字起こしから形容詞の出現動画数と割合を集計する。
// 件数の降順に並べ、同数の場合は最初に現れた順を維持する。
func Aggregate(videos []*model.Video) []DescriptorStat {
	if len(videos) == 0 {
		return []DescriptorStat{}
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range videos {
		for _, d := range ExtractDescriptors(v.EffectiveTranscript()) {
			if _, ok := counts[d]; !ok {
				order = append(order, d)
			}
			counts[d]++
		}
	}

	stats := make([]DescriptorStat, 0, len(order))
	total := float64(len(videos))
	for _, d := range order {
		stats = append(stats, DescriptorStat{
			Descriptor: d,
			Count:      counts[d],
			Percentage: int(math.Round(float64(counts[d]) / total * 100)),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// isWordSeparator は単語を構成しない文字かどうかを判定する。
// アクセント付き文字も単語の一部として扱う。
func isWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
