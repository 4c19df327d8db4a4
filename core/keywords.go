package core

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"golang.org/x/text/unicode/norm"
)

// Keyword extraction defaults.
const (
	DefaultKeywordMinLength = 2
	DefaultKeywordLimit     = 30
)

// nonWordPattern matches every rune that is not an ASCII word character, whitespace or a Hangul syllable.
var nonWordPattern = regexp.MustCompile(`[^A-Za-z0-9_\s가-힣]`)

// stopWords are Korean particles, connectives and filler words never reported as keywords.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"이", "그", "저", "것", "수", "등", "및", "의", "가", "을", "를", "에", "와", "과", "로", "으로", "는", "은", "이다", "있다", "하다", "되다",
		"그리고", "하지만", "그러나", "또한", "또", "등등", "즉", "예를들어", "때문에", "위해", "통해", "대한", "같은", "위한", "통한",
		"있는", "없는", "하는", "되는", "있습니다", "없습니다", "합니다", "됩니다", "것입니다", "있어", "없어", "해야", "필요", "생각", "느낌",
		"너무", "매우", "아주", "정말", "진짜", "조금", "약간", "좀", "더", "덜", "가장", "제일", "혹은", "또는", "거나", "든지",
		"있고", "없고", "하고", "되고", "있으며", "없으며", "하며", "되며", "있거나", "없거나", "하거나", "되거나",
		"그것", "이것", "저것", "무엇", "어디", "언제", "누구", "어떻게", "왜", "무슨", "어느", "얼마", "몇",
		"위", "아래", "앞", "뒤", "옆", "안", "밖", "속", "겉", "내", "외", "중", "간", "사이",
	} {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether w is never counted as a keyword.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// KeywordExtractor counts keyword frequencies in free-text answers.
type KeywordExtractor struct {
	MinLength     int // Minimum rune length of a keyword
	Limit         int // Keywords kept per question, 0 for all
	MergeDistance int // Levenshtein distance for folding variants, 0 disables
}

// NewKeywordExtractor returns an extractor with the default minimum length.
func NewKeywordExtractor(limit, mergeDistance int) *KeywordExtractor {
	return &KeywordExtractor{
		MinLength:     DefaultKeywordMinLength,
		Limit:         limit,
		MergeDistance: mergeDistance,
	}
}

// Tokenize splits one answer into candidate keywords.
func (e *KeywordExtractor) Tokenize(text string) []string {
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = nonWordPattern.ReplaceAllString(text, " ")

	minLength := e.MinLength
	if minLength <= 0 {
		minLength = DefaultKeywordMinLength
	}

	var tokens []string
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) < minLength || IsStopWord(word) || isDigits(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Extract counts keywords over texts, most frequent first with ties broken alphabetically.
func (e *KeywordExtractor) Extract(texts []string) []schema.KeywordCount {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, tok := range e.Tokenize(text) {
			counts[tok]++
		}
	}

	result := sortedKeywords(counts)
	if e.MergeDistance > 0 {
		result = mergeVariants(result, e.MergeDistance)
	}
	if e.Limit > 0 && len(result) > e.Limit {
		result = result[:e.Limit]
	}
	return result
}

// ExtractByQuestion groups responses by question number and extracts keywords per group.
func (e *KeywordExtractor) ExtractByQuestion(responses []schema.TextResponse) map[int][]schema.KeywordCount {
	groups := make(map[int][]string)
	for _, r := range responses {
		groups[r.Question] = append(groups[r.Question], r.Response)
	}

	result := make(map[int][]schema.KeywordCount, len(groups))
	for q, texts := range groups {
		result[q] = e.Extract(texts)
	}
	return result
}

// sortedKeywords orders counts by frequency descending, then keyword ascending.
func sortedKeywords(counts map[string]int) []schema.KeywordCount {
	result := make([]schema.KeywordCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, schema.KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Keyword < result[j].Keyword
	})
	return result
}

// mergeVariants folds each keyword into the first more frequent keyword within distance.
// The input must be sorted by sortedKeywords.
func mergeVariants(sorted []schema.KeywordCount, distance int) []schema.KeywordCount {
	merged := make([]schema.KeywordCount, 0, len(sorted))
	for _, kw := range sorted {
		folded := false
		for i := range merged {
			if merged[i].Count < kw.Count {
				continue
			}
			if levenshtein.ComputeDistance(merged[i].Keyword, kw.Keyword) <= distance {
				merged[i].Count += kw.Count
				folded = true
				break
			}
		}
		if !folded {
			merged = append(merged, kw)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].Keyword < merged[j].Keyword
	})
	return merged
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
