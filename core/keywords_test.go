package core

import (
	"testing"
	"unicode/utf8"

	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

// TestTokenize tests normalization, punctuation stripping and token filters.
func TestTokenize(t *testing.T) {
	e := NewKeywordExtractor(DefaultKeywordLimit, 0)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"empty", "", nil},
		{"blank", "  \n\t ", nil},
		{"punctuation becomes space", "소통,협업!문화", []string{"소통", "협업", "문화"}},
		{"stop words dropped", "그리고 소통 매우 부족", []string{"소통", "부족"}},
		{"single rune dropped", "일 소통 안", []string{"소통"}},
		{"digits dropped", "2024 년도 123 소통", []string{"년도", "소통"}},
		{"ascii kept", "IT system_v2 ok", []string{"IT", "system_v2", "ok"}},
		{"non-hangul script stripped", "改善 소통", []string{"소통"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Tokenize(tt.text))
		})
	}
}

// TestTokenizeNFC tests that decomposed jamo input matches precomposed syllables.
func TestTokenizeNFC(t *testing.T) {
	e := NewKeywordExtractor(DefaultKeywordLimit, 0)
	decomposed := norm.NFD.String("소통")
	assert.NotEqual(t, "소통", decomposed)
	assert.Equal(t, []string{"소통"}, e.Tokenize(decomposed))
}

// TestExtract tests ordering and truncation.
func TestExtract(t *testing.T) {
	texts := []string{
		"소통 협업 교육",
		"협업 소통",
		"소통 예산",
		"",
	}

	e := NewKeywordExtractor(3, 0)
	assert.Equal(t, []schema.KeywordCount{
		{Keyword: "소통", Count: 3},
		{Keyword: "협업", Count: 2},
		{Keyword: "교육", Count: 1},
	}, e.Extract(texts))

	all := NewKeywordExtractor(0, 0).Extract(texts)
	assert.Len(t, all, 4)
	assert.Equal(t, "예산", all[3].Keyword, "ties are broken alphabetically")
}

// TestExtractMergeVariants tests folding particle-inflected forms into the frequent stem.
func TestExtractMergeVariants(t *testing.T) {
	texts := []string{"소통 소통 소통이 소통을 협업"}

	plain := NewKeywordExtractor(0, 0).Extract(texts)
	assert.Len(t, plain, 4)

	merged := NewKeywordExtractor(0, 1).Extract(texts)
	assert.Equal(t, []schema.KeywordCount{
		{Keyword: "소통", Count: 4},
		{Keyword: "협업", Count: 1},
	}, merged)
}

// TestExtractByQuestion tests grouping by question number.
func TestExtractByQuestion(t *testing.T) {
	responses := []schema.TextResponse{
		{Question: 40, Response: "소통 부족"},
		{Question: 40, Response: "소통 문제"},
		{Question: 53, Response: "교육 확대"},
	}

	result := NewKeywordExtractor(DefaultKeywordLimit, 0).ExtractByQuestion(responses)
	assert.Len(t, result, 2)
	assert.Equal(t, schema.KeywordCount{Keyword: "소통", Count: 2}, result[40][0])
	assert.Len(t, result[53], 2)
}

// FuzzTokenize checks token invariants on arbitrary input.
func FuzzTokenize(f *testing.F) {
	for _, seed := range []string{"", "소통 협업", "123 abc", "!!!", "그리고 또한", "소"} {
		f.Add(seed)
	}
	e := NewKeywordExtractor(DefaultKeywordLimit, 0)
	f.Fuzz(func(t *testing.T, text string) {
		for _, tok := range e.Tokenize(text) {
			if utf8.RuneCountInString(tok) < DefaultKeywordMinLength {
				t.Errorf("token %q shorter than minimum", tok)
			}
			if IsStopWord(tok) {
				t.Errorf("stop word %q returned", tok)
			}
			if isDigits(tok) {
				t.Errorf("numeric token %q returned", tok)
			}
		}
	})
}
