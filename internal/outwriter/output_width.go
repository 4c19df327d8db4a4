package outwriter

import (
	"os"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"golang.org/x/term"
)

// getMaxQuestionWidth returns how many runes of question text fit in a detail table row.
func getMaxQuestionWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detected
		}
	}

	// Number, category, average, respondents, rank and overall columns with borders.
	const fixedColumns = 70

	// Hangul occupies two terminal cells per rune.
	available := (termWidth - fixedColumns) / 2
	if available < 10 {
		return 10
	}
	if available > 60 {
		return 60
	}
	return available
}

// truncateText shortens s to at most limit runes, marking the cut with an ellipsis.
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit || limit < 1 {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
