package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// WriteOrganizationScores outputs the organization-wide scores in the configured format.
func WriteOrganizationScores(scores []schema.CategoryScore, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, scores)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOrganizationCSV(w, scores, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOrganizationTable(w, scores, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

func writeOrganizationTable(w io.Writer, scores []schema.CategoryScore, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	var categories, questions [][]string
	width := getMaxQuestionWidth(cfg)
	for _, c := range scores {
		avg := "-"
		if c.HasScore {
			avg = fmtFloat(c.Average)
		}
		categories = append(categories, []string{
			string(c.Category),
			avg,
			fmt.Sprintf(intFmt, c.Respondents),
			label(cfg, c.Average, c.HasScore),
		})
		for _, q := range c.Questions {
			qavg := "-"
			if q.Respondents > 0 {
				qavg = fmtFloat(q.Average)
			}
			questions = append(questions, []string{
				strconv.Itoa(q.Number),
				string(c.Category),
				truncateText(q.Text, width),
				qavg,
				fmt.Sprintf(intFmt, q.Respondents),
			})
		}
	}

	if err := renderTable(w, []string{"Category", "Average", "Respondents", "Label"}, categories); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := renderTable(w, []string{"Q", "Category", "Question", "Average", "Respondents"}, questions); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Computed in %v. Store backend: %s\n", duration, cfg.StoreBackend)
	return err
}

// writeOrganizationCSV writes one row per organization question with its category average.
func writeOrganizationCSV(w io.Writer, scores []schema.CategoryScore, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"category",
		"category_average",
		"category_respondents",
		"number",
		"question",
		"average",
		"respondents",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range scores {
			for _, q := range c.Questions {
				rec := []string{
					string(c.Category),
					fmtFloat(c.Average),
					fmt.Sprintf(intFmt, c.Respondents),
					strconv.Itoa(q.Number),
					q.Text,
					fmtFloat(q.Average),
					fmt.Sprintf(intFmt, q.Respondents),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
