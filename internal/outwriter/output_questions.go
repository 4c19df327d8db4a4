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

// WriteDepartmentDetail outputs one department's view in the configured format.
func WriteDepartmentDetail(detail schema.DepartmentDetail, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, detail)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQuestionCSV(w, detail, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDetailTables(w, detail, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

func writeDetailTables(w io.Writer, detail schema.DepartmentDetail, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	total := schema.DepartmentCount()
	score := detail.Score
	if _, err := fmt.Fprintf(w, "%s: overall %s (rank %s/%d)\n", score.Department, fmtFloat(score.OverallAverage), optRank(score.OverallRank), total); err != nil {
		return err
	}

	var categories [][]string
	for _, s := range score.Scores {
		own := "-"
		if s.HasOwnScore {
			own = fmtFloat(s.OwnAverage)
		}
		peer, diff := "-", "-"
		if s.PeerAverage != nil {
			peer = fmtFloat(*s.PeerAverage)
		}
		if s.Difference != nil {
			diff = fmtFloat(*s.Difference)
		}
		categories = append(categories, []string{
			string(s.Category),
			own,
			peer,
			fmtFloat(s.FinalScore),
			diff,
			optRank(s.Rank),
			label(cfg, s.FinalScore, s.HasOwnScore || s.HasPeerScore),
		})
	}
	if err := renderTable(w, []string{"Category", "Own", "Peer", "Final", "Diff", "Rank", "Label"}, categories); err != nil {
		return err
	}

	width := getMaxQuestionWidth(cfg)
	if _, err := fmt.Fprintln(w, "\nOwn-department questions"); err != nil {
		return err
	}
	if err := renderTable(w, questionHeaders("Q"), questionRows(detail.Questions, fmtFloat, intFmt, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\nPeer evaluation"); err != nil {
		return err
	}
	if err := renderTable(w, questionHeaders("Slot"), questionRows(detail.PeerQuestions, fmtFloat, intFmt, width)); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Computed in %v. Store backend: %s\n", duration, cfg.StoreBackend)
	return err
}

func questionHeaders(number string) []string {
	return []string{number, "Category", "Question", "Average", "Respondents", "Rank", "All depts"}
}

func questionRows(questions []schema.QuestionScore, fmtFloat func(float64) string, intFmt string, width int) [][]string {
	rows := make([][]string, 0, len(questions))
	for _, q := range questions {
		avg := "-"
		if q.Respondents > 0 {
			avg = fmtFloat(q.Average)
		}
		rows = append(rows, []string{
			strconv.Itoa(q.Number),
			string(q.Category),
			truncateText(q.Text, width),
			avg,
			fmt.Sprintf(intFmt, q.Respondents),
			optRank(q.Rank),
			fmtFloat(q.OverallAverage),
		})
	}
	return rows
}

// writeQuestionCSV writes the own and peer question rows of one department.
func writeQuestionCSV(w io.Writer, detail schema.DepartmentDetail, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"department",
		"kind",
		"number",
		"category",
		"question",
		"average",
		"respondents",
		"rank",
		"overall_average",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, part := range []struct {
			kind      schema.SlotKind
			questions []schema.QuestionScore
		}{
			{schema.OwnSlot, detail.Questions},
			{schema.PeerSlot, detail.PeerQuestions},
		} {
			for _, q := range part.questions {
				rec := []string{
					string(detail.Score.Department),
					string(part.kind),
					strconv.Itoa(q.Number),
					string(q.Category),
					q.Text,
					fmtFloat(q.Average),
					fmt.Sprintf(intFmt, q.Respondents),
					csvRank(q.Rank),
					fmtFloat(q.OverallAverage),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
