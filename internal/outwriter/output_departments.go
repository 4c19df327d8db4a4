package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// WriteDepartmentScores outputs the department ranking in the configured format.
func WriteDepartmentScores(scores []schema.DepartmentScore, cfg *contract.Config, duration time.Duration) error {
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
			return writeDepartmentCSV(w, scores, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDepartmentTable(w, scores, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// byOverallRank returns a copy sorted by overall rank. Unranked rows keep their order at the end.
func byOverallRank(scores []schema.DepartmentScore) []schema.DepartmentScore {
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b schema.DepartmentScore) int {
		switch {
		case a.OverallRank == nil && b.OverallRank == nil:
			return 0
		case a.OverallRank == nil:
			return 1
		case b.OverallRank == nil:
			return -1
		default:
			return *a.OverallRank - *b.OverallRank
		}
	})
	return sorted
}

func hasAnyScore(d schema.DepartmentScore) bool {
	for _, s := range d.Scores {
		if s.HasOwnScore || s.HasPeerScore {
			return true
		}
	}
	return false
}

func writeDepartmentTable(w io.Writer, scores []schema.DepartmentScore, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	headers := []string{"Rank", "Department"}
	for _, c := range schema.AllCategories {
		headers = append(headers, string(c))
	}
	headers = append(headers, "Overall", "Label")

	var data [][]string
	for _, d := range byOverallRank(scores) {
		row := []string{optRank(d.OverallRank), string(d.Department)}
		for _, c := range schema.AllCategories {
			s, ok := d.Score(c)
			if !ok || !(s.HasOwnScore || s.HasPeerScore) {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%s (#%s)", fmtFloat(s.FinalScore), optRank(s.Rank)))
		}
		row = append(row, fmtFloat(d.OverallAverage), label(cfg, d.OverallAverage, hasAnyScore(d)))
		data = append(data, row)
	}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}

	var own, peer int64
	for _, d := range scores {
		for _, s := range d.Scores {
			own += s.OwnRespondents
			peer += s.PeerRespondents
		}
	}
	if _, err := fmt.Fprintf(w, "Showing %d departments (own respondents: %d, peer respondents: %d)\n", len(scores), own, peer); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Computed in %v. Store backend: %s\n", duration, cfg.StoreBackend)
	return err
}

// writeDepartmentCSV writes one row per department and category.
func writeDepartmentCSV(w io.Writer, scores []schema.DepartmentScore, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"overall_rank",
		"department",
		"overall_average",
		"category",
		"own_score",
		"other_score",
		"final_score",
		"difference",
		"category_rank",
		"own_respondents",
		"other_respondents",
		"label",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range byOverallRank(scores) {
			for _, s := range d.Scores {
				hasData := s.HasOwnScore || s.HasPeerScore
				own := ""
				if s.HasOwnScore {
					own = fmtFloat(s.OwnAverage)
				}
				rec := []string{
					csvRank(d.OverallRank),
					string(d.Department),
					fmtFloat(d.OverallAverage),
					string(s.Category),
					own,
					optFloat(s.PeerAverage, fmtFloat),
					fmtFloat(s.FinalScore),
					optFloat(s.Difference, fmtFloat),
					csvRank(s.Rank),
					fmt.Sprintf(intFmt, s.OwnRespondents),
					fmt.Sprintf(intFmt, s.PeerRespondents),
					contract.GetPlainLabel(s.FinalScore, hasData),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// csvRank leaves unranked cells empty.
func csvRank(rank *int) string {
	if rank == nil {
		return ""
	}
	return strconv.Itoa(*rank)
}
