package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

const userTimeFormat = "2006-01-02 15:04"

// WriteUsers outputs the account list in the configured format.
func WriteUsers(users []schema.User, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, users)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeUsersCSV(w, users)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeUsersTable(w, users)
		}, "Wrote table")
	}
}

func completedAt(u schema.User) string {
	if u.CompletedAt == nil {
		return ""
	}
	return u.CompletedAt.Local().Format(userTimeFormat)
}

func writeUsersTable(w io.Writer, users []schema.User) error {
	rows := make([][]string, 0, len(users))
	completed := 0
	for _, u := range users {
		if u.HasCompleted {
			completed++
		}
		rows = append(rows, []string{
			u.Username,
			strconv.FormatBool(u.IsAdmin),
			strconv.FormatBool(u.HasCompleted),
			completedAt(u),
		})
	}
	if err := renderTable(w, []string{"Username", "Admin", "Completed", "Completed at"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d accounts, %d completed\n", len(users), completed)
	return err
}

func writeUsersCSV(w io.Writer, users []schema.User) error {
	return writeCSVWithHeader(w, []string{"id", "username", "is_admin", "has_completed", "completed_at"}, func(cw *csv.Writer) error {
		for _, u := range users {
			if err := cw.Write([]string{u.ID, u.Username, strconv.FormatBool(u.IsAdmin), strconv.FormatBool(u.HasCompleted), completedAt(u)}); err != nil {
				return err
			}
		}
		return nil
	})
}
