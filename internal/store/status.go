package store

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// GetStatus returns status information about the survey store.
func (s *SurveyStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		status.Connected = false
		return status, contract.NewUpstreamError("ping store", err)
	}

	version, dirty, err := schemaVersion(s.db, s.backend)
	if err != nil {
		return status, contract.NewUpstreamError("read schema version", err)
	}
	status.SchemaVersion = version
	status.Dirty = dirty

	row := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM %s WHERE is_admin = ?", usersTable), false)
	if err := row.Scan(&status.TotalUsers); err != nil {
		return status, contract.NewUpstreamError("count users", err)
	}
	row = s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM %s WHERE is_admin = ? AND has_completed = ?", usersTable), false, true)
	if err := row.Scan(&status.CompletedUsers); err != nil {
		return status, contract.NewUpstreamError("count completed users", err)
	}

	if status.CompletedUsers > 0 {
		var last dbTime
		row = s.db.QueryRowContext(ctx, s.q("SELECT MAX(completed_at) FROM %s", usersTable))
		if err := row.Scan(&last); err != nil {
			return status, contract.NewUpstreamError("last submission", err)
		}
		status.LastSubmission = last.Ptr()
	}

	for _, table := range allTables {
		var count int64
		row = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
		if err := row.Scan(&count); err != nil {
			return status, contract.NewUpstreamError("count "+table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Schema Version: %d", status.SchemaVersion)
	if status.Dirty {
		_, _ = fmt.Fprint(w, " (dirty)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Respondents: %d completed of %d\n", status.CompletedUsers, status.TotalUsers)
	if status.LastSubmission != nil {
		_, _ = fmt.Fprintf(w, "Last Submission: %s\n", status.LastSubmission.Format("2006-01-02 15:04:05"))
	}
	if len(status.TableSizes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
