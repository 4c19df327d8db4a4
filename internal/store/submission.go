package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// ApplySubmission marks the user completed, increments every planned cell and stores text
// answers inside one transaction. A user who already completed gets ErrAlreadyCompleted and
// no cell changes.
func (s *SurveyStoreImpl) ApplySubmission(ctx context.Context, userID string, plan schema.SubmissionPlan) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contract.NewUpstreamError("begin submission", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The guarded claim locks the user row; a concurrent submission by the same
	// user blocks here and matches no row once this one commits.
	now := s.now()
	claim := s.q("UPDATE %s SET has_completed = ?, completed_at = ? WHERE id = ? AND has_completed = ?", usersTable)
	res, err := tx.ExecContext(ctx, claim, true, formatTime(now, s.backend), userID, false)
	if err != nil {
		return contract.NewUpstreamError("claim completion", err)
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return contract.NewUpstreamError("claim completion", err)
	}
	if claimed == 0 {
		var exists int
		row := tx.QueryRowContext(ctx, s.q("SELECT 1 FROM %s WHERE id = ?", usersTable), userID)
		if err = row.Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return contract.NewNotFoundError("user", userID)
			}
			return contract.NewUpstreamError("check completion", err)
		}
		return contract.ErrAlreadyCompleted
	}

	cellQuery := s.cellUpsertQuery()
	for _, inc := range plan.Cells {
		if _, err = tx.ExecContext(ctx, cellQuery, string(inc.Department), string(inc.Kind), inc.Question, inc.Score); err != nil {
			return contract.NewUpstreamError(fmt.Sprintf("increment %s %s cell %d", inc.Department, inc.Kind, inc.Question), err)
		}
	}

	orgQuery := s.organizationUpsertQuery()
	for _, inc := range plan.Organization {
		if _, err = tx.ExecContext(ctx, orgQuery, inc.Question, inc.Score); err != nil {
			return contract.NewUpstreamError(fmt.Sprintf("increment organization cell %d", inc.Question), err)
		}
	}

	textQuery := s.q("INSERT INTO %s (user_id, question_number, question_text, response_text, created_at) VALUES (?, ?, ?, ?, ?)", textResponsesTable)
	for _, resp := range plan.TextResponses {
		if _, err = tx.ExecContext(ctx, textQuery, userID, resp.Question, resp.Text, resp.Response, formatTime(now, s.backend)); err != nil {
			return contract.NewUpstreamError(fmt.Sprintf("store text response %d", resp.Question), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return contract.NewUpstreamError("commit submission", err)
	}
	return nil
}

// cellUpsertQuery returns the single-statement increment for a department cell.
func (s *SurveyStoreImpl) cellUpsertQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return s.q(`INSERT INTO %s (department, slot_kind, question_number, score_sum, score_count)
			VALUES (?, ?, ?, ?, 1) AS new
			ON DUPLICATE KEY UPDATE score_sum = score_sum + new.score_sum, score_count = score_count + 1`, departmentCellsTable)
	case schema.PostgreSQLBackend:
		return s.q(`INSERT INTO %[1]s (department, slot_kind, question_number, score_sum, score_count)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT (department, slot_kind, question_number)
			DO UPDATE SET score_sum = %[1]s.score_sum + EXCLUDED.score_sum, score_count = %[1]s.score_count + 1`, departmentCellsTable)
	default: // SQLite
		return s.q(`INSERT INTO %s (department, slot_kind, question_number, score_sum, score_count)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT (department, slot_kind, question_number)
			DO UPDATE SET score_sum = score_sum + excluded.score_sum, score_count = score_count + 1`, departmentCellsTable)
	}
}

// organizationUpsertQuery returns the single-statement increment for an organization cell.
func (s *SurveyStoreImpl) organizationUpsertQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return s.q(`INSERT INTO %s (question_number, score_sum, score_count)
			VALUES (?, ?, 1) AS new
			ON DUPLICATE KEY UPDATE score_sum = score_sum + new.score_sum, score_count = score_count + 1`, organizationCellsTable)
	case schema.PostgreSQLBackend:
		return s.q(`INSERT INTO %[1]s (question_number, score_sum, score_count)
			VALUES (?, ?, 1)
			ON CONFLICT (question_number)
			DO UPDATE SET score_sum = %[1]s.score_sum + EXCLUDED.score_sum, score_count = %[1]s.score_count + 1`, organizationCellsTable)
	default: // SQLite
		return s.q(`INSERT INTO %s (question_number, score_sum, score_count)
			VALUES (?, ?, 1)
			ON CONFLICT (question_number)
			DO UPDATE SET score_sum = score_sum + excluded.score_sum, score_count = score_count + 1`, organizationCellsTable)
	}
}

// ListTextResponses returns stored free-text answers, optionally restricted to the given questions.
func (s *SurveyStoreImpl) ListTextResponses(ctx context.Context, questions []int) ([]schema.TextResponse, error) {
	query := "SELECT question_number, question_text, response_text, created_at FROM %s"
	args := make([]any, 0, len(questions))
	if len(questions) > 0 {
		query += " WHERE question_number IN (" + placeholders(len(questions)) + ")"
		for _, q := range questions {
			args = append(args, q)
		}
	}
	query += " ORDER BY question_number, created_at, id"

	rows, err := s.db.QueryContext(ctx, s.q(query, textResponsesTable), args...)
	if err != nil {
		return nil, contract.NewUpstreamError("query text responses", err)
	}
	defer func() { _ = rows.Close() }()

	var result []schema.TextResponse
	for rows.Next() {
		var resp schema.TextResponse
		var created dbTime
		if err := rows.Scan(&resp.Question, &resp.Text, &resp.Response, &created); err != nil {
			return nil, contract.NewUpstreamError("scan text response", err)
		}
		resp.CreatedAt = created.Time
		result = append(result, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewUpstreamError("iterate text responses", err)
	}
	return result, nil
}

func placeholders(n int) string {
	b := make([]byte, 0, n*3)
	for i := range n {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
