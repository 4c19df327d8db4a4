package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// targetClause matches a nullable target key.
func targetClause(target string) (string, []any) {
	if target == "" {
		return "target_key IS NULL", nil
	}
	return "target_key = ?", []any{target}
}

func nullableTarget(target string) any {
	if target == "" {
		return nil
	}
	return target
}

// GetAnalysis returns the cached report for (type, target).
func (s *SurveyStoreImpl) GetAnalysis(ctx context.Context, analysisType schema.AnalysisType, target string) (schema.AnalysisRecord, error) {
	clause, targetArgs := targetClause(target)
	query := s.q("SELECT analysis_type, target_key, analysis_content, created_at, updated_at FROM %s WHERE analysis_type = ? AND "+clause+" ORDER BY id DESC LIMIT 1", analysesTable)
	args := append([]any{string(analysisType)}, targetArgs...)

	var record schema.AnalysisRecord
	var kind string
	var key sql.NullString
	var created, updated dbTime
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&kind, &key, &record.Content, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.AnalysisRecord{}, contract.NewNotFoundError("analysis", string(analysisType)+"/"+target)
	}
	if err != nil {
		return schema.AnalysisRecord{}, contract.NewUpstreamError("get analysis", err)
	}
	record.AnalysisType = schema.AnalysisType(kind)
	if key.Valid {
		record.TargetKey = &key.String
	}
	record.CreatedAt = created.Time
	record.UpdatedAt = updated.Time
	return record, nil
}

// SaveAnalysis upserts the report, keeping created_at of an existing entry.
func (s *SurveyStoreImpl) SaveAnalysis(ctx context.Context, analysisType schema.AnalysisType, target, content string) (record schema.AnalysisRecord, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.AnalysisRecord{}, contract.NewUpstreamError("begin analysis save", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	clause, targetArgs := targetClause(target)
	now := s.now().UTC()
	args := append([]any{string(analysisType)}, targetArgs...)

	var created dbTime
	err = tx.QueryRowContext(ctx, s.q("SELECT created_at FROM %s WHERE analysis_type = ? AND "+clause+" ORDER BY id DESC LIMIT 1", analysesTable), args...).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = dbTime{Time: now, Valid: true}
		_, err = tx.ExecContext(ctx,
			s.q("INSERT INTO %s (analysis_type, target_key, analysis_content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", analysesTable),
			string(analysisType), nullableTarget(target), content, formatTime(now, s.backend), formatTime(now, s.backend))
		if err != nil {
			return schema.AnalysisRecord{}, contract.NewUpstreamError("insert analysis", err)
		}
	case err != nil:
		return schema.AnalysisRecord{}, contract.NewUpstreamError("lookup analysis", err)
	default:
		updateArgs := append([]any{content, formatTime(now, s.backend), string(analysisType)}, targetArgs...)
		_, err = tx.ExecContext(ctx,
			s.q("UPDATE %s SET analysis_content = ?, updated_at = ? WHERE analysis_type = ? AND "+clause, analysesTable),
			updateArgs...)
		if err != nil {
			return schema.AnalysisRecord{}, contract.NewUpstreamError("update analysis", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return schema.AnalysisRecord{}, contract.NewUpstreamError("commit analysis", err)
	}

	record = schema.AnalysisRecord{
		AnalysisType: analysisType,
		Content:      content,
		CreatedAt:    created.Time,
		UpdatedAt:    now,
	}
	if target != "" {
		record.TargetKey = &target
	}
	return record, nil
}

// DeleteAnalysis removes the cached report for (type, target).
func (s *SurveyStoreImpl) DeleteAnalysis(ctx context.Context, analysisType schema.AnalysisType, target string) error {
	clause, targetArgs := targetClause(target)
	args := append([]any{string(analysisType)}, targetArgs...)
	if _, err := s.db.ExecContext(ctx, s.q("DELETE FROM %s WHERE analysis_type = ? AND "+clause, analysesTable), args...); err != nil {
		return contract.NewUpstreamError("delete analysis", err)
	}
	return nil
}
