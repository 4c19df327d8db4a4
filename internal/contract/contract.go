// Package contract has the interfaces, configuration and shared helpers of kepco-survey.
package contract

import (
	"context"

	"github.com/jaajung-kjs/kepco-survey/schema"
)

// AccumulatorReader reads the raw (sum, count) cells behind every score.
type AccumulatorReader interface {
	// GetDepartmentAccumulator returns every cell of one department.
	// A department without a row yields ErrNotFound.
	GetDepartmentAccumulator(ctx context.Context, department schema.Department) (schema.DepartmentAccumulator, error)

	// ListDepartmentAccumulators returns one accumulator per department row.
	ListDepartmentAccumulators(ctx context.Context) ([]schema.DepartmentAccumulator, error)

	// GetOrganizationAccumulator returns the singleton organization-wide row.
	GetOrganizationAccumulator(ctx context.Context) (schema.OrganizationAccumulator, error)
}

// SubmissionWriter applies a planned submission in one transaction.
type SubmissionWriter interface {
	// ApplySubmission increments every planned cell, stores the text answers and marks
	// the user completed. It returns ErrAlreadyCompleted without writing anything when
	// the user has already submitted.
	ApplySubmission(ctx context.Context, userID string, plan schema.SubmissionPlan) error
}

// TextResponseStore reads stored free-text answers.
type TextResponseStore interface {
	ListTextResponses(ctx context.Context, questions []int) ([]schema.TextResponse, error)
}

// UserStore manages survey accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (schema.User, error)
	GetUser(ctx context.Context, id string) (schema.User, error)
	GetUserByUsername(ctx context.Context, username string) (schema.User, error)
	ListUsers(ctx context.Context) ([]schema.User, error)
}

// SessionStore manages login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session schema.Session) error
	GetSession(ctx context.Context, token string) (schema.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// AnalysisStore caches narrative reports keyed by (type, target).
// An empty target is stored as NULL.
type AnalysisStore interface {
	GetAnalysis(ctx context.Context, analysisType schema.AnalysisType, target string) (schema.AnalysisRecord, error)
	SaveAnalysis(ctx context.Context, analysisType schema.AnalysisType, target, content string) (schema.AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, analysisType schema.AnalysisType, target string) error
}

// SurveyStore is the full persistence surface of the service.
type SurveyStore interface {
	AccumulatorReader
	SubmissionWriter
	TextResponseStore
	UserStore
	SessionStore
	AnalysisStore

	// GetStatus reports connection, schema and table statistics.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close releases the underlying connection.
	Close() error
}

// StoreManager exposes the configured store to commands and servers.
type StoreManager interface {
	GetSurveyStore() SurveyStore
}

// Narrator turns a prompt into narrative text through an LLM provider.
type Narrator interface {
	// Narrate sends the system and user prompt and returns the model's text.
	Narrate(ctx context.Context, system, prompt string) (string, error)

	// Name identifies the provider and model for logs and metrics.
	Name() string
}
