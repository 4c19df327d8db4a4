// Package outwriter renders score results as tables, CSV or JSON.
package outwriter

import (
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// OutWriter is the single entry point the CLI uses to print results.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteDepartments prints the ranked scores of every department.
func (ow *OutWriter) WriteDepartments(scores []schema.DepartmentScore, cfg *contract.Config, duration time.Duration) error {
	return WriteDepartmentScores(scores, cfg, duration)
}

// WriteDepartmentDetail prints one department's categories and question breakdown.
func (ow *OutWriter) WriteDepartmentDetail(detail schema.DepartmentDetail, cfg *contract.Config, duration time.Duration) error {
	return WriteDepartmentDetail(detail, cfg, duration)
}

// WriteOrganization prints the organization-wide category averages.
func (ow *OutWriter) WriteOrganization(scores []schema.CategoryScore, cfg *contract.Config, duration time.Duration) error {
	return WriteOrganizationScores(scores, cfg, duration)
}

// WriteUsers prints survey accounts and their completion state.
func (ow *OutWriter) WriteUsers(users []schema.User, cfg *contract.Config) error {
	return WriteUsers(users, cfg)
}
