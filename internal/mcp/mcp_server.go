// Package mcp exposes the survey scores to AI agents over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer configures the survey MCP server without starting it.
func NewMCPServer(surveyStore contract.SurveyStore, catalog *schema.Catalog) *server.MCPServer {
	if catalog == nil {
		catalog = schema.DefaultCatalog()
	}
	s := server.NewMCPServer(
		"KEPCO Survey Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		aggregator: core.NewAggregator(surveyStore, catalog),
		users:      surveyStore,
	}

	departments := make([]string, 0, schema.DepartmentCount())
	for _, d := range schema.AllDepartments {
		departments = append(departments, string(d))
	}

	s.AddTool(mcp.NewTool("get_department_scores",
		mcp.WithDescription("Category, final and overall scores of every department with ranks, or of one department when named."),
		mcp.WithString("department", mcp.Description("Department name. Omit to rank all departments."), mcp.Enum(departments...)),
	), h.handleDepartmentScores)

	s.AddTool(mcp.NewTool("get_question_detail",
		mcp.WithDescription("Per-question averages of one department with the rank among departments and the all-department average."),
		mcp.WithString("department", mcp.Description("Department name."), mcp.Required(), mcp.Enum(departments...)),
		mcp.WithBoolean("peer", mcp.Description("Return the peer-evaluation slots instead of own-department questions.")),
	), h.handleQuestionDetail)

	s.AddTool(mcp.NewTool("get_organization_scores",
		mcp.WithDescription("Organization-wide category averages with their questions."),
	), h.handleOrganizationScores)

	s.AddTool(mcp.NewTool("get_response_stats",
		mcp.WithDescription("Overall and per-department survey completion rates."),
	), h.handleResponseStats)

	return s
}

// StartMCPServer serves the survey tools over stdio until the client disconnects.
func StartMCPServer(_ context.Context, surveyStore contract.SurveyStore, catalog *schema.Catalog) error {
	return server.ServeStdio(NewMCPServer(surveyStore, catalog))
}
