package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	aggregator *core.Aggregator
	users      contract.UserStore
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func departmentArg(request mcp.CallToolRequest) (schema.Department, error) {
	name := request.GetString("department", "")
	if name == "" {
		return "", nil
	}
	d := schema.Department(name)
	if !d.IsValid() {
		return "", &contract.UnknownDepartmentError{Name: name}
	}
	return d, nil
}

func (h *toolHandler) handleDepartmentScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	department, err := departmentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if department == "" {
		scores, err := h.aggregator.ComputeAllDepartmentScores(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
		}
		return jsonResult(scores)
	}

	score, err := h.aggregator.RankedDepartmentScore(ctx, department)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(score)
}

func (h *toolHandler) handleQuestionDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	department, err := departmentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if department == "" {
		return mcp.NewToolResultError("department is required"), nil
	}

	var questions []schema.QuestionScore
	if request.GetBool("peer", false) {
		questions, err = h.aggregator.ComputePeerQuestionDetail(ctx, department)
	} else {
		questions, err = h.aggregator.ComputeQuestionDetail(ctx, department, nil)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question detail failed: %v", err)), nil
	}
	return jsonResult(questions)
}

func (h *toolHandler) handleOrganizationScores(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scores, err := h.aggregator.ComputeOrganizationScores(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(scores)
}

func (h *toolHandler) handleResponseStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := core.ComputeResponseStats(ctx, h.users)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}
