package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// analysisView is the wire shape of a cached analysis.
type analysisView struct {
	AnalysisType schema.AnalysisType `json:"analysisType"`
	TargetKey    *string             `json:"targetKey"`
	Content      string              `json:"content"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Cached       *bool               `json:"cached,omitempty"`
}

func newAnalysisView(record schema.AnalysisRecord) *analysisView {
	return &analysisView{
		AnalysisType: record.AnalysisType,
		TargetKey:    record.TargetKey,
		Content:      record.Content,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func reportView(report core.Report) *analysisView {
	view := newAnalysisView(report.AnalysisRecord)
	cached := report.Cached
	view.Cached = &cached
	return view
}

type analysisLookup struct {
	Exists bool          `json:"exists"`
	Data   *analysisView `json:"data"`
}

type saveAnalysisRequest struct {
	AnalysisType schema.AnalysisType `json:"analysisType"`
	TargetKey    string              `json:"targetKey"`
	Content      string              `json:"content"`
}

type analysisResponse struct {
	Success bool          `json:"success"`
	Data    *analysisView `json:"data"`
}

type departmentReportRequest struct {
	Department string `json:"department"`
	Refresh    bool   `json:"refresh"`
}

type organizationReportRequest struct {
	Refresh bool `json:"refresh"`
}

// analysisType parses ?type= and rejects unknown kinds.
func analysisType(value string) (schema.AnalysisType, error) {
	if value == "" {
		return "", contract.NewInputError("type", "analysis type is required")
	}
	t := schema.AnalysisType(value)
	if _, ok := schema.ValidAnalysisTypes[t]; !ok {
		return "", contract.NewInputError("type", "unknown analysis type "+strconv.Quote(value))
	}
	return t, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := core.ComputeResponseStats(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var questions []int
	if value := r.URL.Query().Get("question"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			s.writeError(w, r, contract.NewInputError("question", "must be a question number"))
			return
		}
		questions = []int{n}
	}

	keywords, err := s.reports.QuestionKeywords(r.Context(), questions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keywords)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	t, err := analysisType(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	record, err := s.store.GetAnalysis(r.Context(), t, r.URL.Query().Get("target"))
	if errors.Is(err, contract.ErrNotFound) {
		writeJSON(w, http.StatusOK, analysisLookup{})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisLookup{Exists: true, Data: newAnalysisView(record)})
}

func (s *Server) handleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var req saveAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := analysisType(string(req.AnalysisType)); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Content == "" {
		s.writeError(w, r, contract.NewInputError("content", "content is required"))
		return
	}

	record, err := s.store.SaveAnalysis(r.Context(), req.AnalysisType, req.TargetKey, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Success: true, Data: newAnalysisView(record)})
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	t, err := analysisType(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteAnalysis(r.Context(), t, r.URL.Query().Get("target")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) handleDepartmentReport(w http.ResponseWriter, r *http.Request) {
	var req departmentReportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if req.Refresh {
		ctx = core.WithForceRefresh(ctx)
	}
	report, err := s.reports.DepartmentReport(ctx, schema.Department(req.Department))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Success: true, Data: reportView(report)})
}

func (s *Server) handleOrganizationReport(w http.ResponseWriter, r *http.Request) {
	var req organizationReportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	ctx := r.Context()
	if req.Refresh {
		ctx = core.WithForceRefresh(ctx)
	}
	report, err := s.reports.OrganizationReport(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Success: true, Data: reportView(report)})
}
