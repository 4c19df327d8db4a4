package httpapi

import (
	"net/http"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"golang.org/x/sync/errgroup"
)

// departmentParam returns the ?department= value, validated against the fixed set.
func departmentParam(r *http.Request) (schema.Department, bool, error) {
	name := r.URL.Query().Get("department")
	if name == "" {
		return "", false, nil
	}
	department := schema.Department(name)
	if !department.IsValid() {
		return "", true, &contract.UnknownDepartmentError{Name: name}
	}
	return department, true, nil
}

func (s *Server) handleDepartmentScores(w http.ResponseWriter, r *http.Request) {
	department, ok, err := departmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		scores, err := s.aggregator.ComputeAllDepartmentScores(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
		return
	}

	detail, err := s.departmentDetail(r, department)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// departmentDetail computes the ranked score and both question views concurrently.
func (s *Server) departmentDetail(r *http.Request, department schema.Department) (schema.DepartmentDetail, error) {
	var detail schema.DepartmentDetail
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		detail.Score, err = s.aggregator.RankedDepartmentScore(ctx, department)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Questions, err = s.aggregator.ComputeQuestionDetail(ctx, department, nil)
		return err
	})
	g.Go(func() error {
		var err error
		detail.PeerQuestions, err = s.aggregator.ComputePeerQuestionDetail(ctx, department)
		return err
	})
	if err := g.Wait(); err != nil {
		return schema.DepartmentDetail{}, err
	}
	return detail, nil
}

func (s *Server) handleOrganizationScores(w http.ResponseWriter, r *http.Request) {
	var detail schema.OrganizationDetail
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		detail.Scores, err = s.aggregator.ComputeOrganizationScores(ctx)
		return err
	})
	g.Go(func() error {
		responses, err := s.store.ListTextResponses(ctx, s.catalog.TextQuestions())
		if err != nil {
			return contract.NewUpstreamError("list text responses", err)
		}
		detail.TextResponses = responses
		return nil
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if detail.TextResponses == nil {
		detail.TextResponses = []schema.TextResponse{}
	}
	writeJSON(w, http.StatusOK, detail)
}
