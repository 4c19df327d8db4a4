package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func executiveSubmission() schema.Submission {
	return schema.Submission{
		Department: schema.GridOperation,
		Position:   schema.ExecutivePosition,
		OwnAnswers: []schema.Answer{
			{Question: 2, Score: 4},
			{Question: 16, Score: 5},
		},
		PeerAnswers: []schema.PeerAnswer{
			{Question: 23, Target: schema.SubstationOps, Score: 3},
		},
		OrganizationAnswers: []schema.Answer{
			{Question: 26, Score: 5},
		},
		TextAnswers: []schema.TextAnswer{
			{Question: 40, Text: "부서 간 소통 부족"},
		},
	}
}

// TestQuestions tests the section listing by type.
func TestQuestions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "강릉전력_직원1", "pw", false)
	cookie := env.login(t, "강릉전력_직원1", "pw")

	for typ, section := range questionSections {
		t.Run(typ, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/survey/questions?type="+typ, nil, cookie)
			require.Equal(t, http.StatusOK, rec.Code)

			questions := decode[[]schema.Question](t, rec)
			require.NotEmpty(t, questions)
			for _, q := range questions {
				assert.Equal(t, section, q.Section, "question %d", q.Number)
			}
		})
	}

	for _, typ := range []string{"", "basic", "OWN-DEPT"} {
		rec := env.do(t, http.MethodGet, "/api/survey/questions?type="+typ, nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "type %q", typ)
	}
}

// TestSubmit tests the write path, the repeat rejection and the submission counter.
func TestSubmit(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addUser(t, "간부1", "pw", false)
	cookie := env.login(t, "간부1", "pw")

	rec := env.do(t, http.MethodPost, "/api/survey/submit", "not json", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := executiveSubmission()
	bad.PeerAnswers[0].Target = schema.GridOperation
	rec = env.do(t, http.MethodPost, "/api/survey/submit", bad, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/survey/submit", executiveSubmission(), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/survey/submit", executiveSubmission(), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "already completed")

	stored, err := env.mem.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasCompleted)

	acc, err := env.mem.GetDepartmentAccumulator(t.Context(), schema.SubstationOps)
	require.NoError(t, err)
	assert.Equal(t, schema.Cell{Sum: 3, Count: 1}, acc.Peer[3], "applied once")

	reg := env.srv.registry
	assert.Equal(t, 1.0, metricValue(t, reg, "survey_submissions_total", map[string]string{"status": "accepted"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "survey_submissions_total", map[string]string{"status": "duplicate"}))
	assert.Equal(t, 2.0, metricValue(t, reg, "survey_submissions_total", map[string]string{"status": "rejected"}))
}

// TestDepartmentScores tests the all-department list, the single-department view and
// department name validation.
func TestDepartmentScores(t *testing.T) {
	env := newTestEnv(t, nil)
	cookie := env.asAdmin(t)
	env.mem.SetCell(schema.GridOperation, schema.OwnSlot, 2, schema.Cell{Sum: 8, Count: 2})
	env.mem.SetCell(schema.WonjuBranch, schema.OwnSlot, 2, schema.Cell{Sum: 10, Count: 2})

	rec := env.do(t, http.MethodGet, "/api/scores/department", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]schema.DepartmentScore](t, rec)
	require.Len(t, all, len(schema.AllDepartments))

	rec = env.do(t, http.MethodGet, "/api/scores/department?department="+url.QueryEscape(string(schema.GridOperation)), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[schema.DepartmentDetail](t, rec)
	assert.Equal(t, schema.GridOperation, detail.Score.Department)
	require.NotNil(t, detail.Score.OverallRank)
	assert.Equal(t, 2, *detail.Score.OverallRank, "ranked against every department")
	assert.NotEmpty(t, detail.Questions)
	assert.NotEmpty(t, detail.PeerQuestions)

	for _, name := range []string{"영업부", "계통운영", " 계통운영부"} {
		rec = env.do(t, http.MethodGet, "/api/scores/department?department="+url.QueryEscape(name), nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, errorMessage(t, rec), "unknown department")
	}
}

// TestDepartmentScoresMissingRow tests a known department whose row was removed.
func TestDepartmentScoresMissingRow(t *testing.T) {
	env := newTestEnv(t, nil)
	cookie := env.asAdmin(t)
	env.mem.RemoveDepartment(schema.TaebaekBranch)

	rec := env.do(t, http.MethodGet, "/api/scores/department?department="+url.QueryEscape(string(schema.TaebaekBranch)), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestOrganizationScores tests the organization view and its alias.
func TestOrganizationScores(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "간부1", "pw", false)
	userCookie := env.login(t, "간부1", "pw")
	rec := env.do(t, http.MethodPost, "/api/survey/submit", executiveSubmission(), userCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := env.asAdmin(t)
	for _, path := range []string{"/api/scores/organization", "/api/scores/management"} {
		rec := env.do(t, http.MethodGet, path, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, path)

		detail := decode[schema.OrganizationDetail](t, rec)
		assert.Len(t, detail.Scores, len(schema.AllCategories))
		require.Len(t, detail.TextResponses, 1)
		assert.Equal(t, 40, detail.TextResponses[0].Question)
		assert.Equal(t, "부서 간 소통 부족", detail.TextResponses[0].Response)
	}
}

// TestStats tests the response-rate endpoint.
func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)
	cookie := env.asAdmin(t)
	env.addUser(t, "계통운영부_직원1", "pw", false)
	env.addUser(t, "계통운영부_직원2", "pw", false)

	rec := env.do(t, http.MethodGet, "/api/admin/stats", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[schema.ResponseStats](t, rec)
	assert.Equal(t, schema.ResponseRate{Total: 2, Completed: 0, Rate: 0}, stats.Overall)
	require.Len(t, stats.ByDepartment, 1)
	assert.Equal(t, "계통운영부", stats.ByDepartment[0].Department)
}

// TestKeywords tests keyword extraction over stored text answers.
func TestKeywords(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "간부1", "pw", false)
	rec := env.do(t, http.MethodPost, "/api/survey/submit", executiveSubmission(), env.login(t, "간부1", "pw"))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := env.asAdmin(t)

	rec = env.do(t, http.MethodGet, "/api/admin/keywords?question=40", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	keywords := decode[[]schema.QuestionKeywords](t, rec)
	require.Len(t, keywords, 1)
	assert.Equal(t, 40, keywords[0].Question)
	assert.Contains(t, keywords[0].Keywords, schema.KeywordCount{Keyword: "소통", Count: 1})

	rec = env.do(t, http.MethodGet, "/api/admin/keywords", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]schema.QuestionKeywords](t, rec), len(env.srv.catalog.TextQuestions()))

	for _, q := range []string{"abc", "26", "999"} {
		rec = env.do(t, http.MethodGet, "/api/admin/keywords?question="+q, nil, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

// TestAnalysisCache tests the GET / POST / DELETE cycle of stored analyses.
func TestAnalysisCache(t *testing.T) {
	env := newTestEnv(t, nil)
	cookie := env.asAdmin(t)
	target := url.QueryEscape(string(schema.DonghaeBranch))

	rec := env.do(t, http.MethodGet, "/api/admin/ai-analysis?type=department&target="+target, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":false,"data":null}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis", saveAnalysisRequest{
		AnalysisType: schema.DepartmentAnalysis,
		TargetKey:    string(schema.DonghaeBranch),
		Content:      "## 요약",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/admin/ai-analysis?type=department&target="+target, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	lookup := decode[analysisLookup](t, rec)
	assert.True(t, lookup.Exists)
	require.NotNil(t, lookup.Data)
	assert.Equal(t, "## 요약", lookup.Data.Content)
	require.NotNil(t, lookup.Data.TargetKey)
	assert.Equal(t, string(schema.DonghaeBranch), *lookup.Data.TargetKey)

	rec = env.do(t, http.MethodGet, "/api/admin/ai-analysis?type=management", nil, cookie)
	assert.False(t, decode[analysisLookup](t, rec).Exists, "targets are not shared")

	rec = env.do(t, http.MethodDelete, "/api/admin/ai-analysis?type=department&target="+target, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/admin/ai-analysis?type=department&target="+target, nil, cookie)
	assert.False(t, decode[analysisLookup](t, rec).Exists)

	invalid := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/admin/ai-analysis", nil},
		{http.MethodGet, "/api/admin/ai-analysis?type=weekly", nil},
		{http.MethodDelete, "/api/admin/ai-analysis", nil},
		{http.MethodPost, "/api/admin/ai-analysis", saveAnalysisRequest{AnalysisType: schema.DepartmentAnalysis}},
		{http.MethodPost, "/api/admin/ai-analysis", saveAnalysisRequest{AnalysisType: "weekly", Content: "x"}},
	}
	for _, tt := range invalid {
		rec := env.do(t, tt.method, tt.path, tt.body, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tt.method, tt.path)
	}
}

// TestReports tests report generation, caching and forced refresh.
func TestReports(t *testing.T) {
	narrator := &store.MockNarrator{}
	narrator.On("Name").Return("mock/model")
	narrator.On("Narrate", mock.Anything, mock.Anything, mock.Anything).Return("## 분석", nil)

	env := newTestEnv(t, narrator)
	cookie := env.asAdmin(t)
	env.mem.SetCell(schema.GridOperation, schema.OwnSlot, 2, schema.Cell{Sum: 8, Count: 2})

	request := departmentReportRequest{Department: string(schema.GridOperation)}
	rec := env.do(t, http.MethodPost, "/api/admin/ai-analysis/department", request, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[analysisResponse](t, rec)
	require.NotNil(t, first.Data.Cached)
	assert.False(t, *first.Data.Cached)
	assert.Equal(t, "## 분석", first.Data.Content)

	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis/department", request, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *decode[analysisResponse](t, rec).Data.Cached)

	request.Refresh = true
	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis/department", request, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *decode[analysisResponse](t, rec).Data.Cached)

	for _, path := range []string{"/api/admin/ai-analysis/organization", "/api/admin/ai-analysis/management"} {
		rec = env.do(t, http.MethodPost, path, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
	narrator.AssertNumberOfCalls(t, "Narrate", 3)

	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis/department", departmentReportRequest{Department: "본사"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestReportsWithoutProvider tests that only cached reports are served without an LLM provider.
func TestReportsWithoutProvider(t *testing.T) {
	env := newTestEnv(t, nil)
	cookie := env.asAdmin(t)

	rec := env.do(t, http.MethodPost, "/api/admin/ai-analysis/organization", organizationReportRequest{}, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := env.mem.SaveAnalysis(t.Context(), schema.OrganizationAnalysis, "", "저장된 분석")
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis/organization", organizationReportRequest{}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "저장된 분석", decode[analysisResponse](t, rec).Data.Content)

	rec = env.do(t, http.MethodPost, "/api/admin/ai-analysis/organization", organizationReportRequest{Refresh: true}, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestReportProviderFailure tests that provider errors are reported as 500.
func TestReportProviderFailure(t *testing.T) {
	narrator := &store.MockNarrator{}
	narrator.On("Name").Return("mock/model")
	narrator.On("Narrate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	env := newTestEnv(t, narrator)
	cookie := env.asAdmin(t)

	rec := env.do(t, http.MethodPost, "/api/admin/ai-analysis/organization", nil, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
}
