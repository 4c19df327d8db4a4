package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleScores() []schema.DepartmentScore {
	return []schema.DepartmentScore{
		{
			Department: schema.GridOperation,
			Scores: []schema.EvaluationScore{
				{Category: schema.CultureCategory, OwnAverage: 4, FinalScore: 4, Rank: ptr(2), HasOwnScore: true, OwnRespondents: 2},
				{Category: schema.CooperationCategory, OwnAverage: 4, PeerAverage: ptr(3.0), FinalScore: 3.5, Difference: ptr(-1.0), Rank: ptr(1), HasOwnScore: true, HasPeerScore: true, OwnRespondents: 2, PeerRespondents: 1},
			},
			OverallAverage: 3.75,
			OverallRank:    ptr(2),
		},
		{
			Department: schema.WonjuBranch,
			Scores: []schema.EvaluationScore{
				{Category: schema.CultureCategory, OwnAverage: 5, FinalScore: 5, Rank: ptr(1), HasOwnScore: true, OwnRespondents: 2},
			},
			OverallAverage: 5,
			OverallRank:    ptr(1),
		},
		{Department: schema.TaebaekBranch},
	}
}

func sampleDetail() schema.DepartmentDetail {
	return schema.DepartmentDetail{
		Score: sampleScores()[0],
		Questions: []schema.QuestionScore{
			{Number: 2, Text: "우리 부서는 서로 존중한다", Category: schema.CultureCategory, Average: 4, Respondents: 2, Rank: ptr(2), OverallAverage: 4.5},
		},
		PeerQuestions: []schema.QuestionScore{
			{Number: 3, Text: "업무 협조가 원활하다", Category: schema.CooperationCategory, Average: 3, Respondents: 1, Rank: ptr(1), OverallAverage: 3},
		},
	}
}

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestByOverallRank(t *testing.T) {
	scores := sampleScores()
	sorted := byOverallRank(scores)

	require.Len(t, sorted, 3)
	assert.Equal(t, schema.WonjuBranch, sorted[0].Department)
	assert.Equal(t, schema.GridOperation, sorted[1].Department)
	assert.Equal(t, schema.TaebaekBranch, sorted[2].Department)
	assert.Equal(t, schema.GridOperation, scores[0].Department, "input must not be reordered")
}

func TestDepartmentTable(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	cfg := &contract.Config{StoreBackend: schema.SQLiteBackend}

	var buf bytes.Buffer
	require.NoError(t, writeDepartmentTable(&buf, sampleScores(), cfg, fmtFloat, time.Second))
	out := buf.String()

	assert.Less(t, strings.Index(out, string(schema.WonjuBranch)), strings.Index(out, string(schema.GridOperation)))
	assert.Contains(t, out, "3.5 (#1)")
	assert.Contains(t, out, contract.NoDataValue)
	assert.Contains(t, out, "Showing 3 departments (own respondents: 6, peer respondents: 1)")
	assert.Contains(t, out, "Store backend: sqlite")
}

func TestDepartmentCSV(t *testing.T) {
	fmtFloat, intFmt := createFormatters(1)

	var buf bytes.Buffer
	require.NoError(t, writeDepartmentCSV(&buf, sampleScores(), fmtFloat, intFmt))
	records := readCSV(t, &buf)

	require.Len(t, records, 4)
	assert.Equal(t, "overall_rank", records[0][0])
	assert.Equal(t, []string{"1", "원주전력", "5.0", "조직문화", "5.0", "", "5.0", "", "1", "2", "0", contract.ExcellentValue}, records[1])
	assert.Equal(t, []string{"2", "계통운영부", "3.8", "업무협조", "4.0", "3.0", "3.5", "-1.0", "1", "2", "1", contract.FairValue}, records[3])
}

func TestDetailTables(t *testing.T) {
	fmtFloat, intFmt := createFormatters(1)
	cfg := &contract.Config{Width: 200}

	var buf bytes.Buffer
	require.NoError(t, writeDetailTables(&buf, sampleDetail(), cfg, fmtFloat, intFmt, time.Millisecond))
	out := buf.String()

	assert.Contains(t, out, "계통운영부: overall 3.8 (rank 2/10)")
	assert.Contains(t, out, "Own-department questions")
	assert.Contains(t, out, "우리 부서는 서로 존중한다")
	assert.Contains(t, out, "Peer evaluation")
	assert.Contains(t, out, "업무 협조가 원활하다")
}

func TestQuestionCSV(t *testing.T) {
	fmtFloat, intFmt := createFormatters(2)

	var buf bytes.Buffer
	require.NoError(t, writeQuestionCSV(&buf, sampleDetail(), fmtFloat, intFmt))
	records := readCSV(t, &buf)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"계통운영부", "own", "2", "조직문화", "우리 부서는 서로 존중한다", "4.00", "2", "2", "4.50"}, records[1])
	assert.Equal(t, "peer", records[2][1])
	assert.Equal(t, "3", records[2][2])
}

func TestOrganizationOutput(t *testing.T) {
	scores := []schema.CategoryScore{
		{
			Category:    schema.InnovationCategory,
			Average:     4.5,
			Respondents: 2,
			HasScore:    true,
			Questions: []schema.QuestionScore{
				{Number: 26, Text: "관리처는 변화를 주도한다", Average: 4.5, Respondents: 2},
			},
		},
		{Category: schema.CultureCategory},
	}
	fmtFloat, intFmt := createFormatters(1)

	var table bytes.Buffer
	require.NoError(t, writeOrganizationTable(&table, scores, &contract.Config{Width: 200}, fmtFloat, intFmt, time.Second))
	assert.Contains(t, table.String(), contract.ExcellentValue)
	assert.Contains(t, table.String(), "관리처는 변화를 주도한다")

	var out bytes.Buffer
	require.NoError(t, writeOrganizationCSV(&out, scores, fmtFloat, intFmt))
	records := readCSV(t, &out)
	require.Len(t, records, 2, "categories without questions emit no rows")
	assert.Equal(t, []string{"업무혁신", "4.5", "2", "26", "관리처는 변화를 주도한다", "4.5", "2"}, records[1])
}

func TestWriteUsersCSV(t *testing.T) {
	done := time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)
	users := []schema.User{
		{ID: "u1", Username: "admin", IsAdmin: true},
		{ID: "u2", Username: "wonju01", HasCompleted: true, CompletedAt: &done},
	}

	var buf bytes.Buffer
	require.NoError(t, writeUsersCSV(&buf, users))
	records := readCSV(t, &buf)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"u2", "wonju01", "false", "true", "2026-03-02 09:30"}, records[2])

	buf.Reset()
	require.NoError(t, writeUsersTable(&buf, users))
	assert.Contains(t, buf.String(), "2 accounts, 1 completed")
}

func TestWriteDepartmentScoresToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path, Precision: 1}

	require.NoError(t, NewOutWriter().WriteDepartments(sampleScores(), cfg, time.Second))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []schema.DepartmentScore
	require.NoError(t, json.Unmarshal(content, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, schema.GridOperation, decoded[0].Department)
	assert.Equal(t, 2, *decoded[0].OverallRank)
}
