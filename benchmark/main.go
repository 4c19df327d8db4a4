// Package main benchmarks the survey pipeline against each store backend.
// It provisions synthetic respondents, submits their answers through the
// submission service and times the score computations afterwards, writing a
// CSV summary for performance analysis.
//
// Usage: go run ./benchmark [respondents]
//
// MySQL and PostgreSQL are included when KEPCO_SURVEY_BENCH_MYSQL or
// KEPCO_SURVEY_BENCH_POSTGRES hold a connection string.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BenchmarkResult holds the timings of one backend.
type BenchmarkResult struct {
	Backend     string
	Respondents int
	SubmitTime  time.Duration
	ColdTime    time.Duration // first all-department computation
	WarmTime    time.Duration // average of the following runs
	DetailTime  time.Duration // question detail of every department
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Respondents int
	Executives  int
	ScoreRuns   int
	Concurrency int
	Backends    map[schema.DatabaseBackend]string
}

func main() {
	respondents := 500
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Printf("Usage: %s [respondents]\n", os.Args[0])
			os.Exit(1)
		}
		respondents = n
	}

	tmpDir, err := os.MkdirTemp("", "kepco-survey-bench-*")
	if err != nil {
		contract.LogFatal("Failed to create temp dir", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	config := BenchmarkConfig{
		Respondents: respondents,
		Executives:  respondents / 10,
		ScoreRuns:   5,
		Concurrency: 8,
		Backends: map[schema.DatabaseBackend]string{
			schema.NoneBackend:   "",
			schema.SQLiteBackend: filepath.Join(tmpDir, "bench.db"),
		},
	}
	if conn := os.Getenv("KEPCO_SURVEY_BENCH_MYSQL"); conn != "" {
		config.Backends[schema.MySQLBackend] = conn
	}
	if conn := os.Getenv("KEPCO_SURVEY_BENCH_POSTGRES"); conn != "" {
		config.Backends[schema.PostgreSQLBackend] = conn
	}

	ctx := context.Background()
	var results []BenchmarkResult
	for _, backend := range []schema.DatabaseBackend{schema.NoneBackend, schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		connStr, ok := config.Backends[backend]
		if !ok {
			continue
		}
		fmt.Printf("Benchmarking %s with %d respondents\n", backend, config.Respondents)
		result, err := runBackend(ctx, config, backend, connStr)
		if err != nil {
			contract.LogWarn("Benchmark of "+string(backend)+" failed", err)
			continue
		}
		results = append(results, result)
	}

	if err := saveResults(results); err != nil {
		contract.LogFatal("Failed to save results", err)
	}
	printSummary(results)
}

// runBackend clears the backend, fills it with synthetic submissions and times the scoring.
func runBackend(ctx context.Context, config BenchmarkConfig, backend schema.DatabaseBackend, connStr string) (BenchmarkResult, error) {
	if backend != schema.NoneBackend {
		if err := store.ClearStore(backend, connStr, connStr); err != nil {
			return BenchmarkResult{}, err
		}
	}
	st, err := store.NewSurveyStore(backend, connStr)
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer func() { _ = st.Close() }()

	catalog := schema.DefaultCatalog()
	submissions := core.NewSubmissionService(st, catalog, zap.NewNop())
	result := BenchmarkResult{Backend: string(backend), Respondents: config.Respondents}

	users := make([]schema.User, config.Respondents)
	for i := range users {
		dept := schema.AllDepartments[i%schema.DepartmentCount()]
		users[i], err = st.CreateUser(ctx, fmt.Sprintf("%s_%d", dept, i), "x", false)
		if err != nil {
			return BenchmarkResult{}, err
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Concurrency)
	for i, u := range users {
		sub := syntheticSubmission(catalog, i, i < config.Executives)
		g.Go(func() error {
			return submissions.Submit(gctx, u.ID, sub)
		})
	}
	if err := g.Wait(); err != nil {
		return BenchmarkResult{}, err
	}
	result.SubmitTime = time.Since(start)

	agg := core.NewAggregator(st, catalog)
	var warm time.Duration
	for run := 0; run < config.ScoreRuns; run++ {
		start = time.Now()
		if _, err := agg.ComputeAllDepartmentScores(ctx); err != nil {
			return BenchmarkResult{}, err
		}
		if run == 0 {
			result.ColdTime = time.Since(start)
		} else {
			warm += time.Since(start)
		}
	}
	if config.ScoreRuns > 1 {
		result.WarmTime = warm / time.Duration(config.ScoreRuns-1)
	}

	start = time.Now()
	for _, dept := range schema.AllDepartments {
		if _, err := agg.ComputeQuestionDetail(ctx, dept, nil); err != nil {
			return BenchmarkResult{}, err
		}
	}
	result.DetailTime = time.Since(start)
	return result, nil
}

// syntheticSubmission answers every scale question; executives also rate two other departments.
func syntheticSubmission(catalog *schema.Catalog, i int, executive bool) schema.Submission {
	rng := rand.New(rand.NewPCG(uint64(i), 42))
	score := func() int { return schema.MinScaleScore + rng.IntN(schema.MaxScaleScore) }

	dept := schema.AllDepartments[i%schema.DepartmentCount()]
	sub := schema.Submission{Department: dept, Position: schema.EmployeePosition}
	for _, q := range catalog.AllOwnQuestions() {
		sub.OwnAnswers = append(sub.OwnAnswers, schema.Answer{Question: q, Score: score()})
	}
	for _, q := range catalog.AllOrganizationQuestions() {
		sub.OrganizationAnswers = append(sub.OrganizationAnswers, schema.Answer{Question: q, Score: score()})
	}
	if !executive {
		return sub
	}

	sub.Position = schema.ExecutivePosition
	for offset := 1; offset <= 2; offset++ {
		target := schema.AllDepartments[(i+offset)%schema.DepartmentCount()]
		for _, q := range catalog.QuestionsBySection(schema.PeerDepartmentSection) {
			if !q.IsScale() {
				continue
			}
			sub.PeerAnswers = append(sub.PeerAnswers, schema.PeerAnswer{Question: q.Number, Target: target, Score: score()})
		}
	}
	return sub
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("kepco_survey_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"backend", "respondents", "submit", "score_cold", "score_warm_avg", "question_detail"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		rec := []string{
			r.Backend,
			strconv.Itoa(r.Respondents),
			seconds(r.SubmitTime),
			seconds(r.ColdTime),
			seconds(r.WarmTime),
			seconds(r.DetailTime),
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-10s: Submit: %s, Cold: %s, Warm: %s, Detail: %s\n",
			r.Backend, seconds(r.SubmitTime), seconds(r.ColdTime), seconds(r.WarmTime), seconds(r.DetailTime))
	}
}
