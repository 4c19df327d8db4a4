package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoNarrator is returned when a report must be generated but no LLM provider is configured.
var ErrNoNarrator = fmt.Errorf("%w: no LLM provider configured", contract.ErrUpstream)

// Report is a narrative analysis with its cache provenance.
type Report struct {
	schema.AnalysisRecord
	Cached bool `json:"cached"`
}

// ReportService generates department and organization reports and caches them.
type ReportService struct {
	aggregator *Aggregator
	texts      contract.TextResponseStore
	analyses   contract.AnalysisStore
	narrator   contract.Narrator // nil disables generation
	keywords   *KeywordExtractor
	ttl        time.Duration // 0 means cached reports never go stale
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService creates a ReportService. narrator may be nil, in which case only cached
// reports are served.
func NewReportService(
	aggregator *Aggregator,
	texts contract.TextResponseStore,
	analyses contract.AnalysisStore,
	narrator contract.Narrator,
	keywords *KeywordExtractor,
	ttl time.Duration,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keywords == nil {
		keywords = NewKeywordExtractor(DefaultKeywordLimit, 0)
	}
	return &ReportService{
		aggregator: aggregator,
		texts:      texts,
		analyses:   analyses,
		narrator:   narrator,
		keywords:   keywords,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// DepartmentReport returns the narrative report of one department.
func (r *ReportService) DepartmentReport(ctx context.Context, department schema.Department) (result Report, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.DepartmentReport",
		trace.WithAttributes(attribute.String("department", string(department))))
	defer func() { endSpan(span, err) }()

	if !department.IsValid() {
		return Report{}, &contract.UnknownDepartmentError{Name: string(department)}
	}

	return r.cachedOrGenerate(ctx, schema.DepartmentAnalysis, string(department), func(ctx context.Context) (string, error) {
		var (
			score         schema.DepartmentScore
			questions     []schema.QuestionScore
			peerQuestions []schema.QuestionScore
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			score, err = r.aggregator.RankedDepartmentScore(gctx, department)
			return err
		})
		g.Go(func() (err error) {
			questions, err = r.aggregator.ComputeQuestionDetail(gctx, department, nil)
			return err
		})
		g.Go(func() (err error) {
			peerQuestions, err = r.aggregator.ComputePeerQuestionDetail(gctx, department)
			return err
		})
		if err := g.Wait(); err != nil {
			return "", err
		}
		return BuildDepartmentPrompt(score, questions, peerQuestions), nil
	})
}

// OrganizationReport returns the narrative report of the whole organization.
func (r *ReportService) OrganizationReport(ctx context.Context) (result Report, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.OrganizationReport")
	defer func() { endSpan(span, err) }()

	return r.cachedOrGenerate(ctx, schema.OrganizationAnalysis, "", func(ctx context.Context) (string, error) {
		scores, err := r.aggregator.ComputeOrganizationScores(ctx)
		if err != nil {
			return "", err
		}
		keywords, err := r.QuestionKeywords(ctx, nil)
		if err != nil {
			return "", err
		}
		return BuildOrganizationPrompt(scores, keywords), nil
	})
}

// QuestionKeywords extracts keywords for the given free-text questions, all of them when empty.
// The result follows catalog order.
func (r *ReportService) QuestionKeywords(ctx context.Context, questions []int) ([]schema.QuestionKeywords, error) {
	catalog := r.aggregator.Catalog()
	if len(questions) == 0 {
		questions = catalog.TextQuestions()
	}
	for _, q := range questions {
		question, ok := catalog.Question(q)
		if !ok || !question.IsFreeText() {
			return nil, contract.NewInputError("question", fmt.Sprintf("%d is not a free-text question", q))
		}
	}

	responses, err := r.texts.ListTextResponses(ctx, questions)
	if err != nil {
		return nil, contract.NewUpstreamError("list text responses", err)
	}
	byQuestion := r.keywords.ExtractByQuestion(responses)

	result := make([]schema.QuestionKeywords, 0, len(questions))
	for _, q := range questions {
		question, _ := catalog.Question(q)
		kws := byQuestion[q]
		if kws == nil {
			kws = []schema.KeywordCount{}
		}
		result = append(result, schema.QuestionKeywords{Question: q, Text: question.Text, Keywords: kws})
	}
	return result, nil
}

// cachedOrGenerate serves a fresh cached record, or builds the prompt, narrates it and saves the result.
func (r *ReportService) cachedOrGenerate(
	ctx context.Context,
	analysisType schema.AnalysisType,
	target string,
	buildPrompt func(context.Context) (string, error),
) (Report, error) {
	log := r.logger.With(zap.String("analysis_type", string(analysisType)), zap.String("target", target))

	if !shouldForceRefresh(ctx) {
		record, err := r.analyses.GetAnalysis(ctx, analysisType, target)
		switch {
		case err == nil && !r.stale(record):
			log.Debug("serving cached analysis")
			return Report{AnalysisRecord: record, Cached: true}, nil
		case err != nil && !errors.Is(err, contract.ErrNotFound):
			return Report{}, contract.NewUpstreamError("load cached analysis", err)
		}
	}

	if r.narrator == nil {
		return Report{}, ErrNoNarrator
	}

	prompt, err := buildPrompt(ctx)
	if err != nil {
		return Report{}, err
	}

	start := r.now()
	content, err := r.narrator.Narrate(ctx, ReportSystemPrompt, prompt)
	if err != nil {
		log.Error("narration failed", zap.String("provider", r.narrator.Name()), zap.Error(err))
		return Report{}, contract.NewUpstreamError("generate analysis", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Report{}, contract.NewUpstreamError("generate analysis", errors.New("provider returned no content"))
	}
	log.Info("analysis generated",
		zap.String("provider", r.narrator.Name()),
		zap.Duration("duration", r.now().Sub(start)),
		zap.Int("length", len(content)))

	record, err := r.analyses.SaveAnalysis(ctx, analysisType, target, content)
	if err != nil {
		return Report{}, contract.NewUpstreamError("save analysis", err)
	}
	return Report{AnalysisRecord: record}, nil
}

func (r *ReportService) stale(record schema.AnalysisRecord) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(record.UpdatedAt) > r.ttl
}
