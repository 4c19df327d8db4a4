package core

import (
	"context"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/core/algo"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/jaajung-kjs/kepco-survey/core")

// Aggregator turns accumulator cells into category scores, finals and ranks.
// It holds no mutable state and never writes to the store.
type Aggregator struct {
	reader  contract.AccumulatorReader
	catalog *schema.Catalog
}

// NewAggregator creates an Aggregator over the reader and catalog.
func NewAggregator(reader contract.AccumulatorReader, catalog *schema.Catalog) *Aggregator {
	return &Aggregator{reader: reader, catalog: catalog}
}

// Catalog returns the question catalog in use.
func (a *Aggregator) Catalog() *schema.Catalog {
	return a.catalog
}

// ComputeDepartmentScore scores one department in every category. Ranks are left nil.
func (a *Aggregator) ComputeDepartmentScore(ctx context.Context, department schema.Department) (result schema.DepartmentScore, err error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputeDepartmentScore",
		trace.WithAttributes(attribute.String("department", string(department))))
	defer func() { endSpan(span, err) }()

	if !department.IsValid() {
		return schema.DepartmentScore{}, &contract.UnknownDepartmentError{Name: string(department)}
	}

	acc, err := a.reader.GetDepartmentAccumulator(ctx, department)
	if err != nil {
		return schema.DepartmentScore{}, contract.NewUpstreamError("load department accumulator", err)
	}
	return a.scoreAccumulator(acc), nil
}

// ComputeAllDepartmentScores scores every department in fixed order and ranks each
// category and the overall average independently.
func (a *Aggregator) ComputeAllDepartmentScores(ctx context.Context) (result []schema.DepartmentScore, err error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputeAllDepartmentScores")
	defer func() { endSpan(span, err) }()

	accs, err := a.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]schema.DepartmentScore, 0, len(schema.AllDepartments))
	for _, dept := range schema.AllDepartments {
		acc, ok := accs[dept]
		if !ok {
			return nil, contract.NewNotFoundError("department", string(dept))
		}
		scores = append(scores, a.scoreAccumulator(acc))
	}

	for ci := range schema.AllCategories {
		finals := make([]float64, len(scores))
		for i := range scores {
			finals[i] = scores[i].Scores[ci].FinalScore
		}
		for i, r := range algo.CompetitionRanks(finals) {
			scores[i].Scores[ci].Rank = &r
		}
	}

	overall := make([]float64, len(scores))
	for i := range scores {
		overall[i] = scores[i].OverallAverage
	}
	for i, r := range algo.CompetitionRanks(overall) {
		scores[i].OverallRank = &r
	}
	return scores, nil
}

// RankedDepartmentScore returns one department's score with ranks taken from the
// all-department computation.
func (a *Aggregator) RankedDepartmentScore(ctx context.Context, department schema.Department) (schema.DepartmentScore, error) {
	if !department.IsValid() {
		return schema.DepartmentScore{}, &contract.UnknownDepartmentError{Name: string(department)}
	}
	all, err := a.ComputeAllDepartmentScores(ctx)
	if err != nil {
		return schema.DepartmentScore{}, err
	}
	return all[schema.DepartmentIndex(department)], nil
}

// ComputeQuestionDetail reports per own-department question the department's average,
// the cross-department average and the department's rank among departments that
// answered it. An empty questions slice means every own-department question.
func (a *Aggregator) ComputeQuestionDetail(ctx context.Context, department schema.Department, questions []int) (result []schema.QuestionScore, err error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputeQuestionDetail",
		trace.WithAttributes(attribute.String("department", string(department))))
	defer func() { endSpan(span, err) }()

	if !department.IsValid() {
		return nil, &contract.UnknownDepartmentError{Name: string(department)}
	}
	if len(questions) == 0 {
		questions = a.catalog.AllOwnQuestions()
	}
	for _, q := range questions {
		if _, ok := a.catalog.CategoryOfOwn(q); !ok {
			return nil, contract.NewInputError("question", fmt.Sprintf("%d is not an own-department question", q))
		}
	}

	accs, err := a.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := accs[department]; !ok {
		return nil, contract.NewNotFoundError("department", string(department))
	}

	result = make([]schema.QuestionScore, 0, len(questions))
	for _, q := range questions {
		question, _ := a.catalog.Question(q)
		category, _ := a.catalog.CategoryOfOwn(q)
		qs := questionDetail(accs, department, q, func(acc schema.DepartmentAccumulator) schema.Cell { return acc.Own[q] })
		qs.Text = question.Text
		qs.Category = category
		result = append(result, qs)
	}
	return result, nil
}

// ComputePeerQuestionDetail is ComputeQuestionDetail over the peer-evaluation slots.
func (a *Aggregator) ComputePeerQuestionDetail(ctx context.Context, department schema.Department) (result []schema.QuestionScore, err error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputePeerQuestionDetail",
		trace.WithAttributes(attribute.String("department", string(department))))
	defer func() { endSpan(span, err) }()

	if !department.IsValid() {
		return nil, &contract.UnknownDepartmentError{Name: string(department)}
	}

	accs, err := a.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := accs[department]; !ok {
		return nil, contract.NewNotFoundError("department", string(department))
	}

	slots := a.catalog.AllPeerSlots()
	result = make([]schema.QuestionScore, 0, len(slots))
	for _, slot := range slots {
		qs := questionDetail(accs, department, slot, func(acc schema.DepartmentAccumulator) schema.Cell { return acc.Peer[slot] })
		qs.Text = a.catalog.PeerSlotText(slot)
		qs.Category = a.peerSlotCategory(slot)
		result = append(result, qs)
	}
	return result, nil
}

// ComputeOrganizationScores averages each category over the organization-wide cells.
func (a *Aggregator) ComputeOrganizationScores(ctx context.Context) (result []schema.CategoryScore, err error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputeOrganizationScores")
	defer func() { endSpan(span, err) }()

	acc, err := a.reader.GetOrganizationAccumulator(ctx)
	if err != nil {
		return nil, contract.NewUpstreamError("load organization accumulator", err)
	}

	result = make([]schema.CategoryScore, 0, len(schema.AllCategories))
	for _, category := range schema.AllCategories {
		keys := a.catalog.OrganizationQuestions(category)
		totals := sumCells(acc.Cells, keys)
		cs := schema.CategoryScore{
			Category:    category,
			Average:     roundTenth(totals.average()),
			Respondents: totals.respondents,
			HasScore:    totals.hasData(),
			Questions:   make([]schema.QuestionScore, 0, len(keys)),
		}
		for _, q := range keys {
			question, _ := a.catalog.Question(q)
			cell := acc.Cells[q]
			cs.Questions = append(cs.Questions, schema.QuestionScore{
				Number:      q,
				Text:        question.Text,
				Category:    category,
				Average:     roundTenth(cell.Average()),
				Respondents: cell.Count,
			})
		}
		result = append(result, cs)
	}
	return result, nil
}

// scoreAccumulator computes the unranked score of one department.
func (a *Aggregator) scoreAccumulator(acc schema.DepartmentAccumulator) schema.DepartmentScore {
	scores := make([]schema.EvaluationScore, 0, len(schema.AllCategories))
	for _, category := range schema.AllCategories {
		peerSlots := a.catalog.PeerSlots(category)
		own := sumCells(acc.Own, a.catalog.OwnQuestions(category))
		peer := sumCells(acc.Peer, peerSlots)
		scores = append(scores, computeEvaluation(category, own, peer, len(peerSlots) > 0))
	}
	return schema.DepartmentScore{
		Department:     acc.Department,
		Scores:         scores,
		OverallAverage: overallAverage(scores),
	}
}

// loadAll reads every department accumulator keyed by department.
func (a *Aggregator) loadAll(ctx context.Context) (map[schema.Department]schema.DepartmentAccumulator, error) {
	list, err := a.reader.ListDepartmentAccumulators(ctx)
	if err != nil {
		return nil, contract.NewUpstreamError("list department accumulators", err)
	}
	accs := make(map[schema.Department]schema.DepartmentAccumulator, len(list))
	for _, acc := range list {
		accs[acc.Department] = acc
	}
	return accs, nil
}

func (a *Aggregator) peerSlotCategory(slot int) schema.Category {
	for _, category := range schema.AllCategories {
		for _, s := range a.catalog.PeerSlots(category) {
			if s == slot {
				return category
			}
		}
	}
	return ""
}

// questionDetail computes one question across the fixed department order.
func questionDetail(
	accs map[schema.Department]schema.DepartmentAccumulator,
	department schema.Department,
	number int,
	cellOf func(schema.DepartmentAccumulator) schema.Cell,
) schema.QuestionScore {
	averages := make([]float64, len(schema.AllDepartments))
	answered := make([]bool, len(schema.AllDepartments))
	var total schema.Cell
	var own schema.Cell
	for i, dept := range schema.AllDepartments {
		acc, ok := accs[dept]
		if !ok {
			continue
		}
		cell := cellOf(acc)
		total.Sum += cell.Sum
		total.Count += cell.Count
		averages[i] = cell.Average()
		answered[i] = cell.Count > 0
		if dept == department {
			own = cell
		}
	}

	ranks := algo.PartialRanks(averages, answered)
	return schema.QuestionScore{
		Number:         number,
		Average:        roundTenth(own.Average()),
		Respondents:    own.Count,
		Rank:           ranks[schema.DepartmentIndex(department)],
		OverallAverage: roundTenth(total.Average()),
	}
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
