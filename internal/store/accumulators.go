package store

import (
	"context"
	"fmt"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// GetDepartmentAccumulator returns every cell of one department.
func (s *SurveyStoreImpl) GetDepartmentAccumulator(ctx context.Context, department schema.Department) (schema.DepartmentAccumulator, error) {
	var exists int
	row := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM %s WHERE name = ?", departmentsTable), string(department))
	if err := row.Scan(&exists); err != nil {
		return schema.DepartmentAccumulator{}, contract.NewUpstreamError("get department", err)
	}
	if exists == 0 {
		return schema.DepartmentAccumulator{}, contract.NewNotFoundError("department", string(department))
	}

	accs, err := s.loadDepartmentCells(ctx, "WHERE department = ?", string(department))
	if err != nil {
		return schema.DepartmentAccumulator{}, err
	}
	acc, ok := accs[department]
	if !ok {
		acc = newDepartmentAccumulator(department)
	}
	return acc, nil
}

// ListDepartmentAccumulators returns one accumulator per department row, in display order.
func (s *SurveyStoreImpl) ListDepartmentAccumulators(ctx context.Context) ([]schema.DepartmentAccumulator, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT name FROM %s ORDER BY display_order", departmentsTable))
	if err != nil {
		return nil, contract.NewUpstreamError("list departments", err)
	}
	defer func() { _ = rows.Close() }()

	var names []schema.Department
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, contract.NewUpstreamError("scan department", err)
		}
		names = append(names, schema.Department(name))
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewUpstreamError("iterate departments", err)
	}

	cells, err := s.loadDepartmentCells(ctx, "")
	if err != nil {
		return nil, err
	}

	result := make([]schema.DepartmentAccumulator, 0, len(names))
	for _, name := range names {
		acc, ok := cells[name]
		if !ok {
			acc = newDepartmentAccumulator(name)
		}
		result = append(result, acc)
	}
	return result, nil
}

// loadDepartmentCells reads department cells matching the optional WHERE clause.
func (s *SurveyStoreImpl) loadDepartmentCells(ctx context.Context, where string, args ...any) (map[schema.Department]schema.DepartmentAccumulator, error) {
	query := s.q("SELECT department, slot_kind, question_number, score_sum, score_count FROM %s "+where, departmentCellsTable)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contract.NewUpstreamError("query department cells", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[schema.Department]schema.DepartmentAccumulator)
	for rows.Next() {
		var dept, kind string
		var question int
		var cell schema.Cell
		if err := rows.Scan(&dept, &kind, &question, &cell.Sum, &cell.Count); err != nil {
			return nil, contract.NewUpstreamError("scan department cell", err)
		}
		acc, ok := result[schema.Department(dept)]
		if !ok {
			acc = newDepartmentAccumulator(schema.Department(dept))
			result[acc.Department] = acc
		}
		switch schema.SlotKind(kind) {
		case schema.OwnSlot:
			acc.Own[question] = cell
		case schema.PeerSlot:
			acc.Peer[question] = cell
		default:
			return nil, contract.NewUpstreamError("scan department cell", fmt.Errorf("unknown slot kind %q", kind))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewUpstreamError("iterate department cells", err)
	}
	return result, nil
}

// GetOrganizationAccumulator returns the organization-wide cells.
func (s *SurveyStoreImpl) GetOrganizationAccumulator(ctx context.Context) (schema.OrganizationAccumulator, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT question_number, score_sum, score_count FROM %s", organizationCellsTable))
	if err != nil {
		return schema.OrganizationAccumulator{}, contract.NewUpstreamError("query organization cells", err)
	}
	defer func() { _ = rows.Close() }()

	acc := schema.OrganizationAccumulator{Cells: make(map[int]schema.Cell)}
	for rows.Next() {
		var question int
		var cell schema.Cell
		if err := rows.Scan(&question, &cell.Sum, &cell.Count); err != nil {
			return schema.OrganizationAccumulator{}, contract.NewUpstreamError("scan organization cell", err)
		}
		acc.Cells[question] = cell
	}
	if err := rows.Err(); err != nil {
		return schema.OrganizationAccumulator{}, contract.NewUpstreamError("iterate organization cells", err)
	}
	return acc, nil
}

func newDepartmentAccumulator(department schema.Department) schema.DepartmentAccumulator {
	return schema.DepartmentAccumulator{
		Department: department,
		Own:        make(map[int]schema.Cell),
		Peer:       make(map[int]schema.Cell),
	}
}
