package core

import (
	"context"
	"sort"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

// ComputeResponseStats reports participation over non-admin users.
// The per-department breakdown groups "<department>_..." usernames; executive
// accounts without a department prefix only count toward the overall figures.
func ComputeResponseStats(ctx context.Context, users contract.UserStore) (schema.ResponseStats, error) {
	list, err := users.ListUsers(ctx)
	if err != nil {
		return schema.ResponseStats{}, contract.NewUpstreamError("list users", err)
	}

	var overall schema.ResponseRate
	byDept := make(map[string]*schema.ResponseRate)
	for _, u := range list {
		if u.IsAdmin {
			continue
		}
		overall.Total++
		if u.HasCompleted {
			overall.Completed++
		}

		dept, ok := contract.DepartmentFromUsername(u.Username)
		if !ok {
			continue
		}
		rate, ok := byDept[dept]
		if !ok {
			rate = &schema.ResponseRate{}
			byDept[dept] = rate
		}
		rate.Total++
		if u.HasCompleted {
			rate.Completed++
		}
	}
	overall.Rate = percentage(overall.Completed, overall.Total)

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Slice(depts, func(i, j int) bool {
		return departmentLess(depts[i], depts[j])
	})

	stats := schema.ResponseStats{
		Overall:      overall,
		ByDepartment: make([]schema.DepartmentResponseRate, 0, len(depts)),
	}
	for _, d := range depts {
		rate := *byDept[d]
		rate.Rate = percentage(rate.Completed, rate.Total)
		stats.ByDepartment = append(stats.ByDepartment, schema.DepartmentResponseRate{Department: d, ResponseRate: rate})
	}
	return stats, nil
}

// departmentLess orders known departments by the fixed order, then unknown prefixes by name.
func departmentLess(a, b string) bool {
	ia, ib := schema.DepartmentIndex(schema.Department(a)), schema.DepartmentIndex(schema.Department(b))
	switch {
	case ia >= 0 && ib >= 0:
		return ia < ib
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	default:
		return a < b
	}
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
