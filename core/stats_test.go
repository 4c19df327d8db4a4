package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingUsers struct {
	contract.UserStore
}

func (failingUsers) ListUsers(context.Context) ([]schema.User, error) {
	return nil, errors.New("table locked")
}

// TestComputeResponseStats tests overall and per-department participation.
func TestComputeResponseStats(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	users := []struct {
		name      string
		admin     bool
		completed bool
	}{
		{"admin", true, true},
		{"계통운영부_직원1", false, true},
		{"계통운영부_직원2", false, false},
		{"지역협력부_직원", false, true},
		{"간부1", false, true},
		{"협력업체_직원", false, false},
	}
	for _, u := range users {
		created, err := mem.CreateUser(ctx, u.name, "hash", u.admin)
		require.NoError(t, err)
		if u.completed {
			require.NoError(t, mem.ApplySubmission(ctx, created.ID, schema.SubmissionPlan{}))
		}
	}

	stats, err := ComputeResponseStats(ctx, mem)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Overall.Total)
	assert.Equal(t, 3, stats.Overall.Completed)
	assert.InDelta(t, 60.0, stats.Overall.Rate, 1e-9)

	require.Len(t, stats.ByDepartment, 3)
	assert.Equal(t, "지역협력부", stats.ByDepartment[0].Department)
	assert.InDelta(t, 100.0, stats.ByDepartment[0].Rate, 1e-9)
	assert.Equal(t, "계통운영부", stats.ByDepartment[1].Department)
	assert.Equal(t, 2, stats.ByDepartment[1].Total)
	assert.InDelta(t, 50.0, stats.ByDepartment[1].Rate, 1e-9)
	assert.Equal(t, "협력업체", stats.ByDepartment[2].Department, "unknown prefixes sort last")
	assert.Equal(t, 0.0, stats.ByDepartment[2].Rate)
}

// TestComputeResponseStatsEmpty tests that no users means zero rates rather than NaN.
func TestComputeResponseStatsEmpty(t *testing.T) {
	stats, err := ComputeResponseStats(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Overall.Rate)
	assert.Empty(t, stats.ByDepartment)
}

// TestComputeResponseStatsStoreError tests that store failures are upstream errors.
func TestComputeResponseStatsStoreError(t *testing.T) {
	_, err := ComputeResponseStats(context.Background(), failingUsers{})
	assert.ErrorIs(t, err, contract.ErrUpstream)
}
