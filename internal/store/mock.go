package store

import (
	"context"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSurveyStore implements the StoreManager interface.
func (m *MockStoreManager) GetSurveyStore() contract.SurveyStore {
	ret := m.Called()
	s, _ := ret.Get(0).(contract.SurveyStore)
	return s
}

// MockAccumulatorReader is a mock implementation of AccumulatorReader for testing.
type MockAccumulatorReader struct {
	mock.Mock
}

var _ contract.AccumulatorReader = &MockAccumulatorReader{} // Compile-time check

// GetDepartmentAccumulator implements the AccumulatorReader interface.
func (m *MockAccumulatorReader) GetDepartmentAccumulator(ctx context.Context, department schema.Department) (schema.DepartmentAccumulator, error) {
	args := m.Called(ctx, department)
	return args.Get(0).(schema.DepartmentAccumulator), args.Error(1)
}

// ListDepartmentAccumulators implements the AccumulatorReader interface.
func (m *MockAccumulatorReader) ListDepartmentAccumulators(ctx context.Context) ([]schema.DepartmentAccumulator, error) {
	args := m.Called(ctx)
	accs, _ := args.Get(0).([]schema.DepartmentAccumulator)
	return accs, args.Error(1)
}

// GetOrganizationAccumulator implements the AccumulatorReader interface.
func (m *MockAccumulatorReader) GetOrganizationAccumulator(ctx context.Context) (schema.OrganizationAccumulator, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.OrganizationAccumulator), args.Error(1)
}

// MockNarrator is a mock implementation of Narrator for testing.
type MockNarrator struct {
	mock.Mock
}

var _ contract.Narrator = &MockNarrator{} // Compile-time check

// Narrate implements the Narrator interface.
func (m *MockNarrator) Narrate(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

// Name implements the Narrator interface.
func (m *MockNarrator) Name() string {
	return m.Called().String(0)
}
