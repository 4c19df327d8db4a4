package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

type cellKey struct {
	department schema.Department
	kind       schema.SlotKind
	question   int
}

type analysisKey struct {
	kind   schema.AnalysisType
	target string
}

// MemoryStore keeps everything in process memory. It backs the "none" backend and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	departments   []schema.Department
	cells         map[cellKey]schema.Cell
	orgCells      map[int]schema.Cell
	users         map[string]schema.User
	sessions      map[string]schema.Session
	textResponses []schema.TextResponse
	analyses      map[analysisKey]schema.AnalysisRecord
	now           func() time.Time
}

var _ contract.SurveyStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty store seeded with every department.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		departments: slices.Clone(schema.AllDepartments),
		cells:       make(map[cellKey]schema.Cell),
		orgCells:    make(map[int]schema.Cell),
		users:       make(map[string]schema.User),
		sessions:    make(map[string]schema.Session),
		analyses:    make(map[analysisKey]schema.AnalysisRecord),
		now:         time.Now,
	}
}

// RemoveDepartment drops a department row, as an administrator would.
func (m *MemoryStore) RemoveDepartment(department schema.Department) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments = slices.DeleteFunc(m.departments, func(d schema.Department) bool { return d == department })
}

// SetCell overwrites one department cell.
func (m *MemoryStore) SetCell(department schema.Department, kind schema.SlotKind, question int, cell schema.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells[cellKey{department, kind, question}] = cell
}

// SetOrganizationCell overwrites one organization-wide cell.
func (m *MemoryStore) SetOrganizationCell(question int, cell schema.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgCells[question] = cell
}

// GetDepartmentAccumulator implements contract.AccumulatorReader.
func (m *MemoryStore) GetDepartmentAccumulator(_ context.Context, department schema.Department) (schema.DepartmentAccumulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !slices.Contains(m.departments, department) {
		return schema.DepartmentAccumulator{}, contract.NewNotFoundError("department", string(department))
	}
	return m.accumulatorLocked(department), nil
}

// ListDepartmentAccumulators implements contract.AccumulatorReader.
func (m *MemoryStore) ListDepartmentAccumulators(_ context.Context) ([]schema.DepartmentAccumulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]schema.DepartmentAccumulator, 0, len(m.departments))
	for _, dept := range m.departments {
		result = append(result, m.accumulatorLocked(dept))
	}
	return result, nil
}

func (m *MemoryStore) accumulatorLocked(department schema.Department) schema.DepartmentAccumulator {
	acc := newDepartmentAccumulator(department)
	for key, cell := range m.cells {
		if key.department != department {
			continue
		}
		if key.kind == schema.OwnSlot {
			acc.Own[key.question] = cell
		} else {
			acc.Peer[key.question] = cell
		}
	}
	return acc
}

// GetOrganizationAccumulator implements contract.AccumulatorReader.
func (m *MemoryStore) GetOrganizationAccumulator(_ context.Context) (schema.OrganizationAccumulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc := schema.OrganizationAccumulator{Cells: make(map[int]schema.Cell, len(m.orgCells))}
	for q, cell := range m.orgCells {
		acc.Cells[q] = cell
	}
	return acc, nil
}

// ApplySubmission implements contract.SubmissionWriter.
func (m *MemoryStore) ApplySubmission(_ context.Context, userID string, plan schema.SubmissionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return contract.NewNotFoundError("user", userID)
	}
	if user.HasCompleted {
		return contract.ErrAlreadyCompleted
	}

	for _, inc := range plan.Cells {
		key := cellKey{inc.Department, inc.Kind, inc.Question}
		cell := m.cells[key]
		cell.Sum += int64(inc.Score)
		cell.Count++
		m.cells[key] = cell
	}
	for _, inc := range plan.Organization {
		cell := m.orgCells[inc.Question]
		cell.Sum += int64(inc.Score)
		cell.Count++
		m.orgCells[inc.Question] = cell
	}
	now := m.now().UTC()
	for _, resp := range plan.TextResponses {
		resp.CreatedAt = now
		m.textResponses = append(m.textResponses, resp)
	}

	user.HasCompleted = true
	user.CompletedAt = &now
	m.users[userID] = user
	return nil
}

// ListTextResponses implements contract.TextResponseStore.
func (m *MemoryStore) ListTextResponses(_ context.Context, questions []int) ([]schema.TextResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []schema.TextResponse
	for _, resp := range m.textResponses {
		if len(questions) == 0 || slices.Contains(questions, resp.Question) {
			result = append(result, resp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Question < result[j].Question })
	return result, nil
}

// CreateUser implements contract.UserStore.
func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash string, isAdmin bool) (schema.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return schema.User{}, contract.NewInputError("username", "already exists: "+username)
		}
	}
	user := schema.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    m.now().UTC(),
	}
	m.users[user.ID] = user
	return user, nil
}

// GetUser implements contract.UserStore.
func (m *MemoryStore) GetUser(_ context.Context, id string) (schema.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return schema.User{}, contract.NewNotFoundError("user", id)
	}
	return user, nil
}

// GetUserByUsername implements contract.UserStore.
func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (schema.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return schema.User{}, contract.NewNotFoundError("user", username)
}

// ListUsers implements contract.UserStore.
func (m *MemoryStore) ListUsers(_ context.Context) ([]schema.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]schema.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// CreateSession implements contract.SessionStore.
func (m *MemoryStore) CreateSession(_ context.Context, session schema.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = session
	return nil
}

// GetSession implements contract.SessionStore.
func (m *MemoryStore) GetSession(_ context.Context, token string) (schema.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return schema.Session{}, contract.NewNotFoundError("session", "")
	}
	if !session.ExpiresAt.After(m.now()) {
		delete(m.sessions, token)
		return schema.Session{}, contract.NewNotFoundError("session", "")
	}
	return session, nil
}

// DeleteSession implements contract.SessionStore.
func (m *MemoryStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// GetAnalysis implements contract.AnalysisStore.
func (m *MemoryStore) GetAnalysis(_ context.Context, analysisType schema.AnalysisType, target string) (schema.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.analyses[analysisKey{analysisType, target}]
	if !ok {
		return schema.AnalysisRecord{}, contract.NewNotFoundError("analysis", string(analysisType)+"/"+target)
	}
	return record, nil
}

// SaveAnalysis implements contract.AnalysisStore.
func (m *MemoryStore) SaveAnalysis(_ context.Context, analysisType schema.AnalysisType, target, content string) (schema.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	key := analysisKey{analysisType, target}
	record, ok := m.analyses[key]
	if !ok {
		record = schema.AnalysisRecord{AnalysisType: analysisType, CreatedAt: now}
		if target != "" {
			t := target
			record.TargetKey = &t
		}
	}
	record.Content = content
	record.UpdatedAt = now
	m.analyses[key] = record
	return record, nil
}

// DeleteAnalysis implements contract.AnalysisStore.
func (m *MemoryStore) DeleteAnalysis(_ context.Context, analysisType schema.AnalysisType, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.analyses, analysisKey{analysisType, target})
	return nil
}

// GetStatus implements contract.SurveyStore.
func (m *MemoryStore) GetStatus(_ context.Context) (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := schema.StoreStatus{
		Backend:   string(schema.NoneBackend),
		Connected: true,
		TableSizes: map[string]int64{
			departmentsTable:       int64(len(m.departments)),
			departmentCellsTable:   int64(len(m.cells)),
			organizationCellsTable: int64(len(m.orgCells)),
			usersTable:             int64(len(m.users)),
			sessionsTable:          int64(len(m.sessions)),
			textResponsesTable:     int64(len(m.textResponses)),
			analysesTable:          int64(len(m.analyses)),
		},
	}
	for _, u := range m.users {
		if u.IsAdmin {
			continue
		}
		status.TotalUsers++
		if u.HasCompleted {
			status.CompletedUsers++
			if u.CompletedAt != nil && (status.LastSubmission == nil || u.CompletedAt.After(*status.LastSubmission)) {
				last := *u.CompletedAt
				status.LastSubmission = &last
			}
		}
	}
	return status, nil
}

// Close implements contract.SurveyStore.
func (m *MemoryStore) Close() error { return nil }
