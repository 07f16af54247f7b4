package mocks

import (
	"context"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository interface.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) GetByName(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowDefinition), args.Error(1)
}

func (m *MockWorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowDefinition), args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	args := m.Called(ctx, definition)

	return args.Error(0)
}

// MockRunLogRepository is a mock implementation of persistence.RunLogRepository interface.
type MockRunLogRepository struct {
	mock.Mock
}

func (m *MockRunLogRepository) Append(ctx context.Context, entry *models.RunEntry) error {
	args := m.Called(ctx, entry)

	return args.Error(0)
}

func (m *MockRunLogRepository) CompletedSteps(ctx context.Context, runID string) ([]string, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRunLogRepository) LatestRun(ctx context.Context, workflowName string) (*models.RunSummary, error) {
	args := m.Called(ctx, workflowName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RunSummary), args.Error(1)
}

func (m *MockRunLogRepository) Entries(ctx context.Context, runID string) ([]*models.RunEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RunEntry), args.Error(1)
}

// MockWorkStateRepository is a mock implementation of persistence.WorkStateRepository interface.
type MockWorkStateRepository struct {
	mock.Mock
}

func (m *MockWorkStateRepository) Read(ctx context.Context) (*models.WorkState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkState), args.Error(1)
}

func (m *MockWorkStateRepository) Save(ctx context.Context, state *models.WorkState) error {
	args := m.Called(ctx, state)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Workflows *MockWorkflowRepository
	RunLog    *MockRunLogRepository
	WorkState *MockWorkStateRepository
}

// NewMockPersistence returns a MockPersistence with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Workflows: &MockWorkflowRepository{},
		RunLog:    &MockRunLogRepository{},
		WorkState: &MockWorkStateRepository{},
	}
}

func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	return m.Workflows
}

func (m *MockPersistence) RunLogRepository() persistence.RunLogRepository {
	return m.RunLog
}

func (m *MockPersistence) WorkStateRepository() persistence.WorkStateRepository {
	return m.WorkState
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// AssertExpectations asserts the expectations of every repository mock.
func (m *MockPersistence) AssertExpectations(t mock.TestingT) bool {
	return m.Mock.AssertExpectations(t) &&
		m.Workflows.AssertExpectations(t) &&
		m.RunLog.AssertExpectations(t) &&
		m.WorkState.AssertExpectations(t)
}
