package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edubrovskiy/task-tracker-api/internal/model"
	"github.com/edubrovskiy/task-tracker-api/internal/query"
	"github.com/edubrovskiy/task-tracker-api/internal/repo"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, spec query.Spec) ([]model.Task, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) PriorityDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]model.DistributionBucket), args.Error(1)
}

func (m *MockTaskRepository) StatusDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]model.DistributionBucket), args.Error(1)
}

func (m *MockTaskRepository) UpcomingDeadlines(ctx context.Context, owner uuid.UUID, days, limit int) ([]model.Task, error) {
	args := m.Called(ctx, owner, days, limit)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) CountTasks(ctx context.Context, owner uuid.UUID, status model.Status) (int, error) {
	args := m.Called(ctx, owner, status)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, owner uuid.UUID, key string, resourceID uuid.UUID) error {
	args := m.Called(ctx, owner, key, resourceID)
	return args.Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, owner uuid.UUID, key string) (uuid.UUID, error) {
	args := m.Called(ctx, owner, key)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func createInput() model.CreateInput {
	return model.CreateInput{
		Title:       "Write report",
		Description: "Quarterly numbers",
		DueDate:     ptr(time.Now().Add(24 * time.Hour)),
		Priority:    model.PriorityHigh,
	}
}

func TestTaskService_Create(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name      string
		input     model.CreateInput
		idempKey  string
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name:  "successful creation",
			input: createInput(),
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
					return t.OwnerID == owner && t.Title == "Write report" && t.Status == model.StatusPending
				})).Return(model.Task{ID: uuid.New(), OwnerID: owner, Title: "Write report", Status: model.StatusPending}, nil)
			},
		},
		{
			name: "validation error - missing fields",
			input: model.CreateInput{
				Title: "Only a title",
			},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   model.ErrValidation,
		},
		{
			name: "validation error - bad priority",
			input: func() model.CreateInput {
				in := createInput()
				in.Priority = "Critical"
				return in
			}(),
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   model.ErrValidation,
		},
		{
			name:     "idempotency - key exists",
			input:    createInput(),
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository) {
				existing := uuid.New()
				m.On("GetIdempotencyKey", mock.Anything, owner, "key-123").Return(existing, nil)
				m.On("Get", mock.Anything, existing).Return(model.Task{ID: existing, OwnerID: owner}, nil)
			},
		},
		{
			name:     "idempotency - new key",
			input:    createInput(),
			idempKey: "key-456",
			setupMock: func(m *MockTaskRepository) {
				created := uuid.New()
				m.On("GetIdempotencyKey", mock.Anything, owner, "key-456").Return(uuid.Nil, repo.ErrorNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(model.Task{ID: created, OwnerID: owner}, nil)
				m.On("SaveIdempotencyKey", mock.Anything, owner, "key-456", created).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := NewTaskService(mockRepo, nil, zap.NewNop())
			result, err := svc.Create(context.Background(), owner, tt.input, tt.idempKey)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, result.ID)
				assert.Equal(t, owner, result.OwnerID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Create_DefaultsPriorityLeftToValidation(t *testing.T) {
	// Priority is required on creation; the Medium default only applies at
	// the model layer, never past validation.
	mockRepo := new(MockTaskRepository)
	svc := NewTaskService(mockRepo, nil, zap.NewNop())

	in := createInput()
	in.Priority = ""
	_, err := svc.Create(context.Background(), uuid.New(), in, "")

	assert.ErrorIs(t, err, model.ErrValidation)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestTaskService_Create_IdempotencyLookupFailure(t *testing.T) {
	// A broken key lookup must not fall through to a fresh create: that would
	// duplicate the task the moment the store recovers.
	mockRepo := new(MockTaskRepository)
	lookupErr := errors.New("connection reset")
	mockRepo.On("GetIdempotencyKey", mock.Anything, mock.Anything, "key-789").Return(uuid.Nil, lookupErr)

	svc := NewTaskService(mockRepo, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), uuid.New(), createInput(), "key-789")

	assert.ErrorIs(t, err, lookupErr)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestTaskService_Create_IdempotencySaveFailure(t *testing.T) {
	// The task is already persisted when the key save fails; the caller still
	// gets the created record, the miss is only logged.
	owner := uuid.New()
	created := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("GetIdempotencyKey", mock.Anything, owner, "key-789").Return(uuid.Nil, repo.ErrorNotFound)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(model.Task{ID: created, OwnerID: owner}, nil)
	mockRepo.On("SaveIdempotencyKey", mock.Anything, owner, "key-789", created).Return(errors.New("connection reset"))

	svc := NewTaskService(mockRepo, nil, zap.NewNop())
	task, err := svc.Create(context.Background(), owner, createInput(), "key-789")

	require.NoError(t, err)
	assert.Equal(t, created, task.ID)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_Get(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name      string
		caller    uuid.UUID
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name:   "own task",
			caller: owner,
			setupMock: func(m *MockTaskRepository) {
				m.On("Get", mock.Anything, taskID).Return(model.Task{ID: taskID, OwnerID: owner}, nil)
			},
		},
		{
			name:   "missing task",
			caller: owner,
			setupMock: func(m *MockTaskRepository) {
				m.On("Get", mock.Anything, taskID).Return(model.Task{}, repo.ErrorNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name:   "another owner's task",
			caller: stranger,
			setupMock: func(m *MockTaskRepository) {
				m.On("Get", mock.Anything, taskID).Return(model.Task{ID: taskID, OwnerID: owner}, nil)
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := NewTaskService(mockRepo, nil, zap.NewNop())
			_, err := svc.Get(context.Background(), tt.caller, taskID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_List(t *testing.T) {
	owner := uuid.New()
	mockRepo := new(MockTaskRepository)

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(spec query.Spec) bool {
		return spec.Owner == owner && spec.Status == "Pending" && spec.Sort == query.SortPriority
	})).Return([]model.Task{}, nil)

	svc := NewTaskService(mockRepo, nil, zap.NewNop())
	_, err := svc.List(context.Background(), owner, query.Params{Status: "Pending", SortBy: "priority"})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_Update(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()
	due := time.Now().Add(24 * time.Hour)

	existing := model.Task{
		ID:          taskID,
		OwnerID:     owner,
		Title:       "Original",
		Description: "Original description",
		DueDate:     due,
		Priority:    model.PriorityLow,
		Status:      model.StatusPending,
	}

	t.Run("partial update merges over existing record", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(existing, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
			return t.ID == taskID &&
				t.Status == model.StatusCompleted &&
				t.Title == "Original" &&
				t.Priority == model.PriorityLow
		})).Return(existing, nil)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		_, err := svc.Update(context.Background(), owner, taskID, model.UpdateInput{
			Status: ptr(model.StatusCompleted),
		})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("merged record is re-validated", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(existing, nil)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		_, err := svc.Update(context.Background(), owner, taskID, model.UpdateInput{
			Priority: ptr(model.Priority("Critical")),
		})

		assert.ErrorIs(t, err, model.ErrValidation)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("foreign task is forbidden", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(existing, nil)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		_, err := svc.Update(context.Background(), uuid.New(), taskID, model.UpdateInput{
			Status: ptr(model.StatusCompleted),
		})

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "Update")
	})
}

func TestTaskService_Delete(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()
	existing := model.Task{ID: taskID, OwnerID: owner}

	t.Run("own task is deleted", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(existing, nil)
		mockRepo.On("Delete", mock.Anything, taskID).Return(nil)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		require.NoError(t, svc.Delete(context.Background(), owner, taskID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(model.Task{}, repo.ErrorNotFound)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		err := svc.Delete(context.Background(), owner, taskID)

		assert.ErrorIs(t, err, ErrNotFound)
		mockRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("foreign task stays intact", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, taskID).Return(existing, nil)

		svc := NewTaskService(mockRepo, nil, zap.NewNop())
		err := svc.Delete(context.Background(), uuid.New(), taskID)

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "Delete")
	})
}
