package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// WithTransaction runs fn against the mock itself so expectations set on the
// repository also apply inside the transaction.
func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

func TestAccessControl_ResolveCaller(t *testing.T) {
	alice := &model.User{ID: 7, Name: "alice", Role: model.RoleResearcher}

	tests := []struct {
		name         string
		raw          string
		setupMock    func(*MockUserRepository)
		expectedKind error
	}{
		{
			name: "known user",
			raw:  "7",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(alice, nil)
			},
		},
		{
			name:         "empty identity",
			raw:          "",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name:         "non numeric identity",
			raw:          "abc",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name:         "signed identity",
			raw:          "-7",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name:         "mixed identity",
			raw:          "7a",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name:         "zero identity",
			raw:          "0",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name:         "overflowing identity",
			raw:          "99999999999999999999999",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: errors.ErrUnauthorized,
		},
		{
			name: "unknown user",
			raw:  "42",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedKind: errors.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			access := NewAccessControl(mockRepo)
			user, err := access.ResolveCaller(context.Background(), tt.raw)

			if tt.expectedKind != nil {
				assert.ErrorIs(t, err, tt.expectedKind)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, alice, user)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAccessControl_ResolveCallerStoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, uint(3)).Return(nil, stderrors.New("connection refused"))

	user, err := NewAccessControl(mockRepo).ResolveCaller(context.Background(), "3")

	assert.Nil(t, user)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrUnauthorized)
	assert.True(t, errors.IsInternal(err))
	mockRepo.AssertExpectations(t)
}

func TestAccessControl_RequireAdmin(t *testing.T) {
	access := NewAccessControl(new(MockUserRepository))

	assert.NoError(t, access.RequireAdmin(&model.User{ID: 1, Role: model.RoleAdmin}))
	assert.ErrorIs(t, access.RequireAdmin(&model.User{ID: 2, Role: model.RoleResearcher}), errors.ErrForbidden)
	assert.ErrorIs(t, access.RequireAdmin(&model.User{ID: 3, Role: "admin"}), errors.ErrForbidden)
	assert.ErrorIs(t, access.RequireAdmin(nil), errors.ErrForbidden)
}

func TestAccessControl_RequireOwner(t *testing.T) {
	access := NewAccessControl(new(MockUserRepository))
	caller := &model.User{ID: 5}

	assert.NoError(t, access.RequireOwner(&model.ClassificationHistory{ID: 1, UserID: 5}, caller))

	foreign := access.RequireOwner(&model.ClassificationHistory{ID: 1, UserID: 6}, caller)
	absent := access.RequireOwner(nil, caller)
	assert.ErrorIs(t, foreign, errors.ErrNotFound)
	assert.Equal(t, absent, foreign)
}

func TestAccessControl_PreventSelfTarget(t *testing.T) {
	access := NewAccessControl(new(MockUserRepository))
	caller := &model.User{ID: 9, Role: model.RoleAdmin}

	assert.ErrorIs(t, access.PreventSelfTarget(caller, 9), errors.ErrInvalidOperation)
	assert.NoError(t, access.PreventSelfTarget(caller, 10))
}
