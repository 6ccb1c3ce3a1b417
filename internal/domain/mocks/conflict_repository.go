// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockConflictRepository implements ConflictRepository for testing
type MockConflictRepository struct {
	mock.Mock
}

func (m *MockConflictRepository) Create(ctx context.Context, conflict *models.EventConflict) error {
	args := m.Called(ctx, conflict)
	return args.Error(0)
}

func (m *MockConflictRepository) Get(ctx context.Context, conflictUID string) (*models.EventConflict, error) {
	args := m.Called(ctx, conflictUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventConflict), args.Error(1)
}

func (m *MockConflictRepository) GetWithRevision(ctx context.Context, conflictUID string) (*models.EventConflict, uint64, error) {
	args := m.Called(ctx, conflictUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.EventConflict), args.Get(1).(uint64), args.Error(2)
}

func (m *MockConflictRepository) Update(ctx context.Context, conflict *models.EventConflict, revision uint64) error {
	args := m.Called(ctx, conflict, revision)
	return args.Error(0)
}

func (m *MockConflictRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventConflict), args.Error(1)
}

func (m *MockConflictRepository) ListOpenByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventConflict), args.Error(1)
}
