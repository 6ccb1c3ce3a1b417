// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockSyncRepository implements SyncRepository for testing
type MockSyncRepository struct {
	mock.Mock
}

func (m *MockSyncRepository) Create(ctx context.Context, sync *models.PersonalCalendarSync) error {
	args := m.Called(ctx, sync)
	return args.Error(0)
}

func (m *MockSyncRepository) Get(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, error) {
	args := m.Called(ctx, syncUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PersonalCalendarSync), args.Error(1)
}

func (m *MockSyncRepository) GetWithRevision(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, uint64, error) {
	args := m.Called(ctx, syncUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.PersonalCalendarSync), args.Get(1).(uint64), args.Error(2)
}

func (m *MockSyncRepository) Update(ctx context.Context, sync *models.PersonalCalendarSync, revision uint64) error {
	args := m.Called(ctx, sync, revision)
	return args.Error(0)
}

func (m *MockSyncRepository) ListByUser(ctx context.Context, userUID string) ([]*models.PersonalCalendarSync, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PersonalCalendarSync), args.Error(1)
}

func (m *MockSyncRepository) ListActive(ctx context.Context) ([]*models.PersonalCalendarSync, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PersonalCalendarSync), args.Error(1)
}

// MockAvailabilityRepository implements AvailabilityRepository for testing
type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) ReplaceForSource(ctx context.Context, userUID, source string, blocks []*models.PersonalAvailability) error {
	args := m.Called(ctx, userUID, source, blocks)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) ListByUser(ctx context.Context, userUID string) ([]*models.PersonalAvailability, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PersonalAvailability), args.Error(1)
}

func (m *MockAvailabilityRepository) ListByUserAndSource(ctx context.Context, userUID, source string) ([]*models.PersonalAvailability, error) {
	args := m.Called(ctx, userUID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PersonalAvailability), args.Error(1)
}
