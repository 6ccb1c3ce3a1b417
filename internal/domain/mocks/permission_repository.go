// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockPermissionRepository implements PermissionRepository for testing
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Create(ctx context.Context, permission *models.CalendarPermission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) Get(ctx context.Context, permissionUID string) (*models.CalendarPermission, error) {
	args := m.Called(ctx, permissionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarPermission), args.Error(1)
}

func (m *MockPermissionRepository) GetWithRevision(ctx context.Context, permissionUID string) (*models.CalendarPermission, uint64, error) {
	args := m.Called(ctx, permissionUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.CalendarPermission), args.Get(1).(uint64), args.Error(2)
}

func (m *MockPermissionRepository) Update(ctx context.Context, permission *models.CalendarPermission, revision uint64) error {
	args := m.Called(ctx, permission, revision)
	return args.Error(0)
}

func (m *MockPermissionRepository) ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarPermission, error) {
	args := m.Called(ctx, calendarUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarPermission), args.Error(1)
}
