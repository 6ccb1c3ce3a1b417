// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockCalendarTypeRepository implements CalendarTypeRepository for testing
type MockCalendarTypeRepository struct {
	mock.Mock
}

func (m *MockCalendarTypeRepository) Create(ctx context.Context, calendarType *models.CalendarType) error {
	args := m.Called(ctx, calendarType)
	return args.Error(0)
}

func (m *MockCalendarTypeRepository) Get(ctx context.Context, uid string) (*models.CalendarType, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarType), args.Error(1)
}

func (m *MockCalendarTypeRepository) ListAll(ctx context.Context) ([]*models.CalendarType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarType), args.Error(1)
}

// MockCalendarRepository implements CalendarRepository for testing
type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	args := m.Called(ctx, calendar)
	return args.Error(0)
}

func (m *MockCalendarRepository) Exists(ctx context.Context, calendarUID string) (bool, error) {
	args := m.Called(ctx, calendarUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCalendarRepository) Get(ctx context.Context, calendarUID string) (*models.Calendar, error) {
	args := m.Called(ctx, calendarUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Calendar), args.Error(1)
}

func (m *MockCalendarRepository) GetWithRevision(ctx context.Context, calendarUID string) (*models.Calendar, uint64, error) {
	args := m.Called(ctx, calendarUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Calendar), args.Get(1).(uint64), args.Error(2)
}

func (m *MockCalendarRepository) Update(ctx context.Context, calendar *models.Calendar, revision uint64) error {
	args := m.Called(ctx, calendar, revision)
	return args.Error(0)
}

func (m *MockCalendarRepository) ListAll(ctx context.Context) ([]*models.Calendar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Calendar), args.Error(1)
}
