// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockEventRepository implements EventRepository for testing
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Exists(ctx context.Context, eventUID string) (bool, error) {
	args := m.Called(ctx, eventUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) Get(ctx context.Context, eventUID string) (*models.CalendarEvent, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) GetWithRevision(ctx context.Context, eventUID string) (*models.CalendarEvent, uint64, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.CalendarEvent), args.Get(1).(uint64), args.Error(2)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.CalendarEvent, revision uint64) error {
	args := m.Called(ctx, event, revision)
	return args.Error(0)
}

func (m *MockEventRepository) ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx, calendarUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) ListByDateRange(ctx context.Context, calendarUIDs []string, from, to time.Time) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx, calendarUIDs, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) ListAll(ctx context.Context) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarEvent), args.Error(1)
}

// MockApprovalRepository implements ApprovalRepository for testing
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Create(ctx context.Context, approval *models.EventApproval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventApproval, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventApproval), args.Error(1)
}
