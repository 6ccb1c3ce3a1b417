// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockAttendeeRepository implements AttendeeRepository for testing
type MockAttendeeRepository struct {
	mock.Mock
}

func (m *MockAttendeeRepository) Create(ctx context.Context, attendee *models.EventAttendee) error {
	args := m.Called(ctx, attendee)
	return args.Error(0)
}

func (m *MockAttendeeRepository) Get(ctx context.Context, attendeeUID string) (*models.EventAttendee, error) {
	args := m.Called(ctx, attendeeUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventAttendee), args.Error(1)
}

func (m *MockAttendeeRepository) GetWithRevision(ctx context.Context, attendeeUID string) (*models.EventAttendee, uint64, error) {
	args := m.Called(ctx, attendeeUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.EventAttendee), args.Get(1).(uint64), args.Error(2)
}

func (m *MockAttendeeRepository) Update(ctx context.Context, attendee *models.EventAttendee, revision uint64) error {
	args := m.Called(ctx, attendee, revision)
	return args.Error(0)
}

func (m *MockAttendeeRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventAttendee, error) {
	args := m.Called(ctx, eventUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventAttendee), args.Error(1)
}

func (m *MockAttendeeRepository) ListByUser(ctx context.Context, userUID string) ([]*models.EventAttendee, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventAttendee), args.Error(1)
}
