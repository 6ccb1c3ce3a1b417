// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockMessageBuilder implements MessageBuilder for testing
type MockMessageBuilder struct {
	mock.Mock
}

func (m *MockMessageBuilder) SendIndexCalendar(ctx context.Context, action models.MessageAction, data models.Calendar) error {
	args := m.Called(ctx, action, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendIndexEvent(ctx context.Context, action models.MessageAction, data models.CalendarEvent) error {
	args := m.Called(ctx, action, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendIndexConflict(ctx context.Context, action models.MessageAction, data models.EventConflict) error {
	args := m.Called(ctx, action, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendApprovalNotification(ctx context.Context, data models.ApprovalNotification) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendSyncNotification(ctx context.Context, data models.SyncNotification) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}
