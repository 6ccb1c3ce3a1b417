// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain"
)

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendApprovalRequested(ctx context.Context, notice domain.ApprovalNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) SendEventApproved(ctx context.Context, notice domain.ApprovalNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) SendEventRejected(ctx context.Context, notice domain.ApprovalNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) SendSyncDisconnected(ctx context.Context, notice domain.SyncDisconnectedNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
