// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

// MockCalendarProvider implements CalendarProvider for testing
type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) ListEvents(ctx context.Context, providerCalendarID string, from, to time.Time) ([]models.RemoteEvent, error) {
	args := m.Called(ctx, providerCalendarID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RemoteEvent), args.Error(1)
}

func (m *MockCalendarProvider) SupportsPush() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCalendarProvider) PushEvent(ctx context.Context, providerCalendarID string, event *models.CalendarEvent) error {
	args := m.Called(ctx, providerCalendarID, event)
	return args.Error(0)
}

// MockProviderRegistry implements ProviderRegistry for testing
type MockProviderRegistry struct {
	mock.Mock
}

func (m *MockProviderRegistry) GetProvider(provider string) (domain.CalendarProvider, error) {
	args := m.Called(provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.CalendarProvider), args.Error(1)
}

func (m *MockProviderRegistry) RegisterProvider(provider string, adapter domain.CalendarProvider) {
	m.Called(provider, adapter)
}
