// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// CalendarProvider defines the interface for external personal-calendar
// integrations. Implementations must honor the context deadline and must not
// be called while a storage transaction is open.
type CalendarProvider interface {
	// ListEvents fetches remote events within the window.
	ListEvents(ctx context.Context, providerCalendarID string, from, to time.Time) ([]models.RemoteEvent, error)

	// SupportsPush reports whether the provider accepts pushed events.
	SupportsPush() bool

	// PushEvent writes a local event to the remote calendar. Providers that
	// return false from SupportsPush may return an error unconditionally.
	PushEvent(ctx context.Context, providerCalendarID string, event *models.CalendarEvent) error
}

// ProviderRegistry manages calendar providers by provider name.
type ProviderRegistry interface {
	GetProvider(provider string) (CalendarProvider, error)
	RegisterProvider(provider string, adapter CalendarProvider)
}
