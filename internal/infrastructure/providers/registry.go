// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package providers

import (
	"sync"

	"github.com/churchnet/calendar-service/internal/domain"
)

// Registry implements the ProviderRegistry interface
type Registry struct {
	providers map[string]domain.CalendarProvider
	mu        sync.RWMutex
}

// NewRegistry creates a new calendar provider registry
func NewRegistry() domain.ProviderRegistry {
	return &Registry{
		providers: make(map[string]domain.CalendarProvider),
	}
}

// GetProvider returns the calendar provider for the specified provider name
func (r *Registry) GetProvider(provider string) (domain.CalendarProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.providers[provider]
	if !exists {
		return nil, domain.NewNotFoundError("calendar provider not registered: " + provider)
	}

	return adapter, nil
}

// RegisterProvider registers a calendar provider
func (r *Registry) RegisterProvider(provider string, adapter domain.CalendarProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider] = adapter
}
