// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package providers

import (
	"fmt"
	"sync"
	"testing"

	"github.com/churchnet/calendar-service/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	require.NotNil(t, registry, "NewRegistry should return non-nil registry")

	provider, err := registry.GetProvider("nonexistent")
	assert.Nil(t, provider)
	assert.Error(t, err)
}

func TestRegistry_RegisterProvider(t *testing.T) {
	registry := NewRegistry()
	mockProvider := &mocks.MockCalendarProvider{}

	registry.RegisterProvider("google", mockProvider)

	provider, err := registry.GetProvider("google")
	require.NoError(t, err)
	assert.Equal(t, mockProvider, provider)
}

func TestRegistry_RegisterProvider_Overwrite(t *testing.T) {
	registry := NewRegistry()
	mockProvider1 := &mocks.MockCalendarProvider{}
	mockProvider2 := &mocks.MockCalendarProvider{}

	registry.RegisterProvider("google", mockProvider1)
	registry.RegisterProvider("google", mockProvider2)

	provider, err := registry.GetProvider("google")
	require.NoError(t, err)
	assert.Same(t, mockProvider2, provider, "Should return the most recently registered provider")
}

func TestRegistry_GetProvider_NotFound(t *testing.T) {
	registry := NewRegistry()

	provider, err := registry.GetProvider("apple")

	assert.Nil(t, provider)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar provider not registered")
	assert.Contains(t, err.Error(), "apple")
}

func TestRegistry_MultipleProviders(t *testing.T) {
	registry := NewRegistry()
	googleProvider := &mocks.MockCalendarProvider{}
	outlookProvider := &mocks.MockCalendarProvider{}
	icsProvider := &mocks.MockCalendarProvider{}

	registry.RegisterProvider("google", googleProvider)
	registry.RegisterProvider("outlook", outlookProvider)
	registry.RegisterProvider("ics", icsProvider)

	provider, err := registry.GetProvider("google")
	require.NoError(t, err)
	assert.Same(t, googleProvider, provider)

	provider, err = registry.GetProvider("outlook")
	require.NoError(t, err)
	assert.Same(t, outlookProvider, provider)

	provider, err = registry.GetProvider("ics")
	require.NoError(t, err)
	assert.Same(t, icsProvider, provider)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	mockProvider := &mocks.MockCalendarProvider{}

	registry.RegisterProvider("google", mockProvider)

	var wg sync.WaitGroup
	iterations := 100

	errs := make(chan error, iterations)

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.GetProvider("google")
			errs <- err
		}()
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			registry.RegisterProvider(fmt.Sprintf("provider%d", idx), &mocks.MockCalendarProvider{})
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
