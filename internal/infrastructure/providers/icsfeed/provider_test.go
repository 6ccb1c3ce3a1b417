// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package icsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//Test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:single-event\r\n" +
	"DTSTAMP:20260901T000000Z\r\n" +
	"DTSTART:20260910T140000Z\r\n" +
	"DTEND:20260910T150000Z\r\n" +
	"SUMMARY:Dentist\r\n" +
	"CLASS:PRIVATE\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-event\r\n" +
	"DTSTAMP:20260901T000000Z\r\n" +
	"DTSTART:20260907T090000Z\r\n" +
	"DTEND:20260907T100000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"SUMMARY:Standup\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestProvider_SupportsPush(t *testing.T) {
	provider := NewProvider()
	assert.False(t, provider.SupportsPush())
}

func TestProvider_PushEvent_Rejected(t *testing.T) {
	provider := NewProvider()
	err := provider.PushEvent(context.Background(), "https://example.com/feed.ics", &models.CalendarEvent{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestProvider_ListEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(simpleFeed))
	}))
	defer server.Close()

	provider := NewProvider()
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	events, err := provider.ListEvents(context.Background(), server.URL, from, to)
	require.NoError(t, err)

	// 1 single event + 4 weekly occurrences.
	require.Len(t, events, 5)

	var single *models.RemoteEvent
	weekly := 0
	for i := range events {
		if events[i].ProviderEventID == "single-event" {
			single = &events[i]
		}
		if events[i].Title == "Standup" {
			weekly++
		}
	}

	require.NotNil(t, single, "expected the non-recurring event")
	assert.True(t, single.Private, "CLASS:PRIVATE must mark the event private")
	assert.True(t, single.Busy, "default TRANSP is opaque")
	require.NotNil(t, single.StartTime)
	assert.Equal(t, 14*60, int(*single.StartTime))
	require.NotNil(t, single.EndTime)
	assert.Equal(t, 15*60, int(*single.EndTime))

	assert.Equal(t, 4, weekly, "expected the weekly series expanded to its COUNT")
	for i := range events {
		if events[i].Title == "Standup" {
			assert.False(t, events[i].Busy, "TRANSP:TRANSPARENT must not count as busy")
		}
	}
}

func TestProvider_ListEvents_WindowFiltersSingleEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(simpleFeed))
	}))
	defer server.Close()

	provider := NewProvider()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	events, err := provider.ListEvents(context.Background(), server.URL, from, to)
	require.NoError(t, err)
	assert.Empty(t, events, "no occurrences fall in October")
}

func TestProvider_ListEvents_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewProvider()
	_, err := provider.ListEvents(context.Background(), server.URL,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC))

	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeExternalProvider, domain.GetErrorType(err))
}

func TestProvider_ListEvents_BadFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not an ICS feed"))
	}))
	defer server.Close()

	provider := NewProvider()
	_, err := provider.ListEvents(context.Background(), server.URL,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC))

	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeExternalProvider, domain.GetErrorType(err))
}
