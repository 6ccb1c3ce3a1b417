// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package oauthcal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
)

// Provider adapts a hosted calendar API to the CalendarProvider interface.
type Provider struct {
	client *Client
}

// NewProvider creates a provider backed by the given API configuration.
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Ensure Provider implements the domain interface.
var _ domain.CalendarProvider = (*Provider)(nil)

// remoteEventPayload is the wire format for events on the provider API.
type remoteEventPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	Date      string            `json:"date"`
	StartTime *models.TimeOfDay `json:"start_time,omitempty"`
	EndTime   *models.TimeOfDay `json:"end_time,omitempty"`
	Busy      bool              `json:"busy"`
	Tentative bool              `json:"tentative"`
	Private   bool              `json:"private"`
}

type listEventsResponse struct {
	Events []remoteEventPayload `json:"events"`
}

// SupportsPush reports whether events can be written back. Hosted APIs
// accept pushed events.
func (p *Provider) SupportsPush() bool {
	return true
}

// ListEvents fetches remote events within the window.
func (p *Provider) ListEvents(ctx context.Context, providerCalendarID string, from, to time.Time) ([]models.RemoteEvent, error) {
	path := fmt.Sprintf("/calendars/%s/events?from=%s&to=%s",
		url.PathEscape(providerCalendarID),
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)),
	)

	resp, err := p.client.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		slog.ErrorContext(ctx, "error listing provider events", logging.ErrKey, err,
			"provider", p.client.config.Name)
		return nil, domain.NewExternalProviderError("failed to list provider events", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.WarnContext(ctx, "error closing provider response body", logging.ErrKey, closeErr)
		}
	}()

	var payload listEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		slog.ErrorContext(ctx, "error decoding provider events", logging.ErrKey, err,
			"provider", p.client.config.Name)
		return nil, domain.NewExternalProviderError("failed to decode provider events", err)
	}

	events := make([]models.RemoteEvent, 0, len(payload.Events))
	for _, item := range payload.Events {
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			slog.WarnContext(ctx, "skipping provider event with invalid date",
				logging.ErrKey, err, "provider_event_id", item.ID)
			continue
		}
		events = append(events, models.RemoteEvent{
			ProviderEventID: item.ID,
			Title:           item.Title,
			Date:            date,
			StartTime:       item.StartTime,
			EndTime:         item.EndTime,
			Busy:            item.Busy,
			Tentative:       item.Tentative,
			Private:         item.Private,
		})
	}

	return events, nil
}

// PushEvent writes a local event to the remote calendar.
func (p *Provider) PushEvent(ctx context.Context, providerCalendarID string, event *models.CalendarEvent) error {
	payload := remoteEventPayload{
		ID:        event.UID,
		Title:     event.Title,
		Date:      event.EventDate.UTC().Format("2006-01-02"),
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Busy:      true,
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(providerCalendarID))
	resp, err := p.client.doRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		slog.ErrorContext(ctx, "error pushing event to provider", logging.ErrKey, err,
			"provider", p.client.config.Name, "event_uid", event.UID)
		return domain.NewExternalProviderError("failed to push event to provider", err)
	}
	if closeErr := resp.Body.Close(); closeErr != nil {
		slog.WarnContext(ctx, "error closing provider response body", logging.ErrKey, closeErr)
	}

	return nil
}
