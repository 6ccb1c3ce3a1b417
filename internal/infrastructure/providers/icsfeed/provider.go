// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

// Package icsfeed implements a read-only calendar provider backed by a
// published ICS feed URL. It is the integration path for providers that
// expose subscription links (Apple iCloud, most church management tools).
package icsfeed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/pkg/constants"
)

// ProviderName is the registry name for ICS feed subscriptions.
const ProviderName = "ics"

// maxFeedBytes caps the response size read from a feed.
const maxFeedBytes = 10 << 20

// Provider fetches and parses a remote ICS feed. The provider calendar ID
// is the feed URL itself.
type Provider struct {
	httpClient *http.Client
}

// NewProvider creates a new ICS feed provider.
func NewProvider() *Provider {
	return &Provider{
		httpClient: &http.Client{
			Timeout: constants.ProviderFetchTimeout,
		},
	}
}

// Ensure Provider implements the domain interface.
var _ domain.CalendarProvider = (*Provider)(nil)

// SupportsPush reports whether events can be written back. ICS feeds are
// one-way.
func (p *Provider) SupportsPush() bool {
	return false
}

// PushEvent is unsupported for ICS feeds.
func (p *Provider) PushEvent(ctx context.Context, providerCalendarID string, event *models.CalendarEvent) error {
	return domain.NewValidationError("ics feed provider does not support pushing events")
}

// ListEvents fetches the feed and returns the occurrences within [from, to].
// Recurring VEVENTs are expanded; EXDATEs are honored.
func (p *Provider) ListEvents(ctx context.Context, providerCalendarID string, from, to time.Time) ([]models.RemoteEvent, error) {
	body, err := p.fetch(ctx, providerCalendarID)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "error parsing ICS feed", logging.ErrKey, err)
		return nil, domain.NewExternalProviderError("failed to parse ICS feed", err)
	}

	var remote []models.RemoteEvent
	for _, ve := range cal.Events() {
		events, err := expandVEvent(ve, from, to)
		if err != nil {
			// Skip the broken VEVENT but keep the rest of the feed.
			slog.WarnContext(ctx, "skipping unparsable VEVENT", logging.ErrKey, err)
			continue
		}
		remote = append(remote, events...)
	}

	slog.DebugContext(ctx, "fetched ICS feed",
		"event_count", len(remote),
		"window_from", from,
		"window_to", to,
	)
	return remote, nil
}

func (p *Provider) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, domain.NewValidationError("invalid ICS feed URL", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "error fetching ICS feed", logging.ErrKey, err)
		return nil, domain.NewExternalProviderError("failed to fetch ICS feed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.WarnContext(ctx, "error closing ICS feed response body", logging.ErrKey, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalProviderError(
			fmt.Sprintf("ICS feed returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, domain.NewExternalProviderError("failed to read ICS feed body", err)
	}
	return body, nil
}

// expandVEvent converts one VEVENT into the remote events occurring within
// [from, to], expanding its RRULE when present.
func expandVEvent(ve *ical.VEvent, from, to time.Time) ([]models.RemoteEvent, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, fmt.Errorf("VEVENT missing UID")
	}
	uid := uidProp.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("VEVENT %s: %w", uid, err)
	}
	end, _ := ve.GetEndAt()
	if end.IsZero() {
		end = start
	}

	allDay := isAllDay(ve)
	busy := isBusy(ve)
	tentative := isTentative(ve)
	private := isPrivate(ve)
	title := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		title = p.Value
	}

	build := func(occStart time.Time, occurrence int) models.RemoteEvent {
		event := models.RemoteEvent{
			ProviderEventID: uid,
			Title:           title,
			Date:            time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, time.UTC),
			Busy:            busy,
			Tentative:       tentative,
			Private:         private,
		}
		if occurrence > 0 {
			event.ProviderEventID = fmt.Sprintf("%s:%d", uid, occurrence)
		}
		if !allDay {
			startTOD := models.TimeOfDay(occStart.Hour()*60 + occStart.Minute())
			endTOD := startTOD + models.TimeOfDay(end.Sub(start)/time.Minute)
			if endTOD > models.TimeOfDay(constants.MaxEventDurationMinutes) {
				endTOD = models.TimeOfDay(constants.MaxEventDurationMinutes)
			}
			event.StartTime = &startTOD
			event.EndTime = &endTOD
		}
		return event
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || rruleProp.Value == "" {
		if start.Before(from) || start.After(to) {
			return nil, nil
		}
		return []models.RemoteEvent{build(start, 0)}, nil
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("VEVENT %s: invalid RRULE: %w", uid, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	occTimes := set.Between(from.In(start.Location()), to.In(start.Location()), true)
	if len(occTimes) > constants.MaxOccurrencesPerQuery {
		occTimes = occTimes[:constants.MaxOccurrencesPerQuery]
	}

	events := make([]models.RemoteEvent, 0, len(occTimes))
	for i, occStart := range occTimes {
		events = append(events, build(occStart, i+1))
	}
	return events, nil
}

func isAllDay(ve *ical.VEvent) bool {
	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return false
	}
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(dtStartProp.Value, "T")
}

func isBusy(ve *ical.VEvent) bool {
	if p := ve.GetProperty("TRANSP"); p != nil {
		return !strings.EqualFold(p.Value, "TRANSPARENT")
	}
	return true
}

func isTentative(ve *ical.VEvent) bool {
	if p := ve.GetProperty("STATUS"); p != nil {
		return strings.EqualFold(p.Value, "TENTATIVE")
	}
	return false
}

func isPrivate(ve *ical.VEvent) bool {
	if p := ve.GetProperty("CLASS"); p != nil {
		return strings.EqualFold(p.Value, "PRIVATE") || strings.EqualFold(p.Value, "CONFIDENTIAL")
	}
	return false
}

func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime parses the basic ICS DATE / DATE-TIME / UTC forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
