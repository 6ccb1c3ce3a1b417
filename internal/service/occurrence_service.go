// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/pkg/constants"
)

// OccurrenceService expands recurring events lazily over a query window.
// Occurrences are computed on read and never persisted unless an instance
// diverges from its parent.
type OccurrenceService struct{}

// NewOccurrenceService creates a new OccurrenceService.
func NewOccurrenceService() *OccurrenceService {
	return &OccurrenceService{}
}

var _ domain.OccurrenceExpander = (*OccurrenceService)(nil)

var rruleFrequencies = map[models.RecurrenceFrequency]rrule.Frequency{
	models.RecurrenceDaily:   rrule.DAILY,
	models.RecurrenceWeekly:  rrule.WEEKLY,
	models.RecurrenceMonthly: rrule.MONTHLY,
}

// rruleWeekdays maps Go weekday numbers (0=Sunday) to rrule weekdays.
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// ExpandRange returns the occurrences of the event whose dates fall in
// [from, to], capped at limit. Non-recurring events yield at most their own
// date; materialized instances are never expanded.
func (s *OccurrenceService) ExpandRange(event *models.CalendarEvent, from, to time.Time, limit int) []models.Occurrence {
	if event == nil || to.Before(from) {
		return nil
	}
	if limit <= 0 || limit > constants.MaxOccurrencesPerQuery {
		limit = constants.MaxOccurrencesPerQuery
	}

	if event.Recurrence == nil || event.IsInstance() {
		date := dateOnly(event.EventDate)
		if date.Before(dateOnly(from)) || date.After(dateOnly(to)) {
			return nil
		}
		return []models.Occurrence{occurrenceOn(event, date)}
	}

	rule, err := buildRule(event)
	if err != nil {
		// An unparseable rule degrades to the parent date alone.
		return []models.Occurrence{occurrenceOn(event, dateOnly(event.EventDate))}
	}

	occurrences := []models.Occurrence{}
	for _, date := range rule.Between(startOfDay(from), endOfDay(to), true) {
		occurrences = append(occurrences, occurrenceOn(event, dateOnly(date)))
		if len(occurrences) >= limit {
			break
		}
	}
	return occurrences
}

func buildRule(event *models.CalendarEvent) (*rrule.RRule, error) {
	recurrence := event.Recurrence
	freq, ok := rruleFrequencies[recurrence.Frequency]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence frequency %q", recurrence.Frequency)
	}

	option := rrule.ROption{
		Freq:     freq,
		Interval: recurrence.Interval,
		Dtstart:  startOfDay(event.EventDate),
		Count:    recurrence.Count,
	}
	if recurrence.Until != nil {
		option.Until = endOfDay(*recurrence.Until)
	}
	for _, day := range recurrence.WeekDays {
		if day >= 0 && day < len(rruleWeekdays) {
			option.Byweekday = append(option.Byweekday, rruleWeekdays[day])
		}
	}

	return rrule.NewRRule(option)
}

func occurrenceOn(event *models.CalendarEvent, date time.Time) models.Occurrence {
	return models.Occurrence{
		ParentEventUID: event.UID,
		OccurrenceID:   fmt.Sprintf("%s:%s", event.UID, date.Format("20060102")),
		EventDate:      date,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		Title:          event.Title,
		Location:       event.Location,
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func startOfDay(t time.Time) time.Time {
	return dateOnly(t)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}
