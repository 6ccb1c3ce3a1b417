// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import (
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// OccurrenceExpander expands a recurring event into concrete occurrences.
// Expansion is always bounded by a window or limit; unbounded materialization
// is never allowed.
type OccurrenceExpander interface {
	// ExpandRange returns the occurrences of the event whose dates fall in
	// [from, to], capped at limit.
	ExpandRange(event *models.CalendarEvent, from, to time.Time, limit int) []models.Occurrence
}
