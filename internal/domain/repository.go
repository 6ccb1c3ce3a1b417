// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// CalendarTypeRepository defines storage operations for the calendar type
// taxonomy. Types are seeded administratively and read-only afterwards.
type CalendarTypeRepository interface {
	Create(ctx context.Context, calendarType *models.CalendarType) error
	Get(ctx context.Context, uid string) (*models.CalendarType, error)
	ListAll(ctx context.Context) ([]*models.CalendarType, error)
}

// CalendarRepository defines the interface for calendar storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type CalendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) error
	Exists(ctx context.Context, calendarUID string) (bool, error)
	Get(ctx context.Context, calendarUID string) (*models.Calendar, error)
	GetWithRevision(ctx context.Context, calendarUID string) (*models.Calendar, uint64, error)
	Update(ctx context.Context, calendar *models.Calendar, revision uint64) error
	ListAll(ctx context.Context) ([]*models.Calendar, error)
}

// EventRepository defines the interface for event storage operations.
type EventRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	Exists(ctx context.Context, eventUID string) (bool, error)
	Get(ctx context.Context, eventUID string) (*models.CalendarEvent, error)
	GetWithRevision(ctx context.Context, eventUID string) (*models.CalendarEvent, uint64, error)
	Update(ctx context.Context, event *models.CalendarEvent, revision uint64) error
	ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarEvent, error)
	ListByDateRange(ctx context.Context, calendarUIDs []string, from, to time.Time) ([]*models.CalendarEvent, error)
	ListAll(ctx context.Context) ([]*models.CalendarEvent, error)
}

// ApprovalRepository stores the immutable approval audit trail.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *models.EventApproval) error
	ListByEvent(ctx context.Context, eventUID string) ([]*models.EventApproval, error)
}

// PermissionRepository defines the interface for permission grant storage.
type PermissionRepository interface {
	Create(ctx context.Context, permission *models.CalendarPermission) error
	Get(ctx context.Context, permissionUID string) (*models.CalendarPermission, error)
	GetWithRevision(ctx context.Context, permissionUID string) (*models.CalendarPermission, uint64, error)
	Update(ctx context.Context, permission *models.CalendarPermission, revision uint64) error
	ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarPermission, error)
}

// AttendeeRepository defines the interface for attendee/RSVP storage.
type AttendeeRepository interface {
	Create(ctx context.Context, attendee *models.EventAttendee) error
	Get(ctx context.Context, attendeeUID string) (*models.EventAttendee, error)
	GetWithRevision(ctx context.Context, attendeeUID string) (*models.EventAttendee, uint64, error)
	Update(ctx context.Context, attendee *models.EventAttendee, revision uint64) error
	ListByEvent(ctx context.Context, eventUID string) ([]*models.EventAttendee, error)
	ListByUser(ctx context.Context, userUID string) ([]*models.EventAttendee, error)
}

// SyncRepository defines the interface for personal calendar sync rows.
type SyncRepository interface {
	Create(ctx context.Context, sync *models.PersonalCalendarSync) error
	Get(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, error)
	GetWithRevision(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, uint64, error)
	Update(ctx context.Context, sync *models.PersonalCalendarSync, revision uint64) error
	ListByUser(ctx context.Context, userUID string) ([]*models.PersonalCalendarSync, error)
	ListActive(ctx context.Context) ([]*models.PersonalCalendarSync, error)
}

// AvailabilityRepository stores derived availability blocks.
type AvailabilityRepository interface {
	// ReplaceForSource atomically swaps every block for (user, source) with
	// the given set. Replaying the same set is a no-op, which is what makes
	// sync cycles idempotent.
	ReplaceForSource(ctx context.Context, userUID, source string, blocks []*models.PersonalAvailability) error
	ListByUser(ctx context.Context, userUID string) ([]*models.PersonalAvailability, error)
	ListByUserAndSource(ctx context.Context, userUID, source string) ([]*models.PersonalAvailability, error)
}

// ConflictRepository defines the interface for detected conflict storage.
type ConflictRepository interface {
	Create(ctx context.Context, conflict *models.EventConflict) error
	Get(ctx context.Context, conflictUID string) (*models.EventConflict, error)
	GetWithRevision(ctx context.Context, conflictUID string) (*models.EventConflict, uint64, error)
	Update(ctx context.Context, conflict *models.EventConflict, revision uint64) error
	ListByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error)
	ListOpenByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error)
}
