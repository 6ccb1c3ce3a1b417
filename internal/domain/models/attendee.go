// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// AttendanceStatus is the RSVP state of an attendee.
// The terminal states attended/no_show are reachable only after the event
// date has passed.
type AttendanceStatus string

const (
	AttendanceInvited      AttendanceStatus = "invited"
	AttendanceMaybe        AttendanceStatus = "maybe"
	AttendanceAttending    AttendanceStatus = "attending"
	AttendanceNotAttending AttendanceStatus = "not_attending"
	AttendanceAttended     AttendanceStatus = "attended"
	AttendanceNoShow       AttendanceStatus = "no_show"
)

// ValidAttendanceStatuses contains all valid attendance status values.
var ValidAttendanceStatuses = map[AttendanceStatus]bool{
	AttendanceInvited:      true,
	AttendanceMaybe:        true,
	AttendanceAttending:    true,
	AttendanceNotAttending: true,
	AttendanceAttended:     true,
	AttendanceNoShow:       true,
}

// IsValid returns true if the status is a known valid value.
func (s AttendanceStatus) IsValid() bool {
	return ValidAttendanceStatuses[s]
}

// IsTerminal reports whether the status is a post-event terminal state.
func (s AttendanceStatus) IsTerminal() bool {
	return s == AttendanceAttended || s == AttendanceNoShow
}

// CanTransitionTo reports whether a status change is allowed at the given
// time relative to the event date.
func (s AttendanceStatus) CanTransitionTo(next AttendanceStatus, eventDate, now time.Time) error {
	if !next.IsValid() {
		return fmt.Errorf("unknown attendance status %q", next)
	}
	if s.IsTerminal() {
		return fmt.Errorf("attendance status %q is terminal", s)
	}
	if next.IsTerminal() && now.Before(endOfDay(eventDate)) {
		return fmt.Errorf("status %q is only reachable after the event date", next)
	}
	return nil
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, day.Location())
}

// EventAttendee is a registration/RSVP row bound to one event.
type EventAttendee struct {
	UID       string           `json:"uid"`
	EventUID  string           `json:"event_uid"`
	UserUID   string           `json:"user_uid"`
	Name      string           `json:"name,omitempty"`
	Email     string           `json:"email,omitempty"`
	Required  bool             `json:"required"`
	Status    AttendanceStatus `json:"status"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

// CountsTowardCapacity reports whether the attendee occupies a seat when the
// event has a max attendee cap. The attendee count of an event is always
// derived from these rows, never stored on the event itself.
func (a *EventAttendee) CountsTowardCapacity() bool {
	return a != nil && (a.Status == AttendanceAttending || a.Status == AttendanceAttended)
}
