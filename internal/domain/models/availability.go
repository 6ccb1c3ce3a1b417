// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// AvailabilityType classifies a personal availability block.
type AvailabilityType string

const (
	AvailabilityBusy        AvailabilityType = "busy"
	AvailabilityFree        AvailabilityType = "free"
	AvailabilityTentative   AvailabilityType = "tentative"
	AvailabilityOutOfOffice AvailabilityType = "out_of_office"
)

// Blocks reports whether the availability type blocks scheduling.
func (t AvailabilityType) Blocks() bool {
	return t == AvailabilityBusy || t == AvailabilityOutOfOffice
}

// AvailabilitySourceManual marks blocks entered by the user directly;
// AvailabilitySourceChurchEvent marks blocks derived from published church
// events. All other sources are provider names.
const (
	AvailabilitySourceManual      = "manual"
	AvailabilitySourceChurchEvent = "church_event"
)

// PersonalAvailability is a derived busy/free block. Rows from a given
// source are replaced atomically on every successful sync cycle; they are
// never edited in place.
type PersonalAvailability struct {
	UID       string           `json:"uid"`
	UserUID   string           `json:"user_uid"`
	Date      time.Time        `json:"date"`
	StartTime *TimeOfDay       `json:"start_time,omitempty"`
	EndTime   *TimeOfDay       `json:"end_time,omitempty"`
	Type      AvailabilityType `json:"type"`
	Source    string           `json:"source"`
	// SourceEventUID is a back-reference only, never an ownership edge.
	SourceEventUID string `json:"source_event_uid,omitempty"`
	IsPrivate      bool   `json:"is_private"`
	// Title is exposed only when the block is not private.
	Title     string     `json:"title,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Masked returns a copy safe to expose to other users: private blocks keep
// only their busy/free classification.
func (a PersonalAvailability) Masked() PersonalAvailability {
	if a.IsPrivate {
		a.Title = ""
		a.SourceEventUID = ""
	}
	return a
}

// OverlapsTime reports whether the block overlaps [start, end) on the given
// date. All-day blocks overlap any time on their date.
func (a *PersonalAvailability) OverlapsTime(date time.Time, start, end *TimeOfDay) bool {
	ay, am, ad := a.Date.Date()
	by, bm, bd := date.Date()
	if ay != by || am != bm || ad != bd {
		return false
	}
	if a.StartTime == nil || a.EndTime == nil || start == nil || end == nil {
		return true
	}
	return Overlaps(*a.StartTime, *a.EndTime, *start, *end)
}
