// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// SyncDirection is the direction of synchronization for a personal calendar.
type SyncDirection string

const (
	SyncDirectionImportOnly    SyncDirection = "import_only"
	SyncDirectionExportOnly    SyncDirection = "export_only"
	SyncDirectionBidirectional SyncDirection = "bidirectional"
)

// Imports reports whether the direction pulls remote events in.
func (d SyncDirection) Imports() bool {
	return d == SyncDirectionImportOnly || d == SyncDirectionBidirectional
}

// Exports reports whether the direction pushes local events out.
func (d SyncDirection) Exports() bool {
	return d == SyncDirectionExportOnly || d == SyncDirectionBidirectional
}

// SyncFrequency is how often a sync row is reconciled.
type SyncFrequency string

const (
	SyncFrequencyRealTime SyncFrequency = "real_time"
	SyncFrequencyHourly   SyncFrequency = "hourly"
	SyncFrequencyDaily    SyncFrequency = "daily"
	SyncFrequencyManual   SyncFrequency = "manual"
)

// Interval returns the scheduling interval for the frequency, or zero for
// manual-only rows.
func (f SyncFrequency) Interval() time.Duration {
	switch f {
	case SyncFrequencyRealTime:
		return time.Minute
	case SyncFrequencyHourly:
		return time.Hour
	case SyncFrequencyDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// SyncStatus is the lifecycle state of a sync row.
type SyncStatus string

const (
	SyncStatusActive       SyncStatus = "active"
	SyncStatusError        SyncStatus = "error"
	SyncStatusPaused       SyncStatus = "paused"
	SyncStatusDisconnected SyncStatus = "disconnected"
)

// ConflictResolution is the policy applied when a bidirectional sync finds
// the same event changed on both sides.
type ConflictResolution string

const (
	ConflictResolutionLocalWins  ConflictResolution = "local_wins"
	ConflictResolutionRemoteWins ConflictResolution = "remote_wins"
	ConflictResolutionManual     ConflictResolution = "manual"
)

// SyncSettings is the closed set of per-sync options the reconciler reads.
type SyncSettings struct {
	ConflictResolution ConflictResolution `json:"conflict_resolution"`
	WindowPastDays     int                `json:"window_past_days,omitempty"`
	WindowFutureDays   int                `json:"window_future_days,omitempty"`
}

// PersonalCalendarSync is one row per (user, external provider) pair.
// NotifyEmail receives disconnection notices; it is captured at connect time
// because the service holds no user directory.
type PersonalCalendarSync struct {
	UID                 string        `json:"uid"`
	UserUID             string        `json:"user_uid"`
	Provider            string        `json:"provider"`
	ProviderCalendarID  string        `json:"provider_calendar_id"`
	NotifyEmail         string        `json:"notify_email,omitempty"`
	Direction           SyncDirection `json:"direction"`
	Frequency           SyncFrequency `json:"frequency"`
	Status              SyncStatus    `json:"status"`
	LastSyncAt          *time.Time    `json:"last_sync_at,omitempty"`
	ErrorMessage        string        `json:"error_message,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures,omitempty"`
	IsPrimary           bool          `json:"is_primary"`
	Settings            SyncSettings  `json:"settings"`
	CreatedAt           *time.Time    `json:"created_at,omitempty"`
	UpdatedAt           *time.Time    `json:"updated_at,omitempty"`
}

// Window returns the rolling fetch window around now, applying defaults of
// 7 days back and 90 days forward.
func (s *PersonalCalendarSync) Window(now time.Time) (time.Time, time.Time) {
	past := s.Settings.WindowPastDays
	if past <= 0 {
		past = 7
	}
	future := s.Settings.WindowFutureDays
	if future <= 0 {
		future = 90
	}
	return now.AddDate(0, 0, -past), now.AddDate(0, 0, future)
}

// RemoteEvent is a provider-neutral representation of an event fetched from
// an external personal calendar.
type RemoteEvent struct {
	ProviderEventID string     `json:"provider_event_id"`
	Title           string     `json:"title,omitempty"`
	Date            time.Time  `json:"date"`
	StartTime       *TimeOfDay `json:"start_time,omitempty"`
	EndTime         *TimeOfDay `json:"end_time,omitempty"`
	Busy            bool       `json:"busy"`
	Tentative       bool       `json:"tentative"`
	Private         bool       `json:"private"`
}
