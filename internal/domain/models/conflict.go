// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// ConflictType classifies how two schedulings collide.
type ConflictType string

const (
	ConflictTypeTimeOverlap ConflictType = "time_overlap"
	ConflictTypeResource    ConflictType = "resource_conflict"
	ConflictTypePerson      ConflictType = "person_conflict"
	ConflictTypeLocation    ConflictType = "location_conflict"
)

// ConflictSeverity ranks how serious a conflict is. Critical conflicts block
// approval transitions; the rest merely warn.
type ConflictSeverity string

const (
	ConflictSeverityMinor    ConflictSeverity = "minor"
	ConflictSeverityMajor    ConflictSeverity = "major"
	ConflictSeverityCritical ConflictSeverity = "critical"
)

var conflictSeverityRanks = map[ConflictSeverity]int{
	ConflictSeverityMinor:    1,
	ConflictSeverityMajor:    2,
	ConflictSeverityCritical: 3,
}

// Rank returns the severity ordering, highest is most severe.
func (s ConflictSeverity) Rank() int {
	return conflictSeverityRanks[s]
}

// ConflictResolutionStatus is the human resolution state of a conflict.
type ConflictResolutionStatus string

const (
	ConflictUnresolved   ConflictResolutionStatus = "unresolved"
	ConflictAcknowledged ConflictResolutionStatus = "acknowledged"
	ConflictResolved     ConflictResolutionStatus = "resolved"
	ConflictIgnored      ConflictResolutionStatus = "ignored"
)

// ValidConflictResolutionStatuses contains all valid resolution status values.
var ValidConflictResolutionStatuses = map[ConflictResolutionStatus]bool{
	ConflictUnresolved:   true,
	ConflictAcknowledged: true,
	ConflictResolved:     true,
	ConflictIgnored:      true,
}

// IsValid returns true if the resolution status is a known valid value.
func (s ConflictResolutionStatus) IsValid() bool {
	return ValidConflictResolutionStatuses[s]
}

// IsOpen reports whether the conflict still needs attention.
func (s ConflictResolutionStatus) IsOpen() bool {
	return s == ConflictUnresolved || s == ConflictAcknowledged
}

// EventConflict is the output of conflict detection. Created by the detector,
// mutated only by resolution actions from an authorized actor.
type EventConflict struct {
	UID                 string                   `json:"uid"`
	EventUID            string                   `json:"event_uid"`
	ConflictingEventUID string                   `json:"conflicting_event_uid,omitempty"`
	UserUID             string                   `json:"user_uid,omitempty"`
	Type                ConflictType             `json:"type"`
	Severity            ConflictSeverity         `json:"severity"`
	Resolution          ConflictResolutionStatus `json:"resolution"`
	Detail              string                   `json:"detail,omitempty"`
	CreatedAt           *time.Time               `json:"created_at,omitempty"`
	UpdatedAt           *time.Time               `json:"updated_at,omitempty"`
}

// PairKey returns an order-independent key for the two events involved so a
// conflict detected from either side dedupes to the same record.
func (c *EventConflict) PairKey() string {
	a, b := c.EventUID, c.ConflictingEventUID
	if b != "" && b < a {
		a, b = b, a
	}
	if c.UserUID != "" {
		return fmt.Sprintf("%s|%s|%s|%s", string(c.Type), a, b, c.UserUID)
	}
	return fmt.Sprintf("%s|%s|%s", string(c.Type), a, b)
}
