// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// CalendarLevel is the scope at which a calendar lives.
type CalendarLevel string

const (
	CalendarLevelNetwork  CalendarLevel = "network"
	CalendarLevelChurch   CalendarLevel = "church"
	CalendarLevelMinistry CalendarLevel = "ministry"
	CalendarLevelPersonal CalendarLevel = "personal"
)

// ValidCalendarLevels contains all valid calendar level values.
var ValidCalendarLevels = map[CalendarLevel]bool{
	CalendarLevelNetwork:  true,
	CalendarLevelChurch:   true,
	CalendarLevelMinistry: true,
	CalendarLevelPersonal: true,
}

// IsValid returns true if the level is a known valid value.
func (l CalendarLevel) IsValid() bool {
	return ValidCalendarLevels[l]
}

// CalendarType is an immutable taxonomy row seeded by administrative data.
// It is never user-mutated at runtime.
type CalendarType struct {
	UID                    string        `json:"uid"`
	Name                   string        `json:"name"`
	Level                  CalendarLevel `json:"level"`
	DefaultVisibility      Visibility    `json:"default_visibility"`
	CanShareAcrossChurches bool          `json:"can_share_across_churches"`
}

// OwnerKind discriminates the calendar owner reference.
type OwnerKind string

const (
	OwnerKindChurch   OwnerKind = "church"
	OwnerKindUser     OwnerKind = "user"
	OwnerKindMinistry OwnerKind = "ministry"
)

// OwnerRef is a tagged union identifying the single owner of a calendar.
// Exactly one owner exists per calendar; the constructors are the only
// intended way to build one.
type OwnerRef struct {
	Kind OwnerKind `json:"kind"`
	UID  string    `json:"uid"`
}

// ChurchOwner builds an owner reference for a church-owned calendar.
func ChurchOwner(uid string) OwnerRef { return OwnerRef{Kind: OwnerKindChurch, UID: uid} }

// UserOwner builds an owner reference for a personal calendar.
func UserOwner(uid string) OwnerRef { return OwnerRef{Kind: OwnerKindUser, UID: uid} }

// MinistryOwner builds an owner reference for a ministry calendar.
func MinistryOwner(uid string) OwnerRef { return OwnerRef{Kind: OwnerKindMinistry, UID: uid} }

// Validate checks the owner reference is populated and consistent with the
// calendar type level. Network calendars are church-owned (the network's
// lead church) by convention.
func (o OwnerRef) Validate(level CalendarLevel) error {
	if o.UID == "" {
		return fmt.Errorf("owner uid is required")
	}
	expected := map[CalendarLevel]OwnerKind{
		CalendarLevelNetwork:  OwnerKindChurch,
		CalendarLevelChurch:   OwnerKindChurch,
		CalendarLevelMinistry: OwnerKindMinistry,
		CalendarLevelPersonal: OwnerKindUser,
	}
	kind, ok := expected[level]
	if !ok {
		return fmt.Errorf("unknown calendar level %q", level)
	}
	if o.Kind != kind {
		return fmt.Errorf("calendar level %q requires a %s owner, got %s", level, kind, o.Kind)
	}
	return nil
}

// CalendarSettings is the closed set of per-calendar options the engine
// actually reads. It replaces the free-form settings bag of older systems.
type CalendarSettings struct {
	RequireApproval        bool `json:"require_approval"`
	SingleBooking          bool `json:"single_booking"`
	NotifyOnApproval       bool `json:"notify_on_approval"`
	AutoSync               bool `json:"auto_sync"`
	DefaultDurationMinutes int  `json:"default_duration_minutes,omitempty"`
	ReminderMinutes        int  `json:"reminder_minutes,omitempty"`
}

// Calendar is the key-value store representation of a calendar.
type Calendar struct {
	UID       string           `json:"uid"`
	Name      string           `json:"name"`
	TypeUID   string           `json:"type_uid"`
	Level     CalendarLevel    `json:"level"`
	Owner     OwnerRef         `json:"owner"`
	ColorCode string           `json:"color_code,omitempty"`
	IsActive  bool             `json:"is_active"`
	IsDefault bool             `json:"is_default"`
	Settings  CalendarSettings `json:"settings"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

// Tags generates a consistent set of tags for the calendar for searching/indexing.
func (c *Calendar) Tags() []string {
	if c == nil {
		return nil
	}
	tags := []string{}
	if c.UID != "" {
		tags = append(tags, c.UID, fmt.Sprintf("calendar_uid:%s", c.UID))
	}
	if c.Name != "" {
		tags = append(tags, c.Name)
	}
	if c.Level != "" {
		tags = append(tags, fmt.Sprintf("level:%s", c.Level))
	}
	if c.Owner.UID != "" {
		tags = append(tags, fmt.Sprintf("owner_%s:%s", c.Owner.Kind, c.Owner.UID))
	}
	return tags
}
