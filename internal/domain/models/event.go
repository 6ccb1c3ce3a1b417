// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// EventCategory is the closed set of event categories.
type EventCategory string

const (
	EventCategoryService    EventCategory = "service"
	EventCategoryMeeting    EventCategory = "meeting"
	EventCategoryConvention EventCategory = "convention"
	EventCategoryOutreach   EventCategory = "outreach"
	EventCategoryFellowship EventCategory = "fellowship"
	EventCategoryTraining   EventCategory = "training"
	EventCategoryConference EventCategory = "conference"
	EventCategorySpecial    EventCategory = "special"
)

// ValidEventCategories contains all valid event category values.
var ValidEventCategories = map[EventCategory]bool{
	EventCategoryService:    true,
	EventCategoryMeeting:    true,
	EventCategoryConvention: true,
	EventCategoryOutreach:   true,
	EventCategoryFellowship: true,
	EventCategoryTraining:   true,
	EventCategoryConference: true,
	EventCategorySpecial:    true,
}

// IsValid returns true if the category is a known valid value.
func (c EventCategory) IsValid() bool {
	return ValidEventCategories[c]
}

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// ApprovalStatus is the position of an event in the two-stage approval workflow.
type ApprovalStatus string

const (
	ApprovalStatusPending       ApprovalStatus = "pending"
	ApprovalStatusFirstApproved ApprovalStatus = "first_approved"
	ApprovalStatusFinalApproved ApprovalStatus = "final_approved"
	ApprovalStatusRejected      ApprovalStatus = "rejected"
)

// Visibility controls who can see an event or calendar.
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityMembers    Visibility = "members"
	VisibilityLeadership Visibility = "leadership"
)

// RecurrenceFrequency is how often a recurring event repeats.
type RecurrenceFrequency string

const (
	RecurrenceDaily   RecurrenceFrequency = "daily"
	RecurrenceWeekly  RecurrenceFrequency = "weekly"
	RecurrenceMonthly RecurrenceFrequency = "monthly"
)

// Recurrence is the structured recurrence rule held by a parent event.
// Children materialized from the rule hold only a parent back-reference and
// never carry a rule themselves.
type Recurrence struct {
	Frequency RecurrenceFrequency `json:"frequency"`
	Interval  int                 `json:"interval"`
	// WeekDays are Go weekday numbers (0=Sunday) used by weekly rules.
	WeekDays []int      `json:"week_days,omitempty"`
	Count    int        `json:"count,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
}

// Validate checks the recurrence rule for internal consistency.
func (r *Recurrence) Validate() error {
	if r == nil {
		return nil
	}
	switch r.Frequency {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return fmt.Errorf("unknown recurrence frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("recurrence interval must be at least 1")
	}
	for _, d := range r.WeekDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("week day %d out of range", d)
		}
	}
	if r.Count < 0 {
		return fmt.Errorf("recurrence count must not be negative")
	}
	return nil
}

// ApprovalStamp records who approved a stage and when.
type ApprovalStamp struct {
	ApproverUID string    `json:"approver_uid"`
	Timestamp   time.Time `json:"timestamp"`
}

// CalendarEvent is the key-value store representation of an event.
// All mutation goes through the event service transition functions.
type CalendarEvent struct {
	UID         string `json:"uid"`
	CalendarUID string `json:"calendar_uid"`
	// ChurchUID is denormalized from the owning calendar for fast scoping.
	ChurchUID string    `json:"church_uid,omitempty"`
	Title     string    `json:"title"`
	EventDate time.Time `json:"event_date"`
	// StartTime and EndTime are nil for all-day events.
	StartTime *TimeOfDay    `json:"start_time,omitempty"`
	EndTime   *TimeOfDay    `json:"end_time,omitempty"`
	Location  string        `json:"location,omitempty"`
	Category  EventCategory `json:"category"`
	// Recurrence is set only on parent events. ParentEventUID is set only on
	// materialized instances; an instance can never become a parent.
	Recurrence       *Recurrence    `json:"recurrence,omitempty"`
	ParentEventUID   string         `json:"parent_event_uid,omitempty"`
	IsNetworkEvent   bool           `json:"is_network_event"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovalStatus   ApprovalStatus `json:"approval_status,omitempty"`
	FirstApproval    *ApprovalStamp `json:"first_approval,omitempty"`
	FinalApproval    *ApprovalStamp `json:"final_approval,omitempty"`
	RejectionReason  string         `json:"rejection_reason,omitempty"`
	MaxAttendees     int            `json:"max_attendees,omitempty"`
	Status           EventStatus    `json:"status"`
	Visibility       Visibility     `json:"visibility"`
	CreatedBy        string         `json:"created_by"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// IsAllDay reports whether the event has no start/end times.
func (e *CalendarEvent) IsAllDay() bool {
	return e.StartTime == nil || e.EndTime == nil
}

// IsInstance reports whether the event is a materialized recurrence instance.
func (e *CalendarEvent) IsInstance() bool {
	return e.ParentEventUID != ""
}

// Tags generates a consistent set of tags for the event for searching/indexing.
func (e *CalendarEvent) Tags() []string {
	if e == nil {
		return nil
	}
	tags := []string{}
	if e.UID != "" {
		tags = append(tags, e.UID, fmt.Sprintf("event_uid:%s", e.UID))
	}
	if e.CalendarUID != "" {
		tags = append(tags, fmt.Sprintf("calendar_uid:%s", e.CalendarUID))
	}
	if e.ChurchUID != "" {
		tags = append(tags, fmt.Sprintf("church_uid:%s", e.ChurchUID))
	}
	if e.Title != "" {
		tags = append(tags, e.Title)
	}
	if e.Category != "" {
		tags = append(tags, fmt.Sprintf("category:%s", e.Category))
	}
	return tags
}

// ApprovalAction is an action driving the approval state machine.
type ApprovalAction string

const (
	ApprovalActionFirstApprove ApprovalAction = "first_approve"
	ApprovalActionFinalApprove ApprovalAction = "final_approve"
	ApprovalActionReject       ApprovalAction = "reject"
	ApprovalActionResubmit     ApprovalAction = "resubmit"
	ApprovalActionCancel       ApprovalAction = "cancel"
)

// EventApproval is an immutable audit row appended on every approval-workflow
// transition. Resubmission appends a new row; history is never rewritten.
type EventApproval struct {
	UID       string         `json:"uid"`
	EventUID  string         `json:"event_uid"`
	Action    ApprovalAction `json:"action"`
	ActorUID  string         `json:"actor_uid"`
	Comments  string         `json:"comments,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Occurrence is a single expansion of a recurring event within a query
// window. Occurrences are computed lazily on read and are not persisted
// unless an instance diverges from its parent.
type Occurrence struct {
	ParentEventUID string     `json:"parent_event_uid"`
	OccurrenceID   string     `json:"occurrence_id"`
	EventDate      time.Time  `json:"event_date"`
	StartTime      *TimeOfDay `json:"start_time,omitempty"`
	EndTime        *TimeOfDay `json:"end_time,omitempty"`
	Title          string     `json:"title"`
	Location       string     `json:"location,omitempty"`
}
