// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import "time"

// NATS subjects that the calendar service sends messages about.
const (
	// IndexCalendarSubject is the subject for calendar indexing.
	// The subject is of the form: churchnet.index.calendar
	IndexCalendarSubject = "churchnet.index.calendar"

	// IndexEventSubject is the subject for event indexing.
	// The subject is of the form: churchnet.index.calendar_event
	IndexEventSubject = "churchnet.index.calendar_event"

	// IndexConflictSubject is the subject for conflict indexing.
	// The subject is of the form: churchnet.index.event_conflict
	IndexConflictSubject = "churchnet.index.event_conflict"

	// NotifyApprovalSubject is the subject for approval-workflow notifications.
	// The subject is of the form: churchnet.notify.approval
	NotifyApprovalSubject = "churchnet.notify.approval"

	// NotifySyncSubject is the subject for personal sync notifications.
	// The subject is of the form: churchnet.notify.sync
	NotifySyncSubject = "churchnet.notify.sync"
)

// NATS wildcard subjects that the calendar service handles messages about.
const (
	// CalendarAPIQueue is the queue group name for the calendar API.
	CalendarAPIQueue = "churchnet.calendar-api.queue"
)

// NATS specific subjects that the calendar service handles messages about.
const (
	CalendarCreateSubject     = "churchnet.calendar-api.calendar_create"
	CalendarUpdateSubject     = "churchnet.calendar-api.calendar_update"
	CalendarDeactivateSubject = "churchnet.calendar-api.calendar_deactivate"
	CalendarGetSubject        = "churchnet.calendar-api.calendar_get"
	CalendarListSubject       = "churchnet.calendar-api.calendar_list"
	CalendarTypesSubject      = "churchnet.calendar-api.calendar_types"

	PermissionGrantSubject  = "churchnet.calendar-api.permission_grant"
	PermissionRevokeSubject = "churchnet.calendar-api.permission_revoke"

	EventCreateSubject     = "churchnet.calendar-api.event_create"
	EventUpdateSubject     = "churchnet.calendar-api.event_update"
	EventTransitionSubject = "churchnet.calendar-api.event_transition"
	EventRSVPSubject       = "churchnet.calendar-api.event_rsvp"
	EventInviteSubject     = "churchnet.calendar-api.event_invite"
	EventGetSubject        = "churchnet.calendar-api.event_get"
	EventListSubject       = "churchnet.calendar-api.event_list"
	EventHistorySubject    = "churchnet.calendar-api.event_history"

	AvailabilityListSubject = "churchnet.calendar-api.availability_list"

	SyncConnectSubject    = "churchnet.calendar-api.sync_connect"
	SyncDisconnectSubject = "churchnet.calendar-api.sync_disconnect"
	SyncTriggerSubject    = "churchnet.calendar-api.sync_trigger"
	SyncRetrySubject      = "churchnet.calendar-api.sync_retry"
	SyncListSubject       = "churchnet.calendar-api.sync_list"

	ConflictResolveSubject = "churchnet.calendar-api.conflict_resolve"
)

// MessageAction is a type for the action of an indexing message.
type MessageAction string

// MessageAction constants for the action of an indexing message.
const (
	ActionCreated MessageAction = "created"
	ActionUpdated MessageAction = "updated"
	ActionDeleted MessageAction = "deleted"
)

// IndexerMessage is a NATS message schema for resource CRUD fan-out.
type IndexerMessage struct {
	Action  MessageAction     `json:"action"`
	Headers map[string]string `json:"headers,omitempty"`
	Data    any               `json:"data"`
	// Tags is a list of tags to be set on the indexed resource for search.
	Tags []string `json:"tags"`
}

// ApprovalNotification is published fire-and-forget on every
// approval-workflow transition.
type ApprovalNotification struct {
	EventUID     string         `json:"event_uid"`
	EventTitle   string         `json:"event_title"`
	Action       ApprovalAction `json:"action"`
	ActorUID     string         `json:"actor_uid"`
	RecipientUID string         `json:"recipient_uid"`
	Comments     string         `json:"comments,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// SyncNotification is published when a sync row escalates to disconnected.
type SyncNotification struct {
	SyncUID      string     `json:"sync_uid"`
	UserUID      string     `json:"user_uid"`
	Provider     string     `json:"provider"`
	Status       SyncStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}
