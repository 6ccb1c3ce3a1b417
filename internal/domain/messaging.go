// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// CalendarIndexSender handles indexing fan-out for calendars.
type CalendarIndexSender interface {
	SendIndexCalendar(ctx context.Context, action models.MessageAction, data models.Calendar) error
}

// EventIndexSender handles indexing fan-out for events.
type EventIndexSender interface {
	SendIndexEvent(ctx context.Context, action models.MessageAction, data models.CalendarEvent) error
}

// ConflictIndexSender handles indexing fan-out for detected conflicts.
type ConflictIndexSender interface {
	SendIndexConflict(ctx context.Context, action models.MessageAction, data models.EventConflict) error
}

// NotificationSender publishes fire-and-forget notification messages. A
// failed publish must never fail the state transition that triggered it.
type NotificationSender interface {
	SendApprovalNotification(ctx context.Context, data models.ApprovalNotification) error
	SendSyncNotification(ctx context.Context, data models.SyncNotification) error
}

// MessageBuilder is the main interface that composes all messaging capabilities.
type MessageBuilder interface {
	CalendarIndexSender
	EventIndexSender
	ConflictIndexSender
	NotificationSender
}
