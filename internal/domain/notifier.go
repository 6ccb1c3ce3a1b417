// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

// Notifier defines the interface for sending human-facing notifications on
// approval-workflow transitions and sync disconnections. Implementations are
// fire and forget: errors are logged by callers, never propagated into the
// underlying state transition.
type Notifier interface {
	SendApprovalRequested(ctx context.Context, notice ApprovalNotice) error
	SendEventApproved(ctx context.Context, notice ApprovalNotice) error
	SendEventRejected(ctx context.Context, notice ApprovalNotice) error
	SendSyncDisconnected(ctx context.Context, notice SyncDisconnectedNotice) error
}

// ApprovalNotice carries the data needed to render an approval email.
type ApprovalNotice struct {
	RecipientEmail string
	RecipientName  string
	EventUID       string
	EventTitle     string
	EventDate      time.Time
	StartTime      *models.TimeOfDay
	EndTime        *models.TimeOfDay
	Location       string
	Stage          models.ApprovalAction
	Comments       string
	Recurrence     *models.Recurrence // for the ICS attachment on approved events
}

// SyncDisconnectedNotice carries the data needed to tell a user their
// personal calendar sync needs reconnection.
type SyncDisconnectedNotice struct {
	RecipientEmail string
	RecipientName  string
	Provider       string
	ErrorMessage   string
	FailedAt       time.Time
}
