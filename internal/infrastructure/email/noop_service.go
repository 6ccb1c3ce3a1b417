// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"log/slog"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/logging"
)

// NoOpService is a no-operation notifier that logs but doesn't send emails
type NoOpService struct{}

// NewNoOpService creates a new no-op notification service
func NewNoOpService() *NoOpService {
	return &NoOpService{}
}

// Ensure NoOpService implements the Notifier interface
var _ domain.Notifier = (*NoOpService)(nil)

// SendApprovalRequested logs the notice but doesn't send an email
func (s *NoOpService) SendApprovalRequested(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	slog.DebugContext(ctx, "email service disabled, skipping approval request email")
	return nil
}

// SendEventApproved logs the notice but doesn't send an email
func (s *NoOpService) SendEventApproved(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	slog.DebugContext(ctx, "email service disabled, skipping approval email")
	return nil
}

// SendEventRejected logs the notice but doesn't send an email
func (s *NoOpService) SendEventRejected(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	slog.DebugContext(ctx, "email service disabled, skipping rejection email")
	return nil
}

// SendSyncDisconnected logs the notice but doesn't send an email
func (s *NoOpService) SendSyncDisconnected(ctx context.Context, notice domain.SyncDisconnectedNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("provider", notice.Provider))

	slog.DebugContext(ctx, "email service disabled, skipping sync disconnection email")
	return nil
}
