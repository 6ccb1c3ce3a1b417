// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/logging"
)

// SMTPService implements the Notifier interface using SMTP
type SMTPService struct {
	config    SMTPConfig
	templates Templates
}

// SMTPConfig holds the SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string // Optional for authenticated SMTP
	Password string // Optional for authenticated SMTP
}

// NewSMTPService creates a new SMTP notification service
func NewSMTPService(config SMTPConfig) (*SMTPService, error) {
	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}

	return &SMTPService{
		config:    config,
		templates: templates,
	}, nil
}

// Ensure SMTPService implements the Notifier interface
var _ domain.Notifier = (*SMTPService)(nil)

// SendApprovalRequested notifies an approver that an event awaits review
func (s *SMTPService) SendApprovalRequested(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	rendered, err := renderSet(s.templates.ApprovalRequested, notice)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render approval request templates", logging.ErrKey, err)
		return err
	}

	subject := fmt.Sprintf("Approval needed: %s", notice.EventTitle)
	message := buildEmailMessage(notice.RecipientEmail, subject, rendered.HTML, rendered.Text, "", s.config)
	if err := sendEmailMessage(notice.RecipientEmail, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send approval request email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "approval request email sent successfully")
	return nil
}

// SendEventApproved notifies the event creator their event is published.
// The email carries an ICS invitation.
func (s *SMTPService) SendEventApproved(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	rendered, err := renderSet(s.templates.EventApproved, notice)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render approval templates", logging.ErrKey, err)
		return err
	}

	icsContent := GenerateEventICS(notice)

	subject := fmt.Sprintf("Approved: %s", notice.EventTitle)
	message := buildEmailMessage(notice.RecipientEmail, subject, rendered.HTML, rendered.Text, icsContent, s.config)
	if err := sendEmailMessage(notice.RecipientEmail, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send approval email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "approval email sent successfully")
	return nil
}

// SendEventRejected notifies the event creator their event was rejected
func (s *SMTPService) SendEventRejected(ctx context.Context, notice domain.ApprovalNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("event_title", notice.EventTitle))

	rendered, err := renderSet(s.templates.EventRejected, notice)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render rejection templates", logging.ErrKey, err)
		return err
	}

	subject := fmt.Sprintf("Not approved: %s", notice.EventTitle)
	message := buildEmailMessage(notice.RecipientEmail, subject, rendered.HTML, rendered.Text, "", s.config)
	if err := sendEmailMessage(notice.RecipientEmail, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send rejection email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "rejection email sent successfully")
	return nil
}

// SendSyncDisconnected notifies a user their calendar sync was disconnected
func (s *SMTPService) SendSyncDisconnected(ctx context.Context, notice domain.SyncDisconnectedNotice) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", notice.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("provider", notice.Provider))

	rendered, err := renderSet(s.templates.SyncDisconnected, notice)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render sync disconnection templates", logging.ErrKey, err)
		return err
	}

	subject := fmt.Sprintf("Calendar sync disconnected: %s", capitalize(notice.Provider))
	message := buildEmailMessage(notice.RecipientEmail, subject, rendered.HTML, rendered.Text, "", s.config)
	if err := sendEmailMessage(notice.RecipientEmail, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send sync disconnection email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "sync disconnection email sent successfully")
	return nil
}
