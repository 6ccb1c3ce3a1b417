// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/pkg/utils"
)

// Transition drives the two-stage approval state machine. Every transition
// appends an immutable audit row, is serialized by the store revision, and
// notifies fire-and-forget. The write of the new approval status and the
// publication status is a single store update.
func (s *EventService) Transition(ctx context.Context, actor domain.Actor, eventUID string, action models.ApprovalAction, comments string) (*models.CalendarEvent, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", eventUID))
	ctx = logging.AppendCtx(ctx, slog.String("approval_action", string(action)))

	event, revision, err := s.EventRepository.GetWithRevision(ctx, eventUID)
	if err != nil {
		return nil, err
	}

	switch action {
	case models.ApprovalActionFirstApprove:
		err = s.firstApprove(ctx, actor, event)
	case models.ApprovalActionFinalApprove:
		err = s.finalApprove(ctx, actor, event)
	case models.ApprovalActionReject:
		err = s.reject(ctx, actor, event, comments)
	case models.ApprovalActionResubmit:
		err = s.resubmit(ctx, actor, event)
	case models.ApprovalActionCancel:
		err = s.cancel(ctx, actor, event)
	default:
		err = domain.NewValidationError("unknown approval action: " + string(action))
	}
	if err != nil {
		return nil, err
	}

	event.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if err := s.EventRepository.Update(ctx, event, revision); err != nil {
		return nil, err
	}

	s.appendAuditRow(ctx, event.UID, action, actor.UID, comments)

	slog.InfoContext(ctx, "event transitioned",
		"approval_status", event.ApprovalStatus,
		"status", event.Status,
		"actor_uid", actor.UID,
	)

	s.notifyTransition(ctx, event, action, actor, comments)

	if err := s.MessageBuilder.SendIndexEvent(ctx, models.ActionUpdated, *event); err != nil {
		slog.ErrorContext(ctx, "failed to send event indexing message", logging.ErrKey, err)
	}

	return event, nil
}

// canFirstApprove reports whether the actor may act as the first-stage
// approver. The configured identity and holders of the approve claim qualify.
func (s *EventService) canFirstApprove(actor domain.Actor) bool {
	return actor.IsGlobalAdmin() ||
		actor.UID == s.Config.FirstApproverUID ||
		actor.HasClaim(domain.ClaimEventApprove)
}

func (s *EventService) canFinalApprove(actor domain.Actor) bool {
	return actor.IsGlobalAdmin() || actor.UID == s.Config.FinalApproverUID
}

func (s *EventService) firstApprove(ctx context.Context, actor domain.Actor, event *models.CalendarEvent) error {
	if !s.canFirstApprove(actor) {
		return domain.NewPermissionDeniedError("actor is not a first-stage approver")
	}
	if event.ApprovalStatus != models.ApprovalStatusPending {
		return domain.NewInvalidTransitionError("first approval requires a pending event, got " + string(event.ApprovalStatus))
	}

	// Approval is the moment conflicts matter: re-detect against the current
	// store state before committing the stamp.
	if _, err := s.Conflicts.Detect(ctx, event); err != nil {
		return err
	}
	open, err := s.ConflictRepository.ListOpenByEvent(ctx, event.UID)
	if err != nil {
		return err
	}
	for _, conflict := range open {
		if conflict.Severity == models.ConflictSeverityCritical {
			return domain.NewConflictBlockingError(
				"critical conflict "+conflict.UID+" must be resolved before approval",
				domain.ErrUnresolvedCriticalConflict,
			)
		}
	}

	event.ApprovalStatus = models.ApprovalStatusFirstApproved
	event.FirstApproval = &models.ApprovalStamp{ApproverUID: actor.UID, Timestamp: time.Now().UTC()}
	return nil
}

func (s *EventService) finalApprove(ctx context.Context, actor domain.Actor, event *models.CalendarEvent) error {
	if !s.canFinalApprove(actor) {
		return domain.NewPermissionDeniedError("actor is not the final approver")
	}
	if event.ApprovalStatus != models.ApprovalStatusFirstApproved {
		return domain.NewInvalidTransitionError(
			"final approval requires a first-approved event, got "+string(event.ApprovalStatus),
			domain.ErrOutOfOrderApproval,
		)
	}

	// Final approval and publication commit together in one store update.
	event.ApprovalStatus = models.ApprovalStatusFinalApproved
	event.FinalApproval = &models.ApprovalStamp{ApproverUID: actor.UID, Timestamp: time.Now().UTC()}
	event.Status = models.EventStatusPublished
	return nil
}

func (s *EventService) reject(ctx context.Context, actor domain.Actor, event *models.CalendarEvent, reason string) error {
	if !s.canFirstApprove(actor) && !s.canFinalApprove(actor) {
		return domain.NewPermissionDeniedError("actor is not an approver")
	}
	if reason == "" {
		return domain.NewValidationError("a rejection reason is required")
	}
	switch event.ApprovalStatus {
	case models.ApprovalStatusPending, models.ApprovalStatusFirstApproved:
	default:
		return domain.NewInvalidTransitionError("rejection requires a pending or first-approved event, got " + string(event.ApprovalStatus))
	}

	event.ApprovalStatus = models.ApprovalStatusRejected
	event.RejectionReason = reason
	return nil
}

func (s *EventService) resubmit(ctx context.Context, actor domain.Actor, event *models.CalendarEvent) error {
	if actor.UID != event.CreatedBy && !actor.IsGlobalAdmin() {
		allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionEdit)
		if err != nil {
			return err
		}
		if !allowed {
			return domain.NewPermissionDeniedError("resubmitting requires being the creator or edit on the calendar")
		}
	}
	if event.ApprovalStatus != models.ApprovalStatusRejected {
		return domain.NewInvalidTransitionError("only rejected events can be resubmitted, got " + string(event.ApprovalStatus))
	}

	// The workflow restarts from the top; the audit rows keep the history.
	event.ApprovalStatus = models.ApprovalStatusPending
	event.RejectionReason = ""
	event.FirstApproval = nil
	event.FinalApproval = nil
	return nil
}

func (s *EventService) cancel(ctx context.Context, actor domain.Actor, event *models.CalendarEvent) error {
	if actor.UID != event.CreatedBy && !actor.IsGlobalAdmin() {
		allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionDelete)
		if err != nil {
			return err
		}
		if !allowed {
			return domain.NewPermissionDeniedError("cancelling requires being the creator or delete on the calendar")
		}
	}
	if event.Status == models.EventStatusCancelled {
		return domain.NewInvalidTransitionError("event is already cancelled", domain.ErrAlreadyCancelled)
	}

	event.Status = models.EventStatusCancelled
	return nil
}

// appendAuditRow records the transition. The trail is append-only; a failed
// append is logged loudly but does not roll back the transition.
func (s *EventService) appendAuditRow(ctx context.Context, eventUID string, action models.ApprovalAction, actorUID, comments string) {
	row := &models.EventApproval{
		UID:       uuid.New().String(),
		EventUID:  eventUID,
		Action:    action,
		ActorUID:  actorUID,
		Comments:  comments,
		Timestamp: time.Now().UTC(),
	}
	if err := s.ApprovalRepository.Create(ctx, row); err != nil {
		slog.ErrorContext(ctx, "failed to append approval audit row", logging.ErrKey, err, logging.PriorityCritical())
	}
}

// ApprovalHistory returns the audit trail of an event, oldest first.
func (s *EventService) ApprovalHistory(ctx context.Context, actor domain.Actor, eventUID string) ([]*models.EventApproval, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}

	event, err := s.EventRepository.Get(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("viewing approval history requires a grant on the calendar")
	}

	return s.ApprovalRepository.ListByEvent(ctx, eventUID)
}

// notifyTransition fans out the human-facing notifications for a transition.
// Failures never propagate into the transition itself.
func (s *EventService) notifyTransition(ctx context.Context, event *models.CalendarEvent, action models.ApprovalAction, actor domain.Actor, comments string) {
	recipient := ""
	switch action {
	case models.ApprovalActionFirstApprove:
		recipient = s.Config.FinalApproverUID
	case models.ApprovalActionResubmit:
		recipient = s.Config.FirstApproverUID
	case models.ApprovalActionFinalApprove, models.ApprovalActionReject, models.ApprovalActionCancel:
		recipient = event.CreatedBy
	}

	notification := models.ApprovalNotification{
		EventUID:     event.UID,
		EventTitle:   event.Title,
		Action:       action,
		ActorUID:     actor.UID,
		RecipientUID: recipient,
		Comments:     comments,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.MessageBuilder.SendApprovalNotification(ctx, notification); err != nil {
		slog.ErrorContext(ctx, "failed to publish approval notification", logging.ErrKey, err)
	}

	if s.Notifier == nil || !s.Config.NotificationsEnabled {
		return
	}

	notice := domain.ApprovalNotice{
		EventUID:   event.UID,
		EventTitle: event.Title,
		EventDate:  event.EventDate,
		StartTime:  event.StartTime,
		EndTime:    event.EndTime,
		Location:   event.Location,
		Stage:      action,
		Comments:   comments,
		Recurrence: event.Recurrence,
	}

	var err error
	switch action {
	case models.ApprovalActionFirstApprove:
		notice.RecipientEmail = s.Config.FinalApproverEmail
		err = s.Notifier.SendApprovalRequested(ctx, notice)
	case models.ApprovalActionResubmit:
		notice.RecipientEmail = s.Config.FirstApproverEmail
		err = s.Notifier.SendApprovalRequested(ctx, notice)
	case models.ApprovalActionFinalApprove:
		notice.RecipientEmail = s.creatorEmail(ctx, event)
		if notice.RecipientEmail != "" {
			err = s.Notifier.SendEventApproved(ctx, notice)
		}
	case models.ApprovalActionReject:
		notice.RecipientEmail = s.creatorEmail(ctx, event)
		if notice.RecipientEmail != "" {
			err = s.Notifier.SendEventRejected(ctx, notice)
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send transition email", logging.ErrKey, err)
	}
}

// creatorEmail resolves the creator's email from their attendee row, if any.
// The service holds no user directory of its own.
func (s *EventService) creatorEmail(ctx context.Context, event *models.CalendarEvent) string {
	attendees, err := s.AttendeeRepository.ListByEvent(ctx, event.UID)
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve creator email", logging.ErrKey, err)
		return ""
	}
	for _, attendee := range attendees {
		if attendee.UserUID == event.CreatedBy && attendee.Email != "" {
			return attendee.Email
		}
	}
	return ""
}
