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

// RSVP records the actor's attendance intent on an event. The attendance
// state machine bounds the change: terminal states are reachable only after
// the event date, and a capped event refuses new attending seats once the
// derived attending count reaches the cap.
func (s *EventService) RSVP(ctx context.Context, actor domain.Actor, eventUID string, status models.AttendanceStatus) (*models.EventAttendee, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("unknown attendance status: " + string(status))
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", eventUID))

	event, err := s.EventRepository.Get(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, domain.NewInvalidTransitionError("cancelled events do not accept RSVPs", domain.ErrAlreadyCancelled)
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("responding to this event requires a grant on its calendar")
	}

	attendees, err := s.AttendeeRepository.ListByEvent(ctx, eventUID)
	if err != nil {
		return nil, err
	}

	var existing *models.EventAttendee
	for _, attendee := range attendees {
		if attendee.UserUID == actor.UID {
			existing = attendee
			break
		}
	}

	now := time.Now().UTC()
	current := models.AttendanceInvited
	if existing != nil {
		current = existing.Status
	}
	if err := current.CanTransitionTo(status, event.EventDate, now); err != nil {
		return nil, domain.NewInvalidTransitionError("attendance status change not allowed", err)
	}

	if err := s.checkCapacity(event, attendees, existing, status); err != nil {
		return nil, err
	}

	if existing == nil {
		attendee := &models.EventAttendee{
			UID:       uuid.New().String(),
			EventUID:  eventUID,
			UserUID:   actor.UID,
			Status:    status,
			CreatedAt: utils.TimePtr(now),
			UpdatedAt: utils.TimePtr(now),
		}
		if err := s.AttendeeRepository.Create(ctx, attendee); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "recorded rsvp", "user_uid", actor.UID, "attendance_status", status)
		return attendee, nil
	}

	stored, revision, err := s.AttendeeRepository.GetWithRevision(ctx, existing.UID)
	if err != nil {
		return nil, err
	}
	stored.Status = status
	stored.UpdatedAt = utils.TimePtr(now)

	if err := s.AttendeeRepository.Update(ctx, stored, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "updated rsvp", "user_uid", actor.UID, "attendance_status", status)
	return stored, nil
}

// checkCapacity enforces MaxAttendees against the derived attending count.
// The count always comes from the attendee rows, never from a stored tally.
func (s *EventService) checkCapacity(event *models.CalendarEvent, attendees []*models.EventAttendee, existing *models.EventAttendee, next models.AttendanceStatus) error {
	if event.MaxAttendees <= 0 {
		return nil
	}
	taking := (&models.EventAttendee{Status: next}).CountsTowardCapacity()
	if !taking || (existing != nil && existing.CountsTowardCapacity()) {
		return nil
	}

	seated := 0
	for _, attendee := range attendees {
		if attendee.CountsTowardCapacity() {
			seated++
		}
	}
	if seated >= event.MaxAttendees {
		return domain.NewValidationError("event is at capacity")
	}
	return nil
}

// InviteAttendee registers another user on an event, optionally as required.
// The inviting actor needs edit on the calendar.
func (s *EventService) InviteAttendee(ctx context.Context, actor domain.Actor, eventUID string, invitee models.EventAttendee) (*models.EventAttendee, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}
	if invitee.UserUID == "" {
		return nil, domain.NewValidationError("invitee user uid is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", eventUID))

	event, err := s.EventRepository.Get(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, domain.NewInvalidTransitionError("cancelled events do not accept invitations", domain.ErrAlreadyCancelled)
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("inviting attendees requires edit on the calendar")
	}

	attendees, err := s.AttendeeRepository.ListByEvent(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	for _, attendee := range attendees {
		if attendee.UserUID == invitee.UserUID {
			return nil, domain.NewValidationError("user is already registered on this event")
		}
	}

	now := time.Now().UTC()
	attendee := &models.EventAttendee{
		UID:       uuid.New().String(),
		EventUID:  eventUID,
		UserUID:   invitee.UserUID,
		Name:      invitee.Name,
		Email:     invitee.Email,
		Required:  invitee.Required,
		Status:    models.AttendanceInvited,
		CreatedAt: utils.TimePtr(now),
		UpdatedAt: utils.TimePtr(now),
	}
	if err := s.AttendeeRepository.Create(ctx, attendee); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "invited attendee", "user_uid", invitee.UserUID, "required", invitee.Required)
	return attendee, nil
}
