// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/pkg/utils"
)

// ConflictService detects scheduling conflicts for candidate events and
// records them for resolution. Detection is read-then-decide: it reads the
// current store state, computes the conflict set, and persists it. The
// deterministic conflict identity makes re-detection from either event of a
// pair converge on the same records.
type ConflictService struct {
	EventRepository        domain.EventRepository
	CalendarRepository     domain.CalendarRepository
	AttendeeRepository     domain.AttendeeRepository
	AvailabilityRepository domain.AvailabilityRepository
	ConflictRepository     domain.ConflictRepository
	Permissions            *PermissionService
	MessageBuilder         domain.MessageBuilder
	Config                 ServiceConfig
}

// NewConflictService creates a new ConflictService.
func NewConflictService(
	eventRepository domain.EventRepository,
	calendarRepository domain.CalendarRepository,
	attendeeRepository domain.AttendeeRepository,
	availabilityRepository domain.AvailabilityRepository,
	conflictRepository domain.ConflictRepository,
	permissions *PermissionService,
	messageBuilder domain.MessageBuilder,
	config ServiceConfig,
) *ConflictService {
	return &ConflictService{
		EventRepository:        eventRepository,
		CalendarRepository:     calendarRepository,
		AttendeeRepository:     attendeeRepository,
		AvailabilityRepository: availabilityRepository,
		ConflictRepository:     conflictRepository,
		Permissions:            permissions,
		MessageBuilder:         messageBuilder,
		Config:                 config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *ConflictService) ServiceReady() bool {
	return s.EventRepository != nil &&
		s.CalendarRepository != nil &&
		s.AttendeeRepository != nil &&
		s.AvailabilityRepository != nil &&
		s.ConflictRepository != nil &&
		s.Permissions != nil &&
		s.MessageBuilder != nil
}

// Detect computes and persists the conflict set for a candidate event.
// The returned slice holds every conflict found in this pass.
func (s *ConflictService) Detect(ctx context.Context, candidate *models.CalendarEvent) ([]*models.EventConflict, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("conflict service not initialized", domain.ErrServiceUnavailable)
	}
	if candidate == nil || candidate.UID == "" {
		return nil, domain.NewValidationError("candidate event is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", candidate.UID))

	conflicts := []*models.EventConflict{}

	eventConflicts, err := s.detectEventConflicts(ctx, candidate)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, eventConflicts...)

	availabilityConflicts, err := s.detectAvailabilityConflicts(ctx, candidate)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, availabilityConflicts...)

	now := time.Now().UTC()
	for _, conflict := range conflicts {
		conflict.Resolution = models.ConflictUnresolved
		conflict.CreatedAt = utils.TimePtr(now)
		if err := s.ConflictRepository.Create(ctx, conflict); err != nil {
			return nil, err
		}
		if err := s.MessageBuilder.SendIndexConflict(ctx, models.ActionCreated, *conflict); err != nil {
			slog.ErrorContext(ctx, "failed to send conflict indexing message", logging.ErrKey, err)
		}
	}

	if len(conflicts) > 0 {
		slog.InfoContext(ctx, "detected scheduling conflicts", "count", len(conflicts))
	}

	return conflicts, nil
}

// detectEventConflicts compares the candidate against every other event on
// the same date.
func (s *ConflictService) detectEventConflicts(ctx context.Context, candidate *models.CalendarEvent) ([]*models.EventConflict, error) {
	date := candidate.EventDate
	others, err := s.EventRepository.ListByDateRange(ctx, nil, date, date)
	if err != nil {
		return nil, err
	}

	calendar, err := s.CalendarRepository.Get(ctx, candidate.CalendarUID)
	if err != nil {
		return nil, err
	}

	candidateAttendees, err := s.AttendeeRepository.ListByEvent(ctx, candidate.UID)
	if err != nil {
		return nil, err
	}

	conflicts := []*models.EventConflict{}
	for _, other := range others {
		if other.UID == candidate.UID || other.UID == candidate.ParentEventUID {
			continue
		}
		if other.Status == models.EventStatusCancelled || other.ApprovalStatus == models.ApprovalStatusRejected {
			continue
		}
		if !eventsOverlap(candidate, other) {
			continue
		}

		if other.CalendarUID == candidate.CalendarUID && calendar.Settings.SingleBooking {
			conflicts = append(conflicts, &models.EventConflict{
				EventUID:            candidate.UID,
				ConflictingEventUID: other.UID,
				Type:                models.ConflictTypeResource,
				Severity:            models.ConflictSeverityCritical,
				Detail:              fmt.Sprintf("calendar %s allows a single booking per time slot", calendar.Name),
			})
		}

		if sameLocation(candidate.Location, other.Location) {
			conflicts = append(conflicts, &models.EventConflict{
				EventUID:            candidate.UID,
				ConflictingEventUID: other.UID,
				Type:                models.ConflictTypeLocation,
				Severity:            models.ConflictSeverityMajor,
				Detail:              "both events are scheduled at " + candidate.Location,
			})
		}

		shared, err := s.sharedAttendees(ctx, candidateAttendees, other.UID)
		if err != nil {
			return nil, err
		}
		for userUID, required := range shared {
			severity := models.ConflictSeverityMinor
			if required {
				severity = models.ConflictSeverityMajor
			}
			conflicts = append(conflicts, &models.EventConflict{
				EventUID:            candidate.UID,
				ConflictingEventUID: other.UID,
				UserUID:             userUID,
				Type:                models.ConflictTypePerson,
				Severity:            severity,
				Detail:              "attendee is expected at both events",
			})
		}
	}

	return conflicts, nil
}

// detectAvailabilityConflicts checks every attendee's derived availability
// blocks against the candidate's time slot. Severity follows the person's
// role in the event: the creator is assumed to officiate.
func (s *ConflictService) detectAvailabilityConflicts(ctx context.Context, candidate *models.CalendarEvent) ([]*models.EventConflict, error) {
	attendees, err := s.AttendeeRepository.ListByEvent(ctx, candidate.UID)
	if err != nil {
		return nil, err
	}

	type person struct {
		userUID  string
		severity models.ConflictSeverity
	}
	people := []person{{userUID: candidate.CreatedBy, severity: models.ConflictSeverityCritical}}
	for _, attendee := range attendees {
		if attendee.UserUID == candidate.CreatedBy || attendee.Status == models.AttendanceNotAttending {
			continue
		}
		severity := models.ConflictSeverityMinor
		if attendee.Required {
			severity = models.ConflictSeverityMajor
		}
		people = append(people, person{userUID: attendee.UserUID, severity: severity})
	}

	conflicts := []*models.EventConflict{}
	for _, p := range people {
		blocks, err := s.AvailabilityRepository.ListByUser(ctx, p.userUID)
		if err != nil {
			return nil, err
		}
		for _, block := range blocks {
			if !block.Type.Blocks() || block.SourceEventUID == candidate.UID {
				continue
			}
			if !block.OverlapsTime(candidate.EventDate, candidate.StartTime, candidate.EndTime) {
				continue
			}
			conflicts = append(conflicts, &models.EventConflict{
				EventUID: candidate.UID,
				UserUID:  p.userUID,
				Type:     models.ConflictTypePerson,
				Severity: p.severity,
				Detail:   fmt.Sprintf("user is %s per their %s calendar", block.Type, block.Source),
			})
			break // one conflict per person is enough
		}
	}

	return conflicts, nil
}

// sharedAttendees returns the users registered on both events, mapped to
// whether they are required on either side.
func (s *ConflictService) sharedAttendees(ctx context.Context, candidateAttendees []*models.EventAttendee, otherEventUID string) (map[string]bool, error) {
	otherAttendees, err := s.AttendeeRepository.ListByEvent(ctx, otherEventUID)
	if err != nil {
		return nil, err
	}

	candidateByUser := make(map[string]*models.EventAttendee, len(candidateAttendees))
	for _, attendee := range candidateAttendees {
		if attendee.Status != models.AttendanceNotAttending {
			candidateByUser[attendee.UserUID] = attendee
		}
	}

	shared := map[string]bool{}
	for _, other := range otherAttendees {
		if other.Status == models.AttendanceNotAttending {
			continue
		}
		if mine, ok := candidateByUser[other.UserUID]; ok {
			shared[other.UserUID] = mine.Required || other.Required
		}
	}
	return shared, nil
}

// Resolve records a human resolution decision on a conflict. The actor needs
// edit permission on the calendar of the conflict's primary event.
func (s *ConflictService) Resolve(ctx context.Context, actor domain.Actor, conflictUID string, resolution models.ConflictResolutionStatus) (*models.EventConflict, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("conflict service not initialized", domain.ErrServiceUnavailable)
	}
	if !resolution.IsValid() {
		return nil, domain.NewValidationError("unknown resolution status: " + string(resolution))
	}
	ctx = logging.AppendCtx(ctx, slog.String("conflict_uid", conflictUID))

	conflict, revision, err := s.ConflictRepository.GetWithRevision(ctx, conflictUID)
	if err != nil {
		return nil, err
	}

	event, err := s.EventRepository.Get(ctx, conflict.EventUID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("resolving a conflict requires edit on the calendar")
	}

	conflict.Resolution = resolution
	conflict.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if err := s.ConflictRepository.Update(ctx, conflict, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resolved conflict", "resolution", resolution, "actor_uid", actor.UID)

	if err := s.MessageBuilder.SendIndexConflict(ctx, models.ActionUpdated, *conflict); err != nil {
		slog.ErrorContext(ctx, "failed to send conflict indexing message", logging.ErrKey, err)
	}

	return conflict, nil
}

// eventsOverlap reports whether two events collide in time on the same date.
// An all-day event overlaps everything on its date.
func eventsOverlap(a, b *models.CalendarEvent) bool {
	ay, am, ad := a.EventDate.Date()
	by, bm, bd := b.EventDate.Date()
	if ay != by || am != bm || ad != bd {
		return false
	}
	if a.IsAllDay() || b.IsAllDay() {
		return true
	}
	return models.Overlaps(*a.StartTime, *a.EndTime, *b.StartTime, *b.EndTime)
}

func sameLocation(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
