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
	"github.com/churchnet/calendar-service/pkg/constants"
	"github.com/churchnet/calendar-service/pkg/utils"
)

// EventService implements the event lifecycle: creation, updates, the
// approval workflow, RSVP and queries. All mutation is guarded by the store
// revision so concurrent transitions serialize instead of clobbering.
type EventService struct {
	EventRepository    domain.EventRepository
	ApprovalRepository domain.ApprovalRepository
	CalendarRepository domain.CalendarRepository
	AttendeeRepository domain.AttendeeRepository
	ConflictRepository domain.ConflictRepository
	Conflicts          *ConflictService
	Permissions        *PermissionService
	Occurrences        domain.OccurrenceExpander
	MessageBuilder     domain.MessageBuilder
	Notifier           domain.Notifier
	Config             ServiceConfig
}

// NewEventService creates a new EventService.
func NewEventService(
	eventRepository domain.EventRepository,
	approvalRepository domain.ApprovalRepository,
	calendarRepository domain.CalendarRepository,
	attendeeRepository domain.AttendeeRepository,
	conflictRepository domain.ConflictRepository,
	conflicts *ConflictService,
	permissions *PermissionService,
	occurrences domain.OccurrenceExpander,
	messageBuilder domain.MessageBuilder,
	notifier domain.Notifier,
	config ServiceConfig,
) *EventService {
	return &EventService{
		EventRepository:    eventRepository,
		ApprovalRepository: approvalRepository,
		CalendarRepository: calendarRepository,
		AttendeeRepository: attendeeRepository,
		ConflictRepository: conflictRepository,
		Conflicts:          conflicts,
		Permissions:        permissions,
		Occurrences:        occurrences,
		MessageBuilder:     messageBuilder,
		Notifier:           notifier,
		Config:             config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *EventService) ServiceReady() bool {
	return s.EventRepository != nil &&
		s.ApprovalRepository != nil &&
		s.CalendarRepository != nil &&
		s.AttendeeRepository != nil &&
		s.ConflictRepository != nil &&
		s.Conflicts != nil &&
		s.Permissions != nil &&
		s.Occurrences != nil &&
		s.MessageBuilder != nil
}

// EventDetails is an event joined with its attendees and open conflicts.
type EventDetails struct {
	Event         *models.CalendarEvent   `json:"event"`
	Attendees     []*models.EventAttendee `json:"attendees"`
	OpenConflicts []*models.EventConflict `json:"open_conflicts"`
}

// EventListing is the result of a ranged query: single events plus the lazy
// expansion of every recurring parent intersecting the window.
type EventListing struct {
	Events      []*models.CalendarEvent `json:"events"`
	Occurrences []models.Occurrence     `json:"occurrences"`
}

func (s *EventService) validateEventPayload(payload *models.CalendarEvent) error {
	if payload == nil {
		return domain.NewValidationError("event payload is required")
	}
	if payload.Title == "" {
		return domain.NewValidationError("event title is required")
	}
	if payload.CalendarUID == "" {
		return domain.NewValidationError("event calendar uid is required")
	}
	if payload.EventDate.IsZero() {
		return domain.NewValidationError("event date is required")
	}
	if !payload.Category.IsValid() {
		return domain.NewValidationError("unknown event category: " + string(payload.Category))
	}
	if (payload.StartTime == nil) != (payload.EndTime == nil) {
		return domain.NewValidationError("start and end time must both be set or both be empty")
	}
	if payload.StartTime != nil {
		if *payload.EndTime <= *payload.StartTime {
			return domain.NewValidationError("event end time must be after its start time")
		}
		if int(*payload.EndTime-*payload.StartTime) > constants.MaxEventDurationMinutes {
			return domain.NewValidationError("event duration exceeds a single day")
		}
	}
	if payload.MaxAttendees < 0 {
		return domain.NewValidationError("max attendees must not be negative")
	}
	if payload.ParentEventUID != "" && payload.Recurrence != nil {
		return domain.NewValidationError("a recurrence instance cannot carry its own recurrence rule")
	}
	if err := payload.Recurrence.Validate(); err != nil {
		return domain.NewValidationError("invalid recurrence rule", err)
	}
	return nil
}

// CreateEvent creates an event on a calendar. Events on approval-gated
// calendars and all network events enter the approval workflow as drafts;
// everything else publishes immediately. The returned conflicts are the
// advisory pre-screen result; they never block creation.
func (s *EventService) CreateEvent(ctx context.Context, actor domain.Actor, payload *models.CalendarEvent) (*models.CalendarEvent, []*models.EventConflict, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}

	if err := s.validateEventPayload(payload); err != nil {
		return nil, nil, err
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, payload.CalendarUID, models.PermissionCreate)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, domain.NewPermissionDeniedError("creating events requires create on the calendar")
	}

	calendar, err := s.CalendarRepository.Get(ctx, payload.CalendarUID)
	if err != nil {
		return nil, nil, err
	}
	if !calendar.IsActive {
		return nil, nil, domain.NewValidationError("calendar is deactivated")
	}

	// Instances chain to a real parent only; an instance never parents
	// another instance.
	if payload.ParentEventUID != "" {
		parent, err := s.EventRepository.Get(ctx, payload.ParentEventUID)
		if err != nil {
			return nil, nil, err
		}
		if parent.IsInstance() {
			return nil, nil, domain.NewValidationError("parent event is itself a recurrence instance")
		}
	}

	now := time.Now().UTC()
	event := *payload
	if event.UID == "" {
		event.UID = uuid.New().String()
	}
	if calendar.Owner.Kind == models.OwnerKindChurch {
		event.ChurchUID = calendar.Owner.UID
	}
	if calendar.Level == models.CalendarLevelNetwork {
		event.IsNetworkEvent = true
	}
	if event.Visibility == "" {
		event.Visibility = models.VisibilityMembers
	}
	event.CreatedBy = actor.UID
	event.CreatedAt = utils.TimePtr(now)
	event.UpdatedAt = utils.TimePtr(now)

	// Network events always go through approval; other calendars opt in.
	event.RequiresApproval = event.IsNetworkEvent || calendar.Settings.RequireApproval
	if event.RequiresApproval {
		event.Status = models.EventStatusDraft
		event.ApprovalStatus = models.ApprovalStatusPending
	} else {
		event.Status = models.EventStatusPublished
		event.ApprovalStatus = ""
	}
	event.FirstApproval = nil
	event.FinalApproval = nil
	event.RejectionReason = ""

	ctx = logging.AppendCtx(ctx, slog.String("event_uid", event.UID))

	if err := s.EventRepository.Create(ctx, &event); err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "created event",
		"calendar_uid", event.CalendarUID,
		"status", event.Status,
		"requires_approval", event.RequiresApproval,
	)

	conflicts, err := s.Conflicts.Detect(ctx, &event)
	if err != nil {
		// The pre-screen is advisory; a failed detection never fails creation.
		slog.ErrorContext(ctx, "conflict pre-screen failed", logging.ErrKey, err)
		conflicts = nil
	}

	if event.RequiresApproval {
		s.notifyApprovalRequested(ctx, &event)
	}

	if err := s.MessageBuilder.SendIndexEvent(ctx, models.ActionCreated, event); err != nil {
		slog.ErrorContext(ctx, "failed to send event indexing message", logging.ErrKey, err)
	}

	return &event, conflicts, nil
}

// UpdateEvent updates the mutable fields of an event. Editing a materialized
// recurrence instance detaches it from its parent.
func (s *EventService) UpdateEvent(ctx context.Context, actor domain.Actor, payload *models.CalendarEvent) (*models.CalendarEvent, []*models.EventConflict, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}
	if payload == nil || payload.UID == "" {
		return nil, nil, domain.NewValidationError("event uid is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", payload.UID))

	event, revision, err := s.EventRepository.GetWithRevision(ctx, payload.UID)
	if err != nil {
		return nil, nil, err
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, event.CalendarUID, models.PermissionEdit)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, domain.NewPermissionDeniedError("updating events requires edit on the calendar")
	}

	if event.Status == models.EventStatusCancelled {
		return nil, nil, domain.NewInvalidTransitionError("cancelled events cannot be updated", domain.ErrAlreadyCancelled)
	}

	rescreen := scheduleChanged(event, payload)

	event.Title = payload.Title
	event.EventDate = payload.EventDate
	event.StartTime = payload.StartTime
	event.EndTime = payload.EndTime
	event.Location = payload.Location
	event.Category = payload.Category
	event.MaxAttendees = payload.MaxAttendees
	if payload.Visibility != "" {
		event.Visibility = payload.Visibility
	}
	if !event.IsInstance() {
		event.Recurrence = payload.Recurrence
	}

	// An edited instance diverges from its parent and becomes standalone.
	if event.IsInstance() {
		event.ParentEventUID = ""
	}

	if err := s.validateEventPayload(event); err != nil {
		return nil, nil, err
	}

	event.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if err := s.EventRepository.Update(ctx, event, revision); err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "updated event", "rescreen", rescreen)

	var conflicts []*models.EventConflict
	if rescreen {
		conflicts, err = s.Conflicts.Detect(ctx, event)
		if err != nil {
			slog.ErrorContext(ctx, "conflict re-screen failed", logging.ErrKey, err)
			conflicts = nil
		}
	}

	if err := s.MessageBuilder.SendIndexEvent(ctx, models.ActionUpdated, *event); err != nil {
		slog.ErrorContext(ctx, "failed to send event indexing message", logging.ErrKey, err)
	}

	return event, conflicts, nil
}

// scheduleChanged reports whether an update moves the event in time or space.
func scheduleChanged(stored, payload *models.CalendarEvent) bool {
	if !stored.EventDate.Equal(payload.EventDate) {
		return true
	}
	if !timeOfDayEqual(stored.StartTime, payload.StartTime) || !timeOfDayEqual(stored.EndTime, payload.EndTime) {
		return true
	}
	return stored.Location != payload.Location
}

func timeOfDayEqual(a, b *models.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetEvent returns an event joined with its attendees and open conflicts.
func (s *EventService) GetEvent(ctx context.Context, actor domain.Actor, eventUID string) (*EventDetails, error) {
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
		return nil, domain.NewPermissionDeniedError("viewing this event requires a grant on its calendar")
	}

	attendees, err := s.AttendeeRepository.ListByEvent(ctx, eventUID)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.ConflictRepository.ListOpenByEvent(ctx, eventUID)
	if err != nil {
		return nil, err
	}

	return &EventDetails{
		Event:         event,
		Attendees:     attendees,
		OpenConflicts: conflicts,
	}, nil
}

// ListEvents returns the events in [from, to] across the given calendars,
// restricted to calendars the actor can view. Recurring parents are expanded
// lazily over the query window only. An empty calendar list means every
// visible calendar.
func (s *EventService) ListEvents(ctx context.Context, actor domain.Actor, calendarUIDs []string, from, to time.Time) (*EventListing, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("event service not initialized", domain.ErrServiceUnavailable)
	}
	if to.Before(from) {
		return nil, domain.NewValidationError("query range end is before its start")
	}

	visible, err := s.visibleCalendars(ctx, actor, calendarUIDs)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return &EventListing{Events: []*models.CalendarEvent{}, Occurrences: []models.Occurrence{}}, nil
	}

	events, err := s.EventRepository.ListByDateRange(ctx, visible, from, to)
	if err != nil {
		return nil, err
	}

	listing := &EventListing{Events: []*models.CalendarEvent{}, Occurrences: []models.Occurrence{}}
	for _, event := range events {
		if event.Status == models.EventStatusCancelled {
			continue
		}
		if event.Recurrence != nil {
			listing.Occurrences = append(listing.Occurrences,
				s.Occurrences.ExpandRange(event, from, to, constants.MaxOccurrencesPerQuery)...)
			continue
		}
		listing.Events = append(listing.Events, event)
	}

	return listing, nil
}

// visibleCalendars filters the requested calendars down to those the actor
// can view. With no explicit request it returns every viewable calendar.
func (s *EventService) visibleCalendars(ctx context.Context, actor domain.Actor, calendarUIDs []string) ([]string, error) {
	if len(calendarUIDs) == 0 {
		calendars, err := s.CalendarRepository.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, calendar := range calendars {
			if calendar.IsActive {
				calendarUIDs = append(calendarUIDs, calendar.UID)
			}
		}
	}

	visible := []string{}
	for _, uid := range calendarUIDs {
		allowed, err := s.Permissions.Evaluate(ctx, actor, uid, models.PermissionView)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return nil, err
		}
		if allowed {
			visible = append(visible, uid)
		}
	}
	return visible, nil
}

// notifyApprovalRequested tells the first approver an event awaits review.
// Notification failures are logged and swallowed.
func (s *EventService) notifyApprovalRequested(ctx context.Context, event *models.CalendarEvent) {
	notification := models.ApprovalNotification{
		EventUID:     event.UID,
		EventTitle:   event.Title,
		ActorUID:     event.CreatedBy,
		RecipientUID: s.Config.FirstApproverUID,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.MessageBuilder.SendApprovalNotification(ctx, notification); err != nil {
		slog.ErrorContext(ctx, "failed to publish approval notification", logging.ErrKey, err)
	}

	if s.Notifier == nil || !s.Config.NotificationsEnabled {
		return
	}
	notice := domain.ApprovalNotice{
		RecipientEmail: s.Config.FirstApproverEmail,
		EventUID:       event.UID,
		EventTitle:     event.Title,
		EventDate:      event.EventDate,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		Location:       event.Location,
		Recurrence:     event.Recurrence,
	}
	if err := s.Notifier.SendApprovalRequested(ctx, notice); err != nil {
		slog.ErrorContext(ctx, "failed to send approval request email", logging.ErrKey, err)
	}
}
