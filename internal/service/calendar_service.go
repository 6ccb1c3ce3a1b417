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

// CalendarService implements the calendar registry operations.
type CalendarService struct {
	CalendarTypeRepository domain.CalendarTypeRepository
	CalendarRepository     domain.CalendarRepository
	EventRepository        domain.EventRepository
	Permissions            *PermissionService
	MessageBuilder         domain.MessageBuilder
	Config                 ServiceConfig
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(
	calendarTypeRepository domain.CalendarTypeRepository,
	calendarRepository domain.CalendarRepository,
	eventRepository domain.EventRepository,
	permissions *PermissionService,
	messageBuilder domain.MessageBuilder,
	config ServiceConfig,
) *CalendarService {
	return &CalendarService{
		CalendarTypeRepository: calendarTypeRepository,
		CalendarRepository:     calendarRepository,
		EventRepository:        eventRepository,
		Permissions:            permissions,
		MessageBuilder:         messageBuilder,
		Config:                 config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *CalendarService) ServiceReady() bool {
	return s.CalendarTypeRepository != nil &&
		s.CalendarRepository != nil &&
		s.EventRepository != nil &&
		s.Permissions != nil &&
		s.MessageBuilder != nil
}

// defaultCalendarTypes is the taxonomy seeded on first startup. Types are
// administrative data and never user-mutated at runtime.
var defaultCalendarTypes = []*models.CalendarType{
	{UID: "network-events", Name: "Network Events", Level: models.CalendarLevelNetwork, DefaultVisibility: models.VisibilityPublic, CanShareAcrossChurches: true},
	{UID: "church-services", Name: "Church Services", Level: models.CalendarLevelChurch, DefaultVisibility: models.VisibilityPublic, CanShareAcrossChurches: true},
	{UID: "church-internal", Name: "Church Internal", Level: models.CalendarLevelChurch, DefaultVisibility: models.VisibilityMembers, CanShareAcrossChurches: false},
	{UID: "ministry-activities", Name: "Ministry Activities", Level: models.CalendarLevelMinistry, DefaultVisibility: models.VisibilityMembers, CanShareAcrossChurches: true},
	{UID: "personal", Name: "Personal", Level: models.CalendarLevelPersonal, DefaultVisibility: models.VisibilityLeadership, CanShareAcrossChurches: false},
}

// SeedCalendarTypes writes the default taxonomy if the bucket is empty.
// Called once at startup; a non-empty bucket is left untouched.
func (s *CalendarService) SeedCalendarTypes(ctx context.Context) error {
	if !s.ServiceReady() {
		return domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}

	existing, err := s.CalendarTypeRepository.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.DebugContext(ctx, "calendar types already seeded", "count", len(existing))
		return nil
	}

	for _, calendarType := range defaultCalendarTypes {
		if err := s.CalendarTypeRepository.Create(ctx, calendarType); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "seeded default calendar types", "count", len(defaultCalendarTypes))
	return nil
}

// ListCalendarTypes returns the calendar type taxonomy.
func (s *CalendarService) ListCalendarTypes(ctx context.Context) ([]*models.CalendarType, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}
	return s.CalendarTypeRepository.ListAll(ctx)
}

func (s *CalendarService) validateCreateCalendarPayload(ctx context.Context, payload *models.Calendar) error {
	if payload == nil {
		return domain.NewValidationError("calendar payload is required")
	}
	if payload.Name == "" {
		return domain.NewValidationError("calendar name is required")
	}
	if !payload.Level.IsValid() {
		return domain.NewValidationError("unknown calendar level: " + string(payload.Level))
	}

	calendarType, err := s.CalendarTypeRepository.Get(ctx, payload.TypeUID)
	if err != nil {
		return domain.NewValidationError("unknown calendar type: "+payload.TypeUID, err)
	}
	if calendarType.Level != payload.Level {
		return domain.NewValidationError("calendar level does not match its type level")
	}

	if err := payload.Owner.Validate(payload.Level); err != nil {
		return domain.NewValidationError("invalid calendar owner", domain.ErrInvalidOwnershipKind, err)
	}

	return nil
}

// canAdministerOwner reports whether the actor may create calendars for the
// given owner. Creation is not grant-driven: the calendar does not exist yet.
func canAdministerOwner(actor domain.Actor, owner models.OwnerRef) bool {
	if actor.IsGlobalAdmin() {
		return true
	}
	switch owner.Kind {
	case models.OwnerKindUser:
		return owner.UID == actor.UID
	case models.OwnerKindChurch, models.OwnerKindMinistry:
		return actor.MemberOf(owner.UID)
	default:
		return false
	}
}

// CreateCalendar registers a new calendar.
func (s *CalendarService) CreateCalendar(ctx context.Context, actor domain.Actor, payload *models.Calendar) (*models.Calendar, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}

	if err := s.validateCreateCalendarPayload(ctx, payload); err != nil {
		return nil, err
	}

	if !canAdministerOwner(actor, payload.Owner) {
		return nil, domain.NewPermissionDeniedError("actor may not create calendars for this owner")
	}

	now := time.Now().UTC()
	calendar := *payload
	if calendar.UID == "" {
		calendar.UID = uuid.New().String()
	}
	calendar.IsActive = true
	calendar.CreatedAt = utils.TimePtr(now)
	calendar.UpdatedAt = utils.TimePtr(now)

	ctx = logging.AppendCtx(ctx, slog.String("calendar_uid", calendar.UID))

	if err := s.CalendarRepository.Create(ctx, &calendar); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "created calendar", "level", calendar.Level, "owner_kind", calendar.Owner.Kind)

	if err := s.MessageBuilder.SendIndexCalendar(ctx, models.ActionCreated, calendar); err != nil {
		slog.ErrorContext(ctx, "failed to send calendar indexing message", logging.ErrKey, err)
	}

	return &calendar, nil
}

// UpdateCalendar updates the mutable fields of a calendar. Level, type and
// owner are fixed at creation.
func (s *CalendarService) UpdateCalendar(ctx context.Context, actor domain.Actor, payload *models.Calendar) (*models.Calendar, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}
	if payload == nil || payload.UID == "" {
		return nil, domain.NewValidationError("calendar uid is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_uid", payload.UID))

	allowed, err := s.Permissions.Evaluate(ctx, actor, payload.UID, models.PermissionAdmin)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("updating a calendar requires admin")
	}

	calendar, revision, err := s.CalendarRepository.GetWithRevision(ctx, payload.UID)
	if err != nil {
		return nil, err
	}

	if payload.Name != "" {
		calendar.Name = payload.Name
	}
	calendar.ColorCode = payload.ColorCode
	calendar.IsDefault = payload.IsDefault
	calendar.Settings = payload.Settings
	calendar.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if err := s.CalendarRepository.Update(ctx, calendar, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "updated calendar")

	if err := s.MessageBuilder.SendIndexCalendar(ctx, models.ActionUpdated, *calendar); err != nil {
		slog.ErrorContext(ctx, "failed to send calendar indexing message", logging.ErrKey, err)
	}

	return calendar, nil
}

// GetCalendar returns one calendar. The actor needs view permission.
func (s *CalendarService) GetCalendar(ctx context.Context, actor domain.Actor, calendarUID string) (*models.Calendar, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}

	allowed, err := s.Permissions.Evaluate(ctx, actor, calendarUID, models.PermissionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.NewPermissionDeniedError("viewing this calendar requires a grant")
	}

	return s.CalendarRepository.Get(ctx, calendarUID)
}

// ListCalendars returns every active calendar the actor can view.
func (s *CalendarService) ListCalendars(ctx context.Context, actor domain.Actor) ([]*models.Calendar, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}

	calendars, err := s.CalendarRepository.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	visible := []*models.Calendar{}
	for _, calendar := range calendars {
		if !calendar.IsActive {
			continue
		}
		allowed, err := s.Permissions.Evaluate(ctx, actor, calendar.UID, models.PermissionView)
		if err != nil {
			return nil, err
		}
		if allowed {
			visible = append(visible, calendar)
		}
	}

	return visible, nil
}

// DeactivateCalendar soft-deletes a calendar. A calendar that still has
// published events in the future is refused unless force is set, in which
// case those events are cancelled first.
func (s *CalendarService) DeactivateCalendar(ctx context.Context, actor domain.Actor, calendarUID string, force bool) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("calendar service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_uid", calendarUID))

	allowed, err := s.Permissions.Evaluate(ctx, actor, calendarUID, models.PermissionAdmin)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.NewPermissionDeniedError("deactivating a calendar requires admin")
	}

	calendar, revision, err := s.CalendarRepository.GetWithRevision(ctx, calendarUID)
	if err != nil {
		return err
	}

	events, err := s.EventRepository.ListByCalendar(ctx, calendarUID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var future []*models.CalendarEvent
	for _, event := range events {
		if event.Status == models.EventStatusPublished && event.EventDate.After(now) {
			future = append(future, event)
		}
	}

	if len(future) > 0 && !force {
		return domain.NewValidationError("calendar has future published events, use force to cancel them", domain.ErrCalendarHasFutureEvents)
	}

	for _, event := range future {
		stored, eventRevision, err := s.EventRepository.GetWithRevision(ctx, event.UID)
		if err != nil {
			return err
		}
		stored.Status = models.EventStatusCancelled
		stored.UpdatedAt = utils.TimePtr(now)
		if err := s.EventRepository.Update(ctx, stored, eventRevision); err != nil {
			return err
		}
		if err := s.MessageBuilder.SendIndexEvent(ctx, models.ActionUpdated, *stored); err != nil {
			slog.ErrorContext(ctx, "failed to send event indexing message", logging.ErrKey, err, "event_uid", stored.UID)
		}
	}
	if len(future) > 0 {
		slog.InfoContext(ctx, "cancelled future events on forced deactivation", "count", len(future))
	}

	calendar.IsActive = false
	calendar.UpdatedAt = utils.TimePtr(now)

	if err := s.CalendarRepository.Update(ctx, calendar, revision); err != nil {
		return err
	}

	slog.InfoContext(ctx, "deactivated calendar", "force", force)

	if err := s.MessageBuilder.SendIndexCalendar(ctx, models.ActionUpdated, *calendar); err != nil {
		slog.ErrorContext(ctx, "failed to send calendar indexing message", logging.ErrKey, err)
	}

	return nil
}
