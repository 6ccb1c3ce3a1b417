// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/internal/service"
)

// CalendarHandler handles calendar registry and permission ledger messages.
type CalendarHandler struct {
	calendarService   *service.CalendarService
	permissionService *service.PermissionService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(calendarService *service.CalendarService, permissionService *service.PermissionService) *CalendarHandler {
	return &CalendarHandler{
		calendarService:   calendarService,
		permissionService: permissionService,
	}
}

func (h *CalendarHandler) HandlerReady() bool {
	return h.calendarService.ServiceReady() && h.permissionService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *CalendarHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.CalendarCreateSubject:     h.HandleCalendarCreate,
		models.CalendarUpdateSubject:     h.HandleCalendarUpdate,
		models.CalendarDeactivateSubject: h.HandleCalendarDeactivate,
		models.CalendarGetSubject:        h.HandleCalendarGet,
		models.CalendarListSubject:       h.HandleCalendarList,
		models.CalendarTypesSubject:      h.HandleCalendarTypes,
		models.PermissionGrantSubject:    h.HandlePermissionGrant,
		models.PermissionRevokeSubject:   h.HandlePermissionRevoke,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		respond(ctx, msg, nil)
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		respond(ctx, msg, nil)
		return
	}
	respond(ctx, msg, response)
}

// respond replies to a request/reply message and logs a failed reply. Fired
// messages without a reply inbox are left alone.
func respond(ctx context.Context, msg domain.Message, response []byte) {
	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
	}
}

// HandleCalendarCreate is the message handler for the calendar-create subject.
func (h *CalendarHandler) HandleCalendarCreate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req calendarCreateRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling calendar create message", logging.ErrKey, err)
		return nil, err
	}
	if req.Calendar == nil {
		return nil, fmt.Errorf("calendar payload is required")
	}

	calendar, err := h.calendarService.CreateCalendar(ctx, req.Actor.toActor(), req.Calendar)
	if err != nil {
		return nil, err
	}
	return json.Marshal(calendar)
}

// HandleCalendarUpdate is the message handler for the calendar-update subject.
func (h *CalendarHandler) HandleCalendarUpdate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req calendarUpdateRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling calendar update message", logging.ErrKey, err)
		return nil, err
	}
	if req.Calendar == nil || req.Calendar.UID == "" {
		return nil, fmt.Errorf("calendar payload with uid is required")
	}

	calendar, err := h.calendarService.UpdateCalendar(ctx, req.Actor.toActor(), req.Calendar)
	if err != nil {
		return nil, err
	}
	return json.Marshal(calendar)
}

// HandleCalendarDeactivate is the message handler for the calendar-deactivate subject.
func (h *CalendarHandler) HandleCalendarDeactivate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req calendarDeactivateRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling calendar deactivate message", logging.ErrKey, err)
		return nil, err
	}
	if req.CalendarUID == "" {
		return nil, fmt.Errorf("calendar UID is required")
	}

	if err := h.calendarService.DeactivateCalendar(ctx, req.Actor.toActor(), req.CalendarUID, req.Force); err != nil {
		return nil, err
	}
	return []byte("success"), nil
}

// HandleCalendarGet is the message handler for the calendar-get subject.
func (h *CalendarHandler) HandleCalendarGet(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req calendarGetRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling calendar get message", logging.ErrKey, err)
		return nil, err
	}
	if req.CalendarUID == "" {
		return nil, fmt.Errorf("calendar UID is required")
	}

	calendar, err := h.calendarService.GetCalendar(ctx, req.Actor.toActor(), req.CalendarUID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(calendar)
}

// HandleCalendarTypes is the message handler for the calendar-types subject.
// The taxonomy is administrative data, readable by any caller.
func (h *CalendarHandler) HandleCalendarTypes(ctx context.Context, _ domain.Message) ([]byte, error) {
	types, err := h.calendarService.ListCalendarTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []*models.CalendarType{}
	}
	return json.Marshal(types)
}

// HandleCalendarList is the message handler for the calendar-list subject.
// The response is the actor's visible calendars; an empty set is a valid
// answer, not an error.
func (h *CalendarHandler) HandleCalendarList(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req calendarListRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling calendar list message", logging.ErrKey, err)
		return nil, err
	}

	calendars, err := h.calendarService.ListCalendars(ctx, req.Actor.toActor())
	if err != nil {
		return nil, err
	}
	if calendars == nil {
		calendars = []*models.Calendar{}
	}
	return json.Marshal(calendars)
}

// HandlePermissionGrant is the message handler for the permission-grant subject.
func (h *CalendarHandler) HandlePermissionGrant(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req permissionGrantRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling permission grant message", logging.ErrKey, err)
		return nil, err
	}
	if req.CalendarUID == "" {
		return nil, fmt.Errorf("calendar UID is required")
	}

	permission, err := h.permissionService.Grant(ctx, req.Actor.toActor(), req.CalendarUID, req.Grantee, req.Type, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(permission)
}

// HandlePermissionRevoke is the message handler for the permission-revoke subject.
func (h *CalendarHandler) HandlePermissionRevoke(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req permissionRevokeRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling permission revoke message", logging.ErrKey, err)
		return nil, err
	}
	if req.PermissionUID == "" {
		return nil, fmt.Errorf("permission UID is required")
	}

	if err := h.permissionService.Revoke(ctx, req.Actor.toActor(), req.PermissionUID); err != nil {
		return nil, err
	}
	return []byte("success"), nil
}
