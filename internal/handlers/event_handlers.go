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

// EventHandler handles event lifecycle, RSVP and conflict messages.
type EventHandler struct {
	eventService    *service.EventService
	conflictService *service.ConflictService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *service.EventService, conflictService *service.ConflictService) *EventHandler {
	return &EventHandler{
		eventService:    eventService,
		conflictService: conflictService,
	}
}

func (h *EventHandler) HandlerReady() bool {
	return h.eventService.ServiceReady() && h.conflictService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *EventHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.EventCreateSubject:     h.HandleEventCreate,
		models.EventUpdateSubject:     h.HandleEventUpdate,
		models.EventTransitionSubject: h.HandleEventTransition,
		models.EventRSVPSubject:       h.HandleEventRSVP,
		models.EventInviteSubject:     h.HandleEventInvite,
		models.EventGetSubject:        h.HandleEventGet,
		models.EventListSubject:       h.HandleEventList,
		models.EventHistorySubject:    h.HandleEventHistory,
		models.ConflictResolveSubject: h.HandleConflictResolve,
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

// HandleEventCreate is the message handler for the event-create subject. The
// response carries the stored event together with the advisory conflicts the
// pre-screening found.
func (h *EventHandler) HandleEventCreate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventCreateRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event create message", logging.ErrKey, err)
		return nil, err
	}
	if req.Event == nil {
		return nil, fmt.Errorf("event payload is required")
	}

	event, conflicts, err := h.eventService.CreateEvent(ctx, req.Actor.toActor(), req.Event)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*models.EventConflict{}
	}
	return json.Marshal(eventCreateResponse{Event: event, Conflicts: conflicts})
}

// HandleEventUpdate is the message handler for the event-update subject.
func (h *EventHandler) HandleEventUpdate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventUpdateRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event update message", logging.ErrKey, err)
		return nil, err
	}
	if req.Event == nil || req.Event.UID == "" {
		return nil, fmt.Errorf("event payload with uid is required")
	}

	event, conflicts, err := h.eventService.UpdateEvent(ctx, req.Actor.toActor(), req.Event)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*models.EventConflict{}
	}
	return json.Marshal(eventCreateResponse{Event: event, Conflicts: conflicts})
}

// HandleEventTransition is the message handler for the event-transition subject.
func (h *EventHandler) HandleEventTransition(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventTransitionRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event transition message", logging.ErrKey, err)
		return nil, err
	}
	if req.EventUID == "" {
		return nil, fmt.Errorf("event UID is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_uid", req.EventUID))

	event, err := h.eventService.Transition(ctx, req.Actor.toActor(), req.EventUID, req.Action, req.Comments)
	if err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// HandleEventRSVP is the message handler for the event-rsvp subject.
func (h *EventHandler) HandleEventRSVP(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventRSVPRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event rsvp message", logging.ErrKey, err)
		return nil, err
	}
	if req.EventUID == "" {
		return nil, fmt.Errorf("event UID is required")
	}

	attendee, err := h.eventService.RSVP(ctx, req.Actor.toActor(), req.EventUID, req.Status)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attendee)
}

// HandleEventInvite is the message handler for the event-invite subject.
func (h *EventHandler) HandleEventInvite(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventInviteRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event invite message", logging.ErrKey, err)
		return nil, err
	}
	if req.EventUID == "" {
		return nil, fmt.Errorf("event UID is required")
	}
	if req.Attendee.UserUID == "" {
		return nil, fmt.Errorf("attendee user UID is required")
	}

	attendee, err := h.eventService.InviteAttendee(ctx, req.Actor.toActor(), req.EventUID, req.Attendee)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attendee)
}

// HandleEventHistory is the message handler for the event-history subject.
// The response is the full approval audit trail, oldest first.
func (h *EventHandler) HandleEventHistory(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventHistoryRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event history message", logging.ErrKey, err)
		return nil, err
	}
	if req.EventUID == "" {
		return nil, fmt.Errorf("event UID is required")
	}

	history, err := h.eventService.ApprovalHistory(ctx, req.Actor.toActor(), req.EventUID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.EventApproval{}
	}
	return json.Marshal(history)
}

// HandleEventGet is the message handler for the event-get subject.
func (h *EventHandler) HandleEventGet(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventGetRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event get message", logging.ErrKey, err)
		return nil, err
	}
	if req.EventUID == "" {
		return nil, fmt.Errorf("event UID is required")
	}

	details, err := h.eventService.GetEvent(ctx, req.Actor.toActor(), req.EventUID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(details)
}

// HandleEventList is the message handler for the event-list subject. Empty
// windows and invisible calendars yield empty sets, not errors.
func (h *EventHandler) HandleEventList(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req eventListRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling event list message", logging.ErrKey, err)
		return nil, err
	}

	listing, err := h.eventService.ListEvents(ctx, req.Actor.toActor(), req.CalendarUIDs, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return json.Marshal(listing)
}

// HandleConflictResolve is the message handler for the conflict-resolve subject.
func (h *EventHandler) HandleConflictResolve(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req conflictResolveRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling conflict resolve message", logging.ErrKey, err)
		return nil, err
	}
	if req.ConflictUID == "" {
		return nil, fmt.Errorf("conflict UID is required")
	}

	conflict, err := h.conflictService.Resolve(ctx, req.Actor.toActor(), req.ConflictUID, req.Resolution)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conflict)
}
