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

// SyncHandler handles personal calendar sync and availability messages.
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

func (h *SyncHandler) HandlerReady() bool {
	return h.syncService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *SyncHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.SyncConnectSubject:      h.HandleSyncConnect,
		models.SyncDisconnectSubject:   h.HandleSyncDisconnect,
		models.SyncTriggerSubject:      h.HandleSyncTrigger,
		models.SyncRetrySubject:        h.HandleSyncRetry,
		models.SyncListSubject:         h.HandleSyncList,
		models.AvailabilityListSubject: h.HandleAvailabilityList,
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

// HandleSyncConnect is the message handler for the sync-connect subject.
func (h *SyncHandler) HandleSyncConnect(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req syncConnectRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling sync connect message", logging.ErrKey, err)
		return nil, err
	}
	if req.Sync == nil {
		return nil, fmt.Errorf("sync payload is required")
	}

	row, err := h.syncService.Connect(ctx, req.Actor.toActor(), req.Sync)
	if err != nil {
		return nil, err
	}
	return json.Marshal(row)
}

// HandleSyncDisconnect is the message handler for the sync-disconnect subject.
func (h *SyncHandler) HandleSyncDisconnect(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req syncDisconnectRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling sync disconnect message", logging.ErrKey, err)
		return nil, err
	}
	if req.SyncUID == "" {
		return nil, fmt.Errorf("sync UID is required")
	}

	if err := h.syncService.Disconnect(ctx, req.Actor.toActor(), req.SyncUID); err != nil {
		return nil, err
	}
	return []byte("success"), nil
}

// HandleSyncTrigger is the message handler for the sync-trigger subject. The
// cycle runs inline so the reply reflects its outcome.
func (h *SyncHandler) HandleSyncTrigger(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req syncTriggerRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling sync trigger message", logging.ErrKey, err)
		return nil, err
	}
	if req.SyncUID == "" {
		return nil, fmt.Errorf("sync UID is required")
	}

	if err := h.syncService.TriggerSync(ctx, req.Actor.toActor(), req.SyncUID); err != nil {
		return nil, err
	}
	return []byte("success"), nil
}

// HandleSyncRetry is the message handler for the sync-retry subject. Retry
// only applies to rows sitting in the error state.
func (h *SyncHandler) HandleSyncRetry(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req syncRetryRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling sync retry message", logging.ErrKey, err)
		return nil, err
	}
	if req.SyncUID == "" {
		return nil, fmt.Errorf("sync UID is required")
	}

	if err := h.syncService.Retry(ctx, req.Actor.toActor(), req.SyncUID); err != nil {
		return nil, err
	}
	return []byte("success"), nil
}

// HandleSyncList is the message handler for the sync-list subject.
func (h *SyncHandler) HandleSyncList(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req syncListRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling sync list message", logging.ErrKey, err)
		return nil, err
	}
	if req.UserUID == "" {
		return nil, fmt.Errorf("user UID is required")
	}

	rows, err := h.syncService.ListForUser(ctx, req.Actor.toActor(), req.UserUID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.PersonalCalendarSync{}
	}
	return json.Marshal(rows)
}

// HandleAvailabilityList is the message handler for the availability-list
// subject. A user with no blocks in the window gets an empty set.
func (h *SyncHandler) HandleAvailabilityList(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req availabilityListRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling availability list message", logging.ErrKey, err)
		return nil, err
	}

	blocks, err := h.syncService.ListAvailability(ctx, req.Actor.toActor(), req.UserUID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blocks)
}
