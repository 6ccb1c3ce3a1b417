// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/infrastructure/messaging"
	"github.com/churchnet/calendar-service/internal/infrastructure/store"
	"github.com/churchnet/calendar-service/internal/logging"
)

// gracefulShutdownSeconds should be higher than NATS client request timeout.
const gracefulShutdownSeconds = 25

// setupNATS establishes the NATS connection with reconnection handling.
// A permanently closed connection signals the done channel so the process
// exits instead of running disconnected.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).InfoContext(ctx, "NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).ErrorContext(ctx, "async NATS error")
			} else {
				slog.With(logging.ErrKey, err).ErrorContext(ctx, "async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(c *nats.Conn) {
			err := c.LastError()
			if err != nil {
				slog.With(logging.ErrKey, err).ErrorContext(ctx, "NATS connection closed")
			} else {
				slog.InfoContext(ctx, "NATS connection closed")
			}
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		<-ctx.Done()
		if natsConn.IsClosed() {
			return
		}
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).ErrorContext(ctx, "error draining NATS connection")
		}
	}()

	return natsConn, nil
}

// repositories bundles every NATS KV backed repository the service uses.
type repositories struct {
	CalendarType *store.NatsCalendarTypeRepository
	Calendar     *store.NatsCalendarRepository
	Event        *store.NatsEventRepository
	Approval     *store.NatsApprovalRepository
	Permission   *store.NatsPermissionRepository
	Attendee     *store.NatsAttendeeRepository
	Sync         *store.NatsSyncRepository
	Availability *store.NatsAvailabilityRepository
	Conflict     *store.NatsConflictRepository
}

// getKeyValueStores binds the KV buckets for the service, creating any that
// do not exist yet.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]jetstream.KeyValue)
	for _, name := range []string{
		store.KVStoreNameCalendarTypes,
		store.KVStoreNameCalendars,
		store.KVStoreNameEvents,
		store.KVStoreNameApprovals,
		store.KVStoreNamePermissions,
		store.KVStoreNameAttendees,
		store.KVStoreNameSyncs,
		store.KVStoreNameAvailability,
		store.KVStoreNameConflicts,
	} {
		bucket, err := js.KeyValue(ctx, name)
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			bucket, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: name})
		}
		if err != nil {
			slog.With(logging.ErrKey, err, "bucket", name).ErrorContext(ctx, "error binding key-value bucket")
			return nil, err
		}
		buckets[name] = bucket
	}

	return &repositories{
		CalendarType: store.NewNatsCalendarTypeRepository(buckets[store.KVStoreNameCalendarTypes]),
		Calendar:     store.NewNatsCalendarRepository(buckets[store.KVStoreNameCalendars]),
		Event:        store.NewNatsEventRepository(buckets[store.KVStoreNameEvents]),
		Approval:     store.NewNatsApprovalRepository(buckets[store.KVStoreNameApprovals]),
		Permission:   store.NewNatsPermissionRepository(buckets[store.KVStoreNamePermissions]),
		Attendee:     store.NewNatsAttendeeRepository(buckets[store.KVStoreNameAttendees]),
		Sync:         store.NewNatsSyncRepository(buckets[store.KVStoreNameSyncs]),
		Availability: store.NewNatsAvailabilityRepository(buckets[store.KVStoreNameAvailability]),
		Conflict:     store.NewNatsConflictRepository(buckets[store.KVStoreNameConflicts]),
	}, nil
}

// handlersBySubject maps each command subject to the handler that serves it.
func handlersBySubject(calendarHandler, eventHandler, syncHandler domain.MessageHandler) map[string]domain.MessageHandler {
	return map[string]domain.MessageHandler{
		models.CalendarCreateSubject:     calendarHandler,
		models.CalendarUpdateSubject:     calendarHandler,
		models.CalendarDeactivateSubject: calendarHandler,
		models.CalendarGetSubject:        calendarHandler,
		models.CalendarListSubject:       calendarHandler,
		models.CalendarTypesSubject:      calendarHandler,
		models.PermissionGrantSubject:    calendarHandler,
		models.PermissionRevokeSubject:   calendarHandler,
		models.EventCreateSubject:        eventHandler,
		models.EventUpdateSubject:        eventHandler,
		models.EventTransitionSubject:    eventHandler,
		models.EventRSVPSubject:          eventHandler,
		models.EventInviteSubject:        eventHandler,
		models.EventGetSubject:           eventHandler,
		models.EventListSubject:          eventHandler,
		models.EventHistorySubject:       eventHandler,
		models.ConflictResolveSubject:    eventHandler,
		models.AvailabilityListSubject:   syncHandler,
		models.SyncConnectSubject:        syncHandler,
		models.SyncDisconnectSubject:     syncHandler,
		models.SyncTriggerSubject:        syncHandler,
		models.SyncRetrySubject:          syncHandler,
		models.SyncListSubject:           syncHandler,
	}
}

// createNatsSubscriptions queue-subscribes every command subject. Handlers
// run on the NATS delivery goroutine; each message carries a fresh context
// rooted in the server context.
func createNatsSubscriptions(ctx context.Context, natsConn *nats.Conn, subjects map[string]domain.MessageHandler) error {
	for subject, handler := range subjects {
		handler := handler
		_, err := natsConn.QueueSubscribe(subject, models.CalendarAPIQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNATSMessage(msg))
		})
		if err != nil {
			slog.With(logging.ErrKey, err, "subject", subject).ErrorContext(ctx, "error creating NATS subscription")
			return err
		}
		slog.With("subject", subject, "queue", models.CalendarAPIQueue).DebugContext(ctx, "subscribed to NATS subject")
	}
	return nil
}

// gracefulShutdown drains the HTTP server and the NATS connection, bounded
// by the shutdown timeout.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down http server")
	}

	// Cancel the server context so the NATS drain goroutine runs, then wait
	// for everything to close.
	cancel()
	gracefulCloseWG.Wait()

	if !natsConn.IsClosed() {
		natsConn.Close()
	}
	slog.Info("shutdown complete")
}
