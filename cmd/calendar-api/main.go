// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

// Package main is the calendar service API that handles NATS messages for
// calendar, event, permission, and personal-sync commands across the church
// network, and runs the background sync scheduler.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/handlers"
	"github.com/churchnet/calendar-service/internal/infrastructure/email"
	"github.com/churchnet/calendar-service/internal/infrastructure/messaging"
	"github.com/churchnet/calendar-service/internal/infrastructure/providers"
	"github.com/churchnet/calendar-service/internal/infrastructure/providers/icsfeed"
	"github.com/churchnet/calendar-service/internal/infrastructure/providers/oauthcal"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/internal/scheduler"
	"github.com/churchnet/calendar-service/internal/service"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Initialize external calendar providers.
	providerRegistry := setupProviders(env)

	// Initialize the notifier (independent of NATS).
	notifier, err := setupNotifier(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up email notifier")
		return
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		FirstApproverUID:     env.FirstApproverUID,
		FirstApproverEmail:   env.FirstApproverEmail,
		FinalApproverUID:     env.FinalApproverUID,
		FinalApproverEmail:   env.FinalApproverEmail,
		SyncWorkerCount:      env.SyncWorkerCount,
		NotificationsEnabled: env.NotificationsEnabled,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	permissionService := service.NewPermissionService(
		repos.Permission,
		repos.Calendar,
		serviceConfig,
	)
	calendarService := service.NewCalendarService(
		repos.CalendarType,
		repos.Calendar,
		repos.Event,
		permissionService,
		messageBuilder,
		serviceConfig,
	)
	occurrenceService := service.NewOccurrenceService()
	conflictService := service.NewConflictService(
		repos.Event,
		repos.Calendar,
		repos.Attendee,
		repos.Availability,
		repos.Conflict,
		permissionService,
		messageBuilder,
		serviceConfig,
	)
	eventService := service.NewEventService(
		repos.Event,
		repos.Approval,
		repos.Calendar,
		repos.Attendee,
		repos.Conflict,
		conflictService,
		permissionService,
		occurrenceService,
		messageBuilder,
		notifier,
		serviceConfig,
	)
	syncService := service.NewSyncService(
		repos.Sync,
		repos.Availability,
		repos.Event,
		repos.Attendee,
		repos.Conflict,
		providerRegistry,
		messageBuilder,
		notifier,
		serviceConfig,
	)

	// Seed the calendar type taxonomy on first startup.
	if err := calendarService.SeedCalendarTypes(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error seeding calendar types")
		return
	}

	// Initialize handlers
	calendarHandler := handlers.NewCalendarHandler(calendarService, permissionService)
	eventHandler := handlers.NewEventHandler(eventService, conflictService)
	syncHandler := handlers.NewSyncHandler(syncService)

	httpServer := setupHTTPServer(
		flags,
		allHandlersReady(calendarHandler, eventHandler, syncHandler),
		&gracefulCloseWG,
	)

	// Create NATS subscriptions for the service.
	subjects := handlersBySubject(calendarHandler, eventHandler, syncHandler)
	err = createNatsSubscriptions(ctx, natsConn, subjects)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// Start the background sync scheduler.
	syncScheduler := scheduler.NewSyncScheduler(syncService, env.SyncWorkerCount)
	if err := syncScheduler.Start(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error starting sync scheduler")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	syncScheduler.Stop()
	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}

// setupProviders registers every configured external calendar provider. The
// ICS feed provider needs no configuration; OAuth providers register only
// when a client ID is set.
func setupProviders(env environment) domain.ProviderRegistry {
	registry := providers.NewRegistry()
	registry.RegisterProvider(icsfeed.ProviderName, icsfeed.NewProvider())

	for _, config := range []oauthcal.Config{env.Google, env.Outlook} {
		if config.ClientID == "" {
			continue
		}
		registry.RegisterProvider(config.Name, oauthcal.NewProvider(config))
		slog.With("provider", config.Name).Info("registered OAuth calendar provider")
	}

	return registry
}

// setupNotifier selects the notification backend. Without an SMTP host the
// service runs with notifications logged but not delivered.
func setupNotifier(env environment) (domain.Notifier, error) {
	if env.SMTP.Host == "" {
		slog.Info("SMTP_HOST not set, email notifications disabled")
		return email.NewNoOpService(), nil
	}
	return email.NewSMTPService(env.SMTP)
}
