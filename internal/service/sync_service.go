// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/pkg/constants"
	"github.com/churchnet/calendar-service/pkg/utils"
)

// SyncService reconciles personal external calendars. Each sync row is owned
// by exactly one cycle at a time; workers share no mutable state and
// coordinate only through the store. A cycle is idempotent: replaying it
// against an unchanged remote calendar leaves the store unchanged.
type SyncService struct {
	SyncRepository         domain.SyncRepository
	AvailabilityRepository domain.AvailabilityRepository
	EventRepository        domain.EventRepository
	AttendeeRepository     domain.AttendeeRepository
	ConflictRepository     domain.ConflictRepository
	ProviderRegistry       domain.ProviderRegistry
	MessageBuilder         domain.MessageBuilder
	Notifier               domain.Notifier
	Config                 ServiceConfig

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	syncRepository domain.SyncRepository,
	availabilityRepository domain.AvailabilityRepository,
	eventRepository domain.EventRepository,
	attendeeRepository domain.AttendeeRepository,
	conflictRepository domain.ConflictRepository,
	providerRegistry domain.ProviderRegistry,
	messageBuilder domain.MessageBuilder,
	notifier domain.Notifier,
	config ServiceConfig,
) *SyncService {
	return &SyncService{
		SyncRepository:         syncRepository,
		AvailabilityRepository: availabilityRepository,
		EventRepository:        eventRepository,
		AttendeeRepository:     attendeeRepository,
		ConflictRepository:     conflictRepository,
		ProviderRegistry:       providerRegistry,
		MessageBuilder:         messageBuilder,
		Notifier:               notifier,
		Config:                 config,
		inflight:               make(map[string]context.CancelFunc),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SyncService) ServiceReady() bool {
	return s.SyncRepository != nil &&
		s.AvailabilityRepository != nil &&
		s.EventRepository != nil &&
		s.AttendeeRepository != nil &&
		s.ConflictRepository != nil &&
		s.ProviderRegistry != nil &&
		s.MessageBuilder != nil
}

// Connect registers an external calendar connection for a user. One row
// exists per (user, provider) pair.
func (s *SyncService) Connect(ctx context.Context, actor domain.Actor, payload *models.PersonalCalendarSync) (*models.PersonalCalendarSync, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	if payload == nil {
		return nil, domain.NewValidationError("sync payload is required")
	}
	if payload.UserUID == "" {
		return nil, domain.NewValidationError("sync user uid is required")
	}
	if payload.ProviderCalendarID == "" {
		return nil, domain.NewValidationError("provider calendar id is required")
	}
	if actor.UID != payload.UserUID && !actor.IsGlobalAdmin() {
		return nil, domain.NewPermissionDeniedError("users connect only their own calendars")
	}

	if _, err := s.ProviderRegistry.GetProvider(payload.Provider); err != nil {
		return nil, domain.NewValidationError("unknown calendar provider: "+payload.Provider, err)
	}
	switch payload.Direction {
	case models.SyncDirectionImportOnly, models.SyncDirectionExportOnly, models.SyncDirectionBidirectional:
	default:
		return nil, domain.NewValidationError("unknown sync direction: " + string(payload.Direction))
	}
	switch payload.Frequency {
	case models.SyncFrequencyRealTime, models.SyncFrequencyHourly, models.SyncFrequencyDaily, models.SyncFrequencyManual:
	default:
		return nil, domain.NewValidationError("unknown sync frequency: " + string(payload.Frequency))
	}

	existing, err := s.SyncRepository.ListByUser(ctx, payload.UserUID)
	if err != nil {
		return nil, err
	}
	for _, row := range existing {
		if row.Status == models.SyncStatusDisconnected {
			continue
		}
		if row.Provider == payload.Provider {
			return nil, domain.NewValidationError("a connection for this provider already exists")
		}
		if payload.IsPrimary && row.IsPrimary {
			return nil, domain.NewValidationError("a primary calendar connection already exists")
		}
	}

	now := time.Now().UTC()
	row := *payload
	if row.UID == "" {
		row.UID = uuid.New().String()
	}
	row.Status = models.SyncStatusActive
	row.ErrorMessage = ""
	row.ConsecutiveFailures = 0
	row.LastSyncAt = nil
	row.CreatedAt = utils.TimePtr(now)
	row.UpdatedAt = utils.TimePtr(now)

	if err := s.SyncRepository.Create(ctx, &row); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "connected external calendar",
		"sync_uid", row.UID,
		"user_uid", row.UserUID,
		"provider", row.Provider,
		"direction", row.Direction,
	)

	return &row, nil
}

// Disconnect soft-disconnects a sync row, cancels any in-flight cycle and
// drops the availability blocks derived from the provider.
func (s *SyncService) Disconnect(ctx context.Context, actor domain.Actor, syncUID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("sync_uid", syncUID))

	row, revision, err := s.SyncRepository.GetWithRevision(ctx, syncUID)
	if err != nil {
		return err
	}
	if actor.UID != row.UserUID && !actor.IsGlobalAdmin() {
		return domain.NewPermissionDeniedError("users disconnect only their own calendars")
	}

	s.cancelInflight(syncUID)

	if row.Status == models.SyncStatusDisconnected {
		slog.DebugContext(ctx, "sync already disconnected")
		return nil
	}

	row.Status = models.SyncStatusDisconnected
	row.UpdatedAt = utils.TimePtr(time.Now().UTC())
	if err := s.SyncRepository.Update(ctx, row, revision); err != nil {
		return err
	}

	if err := s.AvailabilityRepository.ReplaceForSource(ctx, row.UserUID, row.Provider, nil); err != nil {
		slog.ErrorContext(ctx, "failed to drop derived availability", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "disconnected external calendar", "provider", row.Provider)
	return nil
}

// Retry moves an errored sync row back to active so the scheduler picks it
// up again.
func (s *SyncService) Retry(ctx context.Context, actor domain.Actor, syncUID string) error {
	if !s.ServiceReady() {
		return domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("sync_uid", syncUID))

	row, revision, err := s.SyncRepository.GetWithRevision(ctx, syncUID)
	if err != nil {
		return err
	}
	if actor.UID != row.UserUID && !actor.IsGlobalAdmin() {
		return domain.NewPermissionDeniedError("users retry only their own calendars")
	}
	if row.Status != models.SyncStatusError && row.Status != models.SyncStatusDisconnected {
		return domain.NewInvalidTransitionError("only errored or disconnected connections can be retried")
	}

	row.Status = models.SyncStatusActive
	row.ErrorMessage = ""
	row.ConsecutiveFailures = 0
	row.UpdatedAt = utils.TimePtr(time.Now().UTC())
	return s.SyncRepository.Update(ctx, row, revision)
}

// TriggerSync runs a cycle for the row immediately, regardless of frequency.
func (s *SyncService) TriggerSync(ctx context.Context, actor domain.Actor, syncUID string) error {
	if !s.ServiceReady() {
		return domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}

	row, err := s.SyncRepository.Get(ctx, syncUID)
	if err != nil {
		return err
	}
	if actor.UID != row.UserUID && !actor.IsGlobalAdmin() {
		return domain.NewPermissionDeniedError("users trigger only their own calendars")
	}

	return s.RunCycle(ctx, syncUID)
}

// ListForUser returns the user's sync rows.
func (s *SyncService) ListForUser(ctx context.Context, actor domain.Actor, userUID string) ([]*models.PersonalCalendarSync, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	if actor.UID != userUID && !actor.IsGlobalAdmin() {
		return nil, domain.NewPermissionDeniedError("users list only their own calendars")
	}
	return s.SyncRepository.ListByUser(ctx, userUID)
}

// ListAvailability returns the user's availability blocks within [from, to].
// Anyone may query, but private block details are masked for everyone except
// the owner.
func (s *SyncService) ListAvailability(ctx context.Context, actor domain.Actor, userUID string, from, to time.Time) ([]models.PersonalAvailability, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	if userUID == "" {
		return nil, domain.NewValidationError("user uid is required")
	}
	if to.Before(from) {
		return nil, domain.NewValidationError("availability window end precedes its start")
	}

	rows, err := s.AvailabilityRepository.ListByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	owner := actor.UID == userUID || actor.IsGlobalAdmin()
	blocks := []models.PersonalAvailability{}
	for _, row := range rows {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		block := *row
		if !owner {
			block = block.Masked()
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// RunCycle reconciles one sync row. The cycle fetches the remote window,
// swaps the derived availability for the provider, pushes exports, and
// records the outcome on the row. Cancellation mid-cycle discards partial
// results; the next cycle sees the previous consistent state.
func (s *SyncService) RunCycle(ctx context.Context, syncUID string) error {
	if !s.ServiceReady() {
		return domain.NewUnavailableError("sync service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("sync_uid", syncUID))

	ctx, done := s.registerInflight(ctx, syncUID)
	defer done()

	row, revision, err := s.SyncRepository.GetWithRevision(ctx, syncUID)
	if err != nil {
		return err
	}
	if row.Status == models.SyncStatusPaused || row.Status == models.SyncStatusDisconnected {
		slog.DebugContext(ctx, "skipping cycle", "sync_status", row.Status)
		return nil
	}
	ctx = logging.AppendCtx(ctx, slog.String("provider", row.Provider))

	provider, err := s.ProviderRegistry.GetProvider(row.Provider)
	if err != nil {
		return s.recordFailure(ctx, row, revision, err)
	}

	now := time.Now().UTC()
	from, to := row.Window(now)

	var imported []*models.PersonalAvailability
	if row.Direction.Imports() {
		fetchCtx, cancel := context.WithTimeout(ctx, constants.ProviderFetchTimeout)
		remote, err := provider.ListEvents(fetchCtx, row.ProviderCalendarID, from, to)
		cancel()
		if err != nil {
			return s.recordFailure(ctx, row, revision, err)
		}

		imported = buildAvailabilityBlocks(row, remote)

		// A cancelled cycle must not leave a partial replacement behind.
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "cycle cancelled before persisting, discarding results")
			return err
		}
		if err := s.AvailabilityRepository.ReplaceForSource(ctx, row.UserUID, row.Provider, imported); err != nil {
			return s.recordFailure(ctx, row, revision, err)
		}
		slog.DebugContext(ctx, "replaced derived availability", "blocks", len(imported))
	}

	if row.Direction.Exports() {
		if err := s.pushExports(ctx, row, provider, imported, from, to); err != nil {
			return s.recordFailure(ctx, row, revision, err)
		}
	}

	row.Status = models.SyncStatusActive
	row.ErrorMessage = ""
	row.ConsecutiveFailures = 0
	row.LastSyncAt = utils.TimePtr(now)
	row.UpdatedAt = utils.TimePtr(now)
	if err := s.SyncRepository.Update(ctx, row, revision); err != nil {
		return err
	}

	slog.InfoContext(ctx, "sync cycle completed")
	return nil
}

// pushExports writes the user's published attended events to the provider.
// Import-only rows never reach here; the direction gates the call.
func (s *SyncService) pushExports(ctx context.Context, row *models.PersonalCalendarSync, provider domain.CalendarProvider, imported []*models.PersonalAvailability, from, to time.Time) error {
	if !provider.SupportsPush() {
		slog.WarnContext(ctx, "provider does not accept pushed events, skipping export")
		return nil
	}

	attendeeRows, err := s.AttendeeRepository.ListByUser(ctx, row.UserUID)
	if err != nil {
		return err
	}

	for _, attendee := range attendeeRows {
		if !attendee.CountsTowardCapacity() {
			continue
		}
		event, err := s.EventRepository.Get(ctx, attendee.EventUID)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return err
		}
		if event.Status != models.EventStatusPublished {
			continue
		}
		if event.EventDate.Before(from) || event.EventDate.After(to) {
			continue
		}

		if blockedRemotely(event, imported) {
			switch row.Settings.ConflictResolution {
			case models.ConflictResolutionRemoteWins:
				slog.DebugContext(ctx, "remote wins, skipping push", "event_uid", event.UID)
				continue
			case models.ConflictResolutionManual:
				s.surfaceSyncConflict(ctx, row, event)
				continue
			}
			// local_wins pushes regardless
		}

		pushCtx, cancel := context.WithTimeout(ctx, constants.ProviderFetchTimeout)
		err = provider.PushEvent(pushCtx, row.ProviderCalendarID, event)
		cancel()
		if err != nil {
			return err
		}
	}

	return nil
}

// blockedRemotely reports whether a remote busy block overlaps the event.
func blockedRemotely(event *models.CalendarEvent, imported []*models.PersonalAvailability) bool {
	for _, block := range imported {
		if block.Type.Blocks() && block.OverlapsTime(event.EventDate, event.StartTime, event.EndTime) {
			return true
		}
	}
	return false
}

// surfaceSyncConflict records a person conflict for manual resolution when a
// bidirectional sync finds both sides claiming the same slot.
func (s *SyncService) surfaceSyncConflict(ctx context.Context, row *models.PersonalCalendarSync, event *models.CalendarEvent) {
	conflict := &models.EventConflict{
		EventUID:   event.UID,
		UserUID:    row.UserUID,
		Type:       models.ConflictTypePerson,
		Severity:   models.ConflictSeverityMajor,
		Resolution: models.ConflictUnresolved,
		Detail:     "external " + row.Provider + " calendar has a competing booking",
		CreatedAt:  utils.TimePtr(time.Now().UTC()),
	}
	if err := s.ConflictRepository.Create(ctx, conflict); err != nil {
		slog.ErrorContext(ctx, "failed to record sync conflict", logging.ErrKey, err)
		return
	}
	if err := s.MessageBuilder.SendIndexConflict(ctx, models.ActionCreated, *conflict); err != nil {
		slog.ErrorContext(ctx, "failed to send conflict indexing message", logging.ErrKey, err)
	}
}

// buildAvailabilityBlocks converts remote events into derived availability
// rows. Free slots are dropped; private events keep only their busy state.
func buildAvailabilityBlocks(row *models.PersonalCalendarSync, remote []models.RemoteEvent) []*models.PersonalAvailability {
	blocks := []*models.PersonalAvailability{}
	for _, event := range remote {
		if !event.Busy && !event.Tentative {
			continue
		}
		blockType := models.AvailabilityBusy
		if event.Tentative {
			blockType = models.AvailabilityTentative
		}
		block := &models.PersonalAvailability{
			UserUID:   row.UserUID,
			Date:      event.Date,
			StartTime: event.StartTime,
			EndTime:   event.EndTime,
			Type:      blockType,
			Source:    row.Provider,
			IsPrivate: event.Private,
		}
		if !event.Private {
			block.Title = event.Title
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// recordFailure notes a failed cycle on the row. Three consecutive failures
// escalate to disconnected and notify the user.
func (s *SyncService) recordFailure(ctx context.Context, row *models.PersonalCalendarSync, revision uint64, cause error) error {
	row.ConsecutiveFailures++
	row.ErrorMessage = cause.Error()
	row.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if row.ConsecutiveFailures >= constants.MaxConsecutiveSyncFailures {
		row.Status = models.SyncStatusDisconnected
	} else {
		row.Status = models.SyncStatusError
	}

	if err := s.SyncRepository.Update(ctx, row, revision); err != nil {
		slog.ErrorContext(ctx, "failed to record sync failure", logging.ErrKey, err, logging.PriorityCritical())
		return err
	}

	slog.WarnContext(ctx, "sync cycle failed",
		logging.ErrKey, cause,
		"consecutive_failures", row.ConsecutiveFailures,
		"sync_status", row.Status,
	)

	if row.Status == models.SyncStatusDisconnected {
		s.notifyDisconnected(ctx, row)
	}

	return cause
}

// notifyDisconnected fans out the disconnection notices fire-and-forget.
func (s *SyncService) notifyDisconnected(ctx context.Context, row *models.PersonalCalendarSync) {
	notification := models.SyncNotification{
		SyncUID:      row.UID,
		UserUID:      row.UserUID,
		Provider:     row.Provider,
		Status:       row.Status,
		ErrorMessage: row.ErrorMessage,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.MessageBuilder.SendSyncNotification(ctx, notification); err != nil {
		slog.ErrorContext(ctx, "failed to publish sync notification", logging.ErrKey, err)
	}

	if s.Notifier == nil || !s.Config.NotificationsEnabled || row.NotifyEmail == "" {
		return
	}
	notice := domain.SyncDisconnectedNotice{
		RecipientEmail: row.NotifyEmail,
		Provider:       row.Provider,
		ErrorMessage:   row.ErrorMessage,
		FailedAt:       time.Now().UTC(),
	}
	if err := s.Notifier.SendSyncDisconnected(ctx, notice); err != nil {
		slog.ErrorContext(ctx, "failed to send disconnection email", logging.ErrKey, err)
	}
}

// registerInflight tracks the cycle so Disconnect can cancel it.
func (s *SyncService) registerInflight(ctx context.Context, syncUID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.inflight[syncUID] = cancel
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inflight[syncUID] != nil {
			delete(s.inflight, syncUID)
		}
		s.mu.Unlock()
		cancel()
	}
}

func (s *SyncService) cancelInflight(syncUID string) {
	s.mu.Lock()
	cancel := s.inflight[syncUID]
	delete(s.inflight, syncUID)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// syncBackoff is the bounded exponential retry schedule for errored rows.
const (
	syncBackoffInitial = time.Minute
	syncBackoffMax     = time.Hour
)

// Due reports whether a sync row should run at the given instant. Errored
// rows back off exponentially with each consecutive failure; manual rows
// only run when triggered.
func Due(row *models.PersonalCalendarSync, now time.Time) bool {
	if row == nil {
		return false
	}
	interval := row.Frequency.Interval()
	if interval == 0 {
		return false
	}
	if row.LastSyncAt == nil && row.Status != models.SyncStatusError {
		return true
	}

	if row.Status == models.SyncStatusError {
		backoff := syncBackoffInitial
		for i := 1; i < row.ConsecutiveFailures && backoff < syncBackoffMax; i++ {
			backoff *= 2
		}
		if backoff > syncBackoffMax {
			backoff = syncBackoffMax
		}
		if backoff > interval {
			interval = backoff
		}
		if row.UpdatedAt != nil {
			return !now.Before(row.UpdatedAt.Add(interval))
		}
		return true
	}

	return !now.Before(row.LastSyncAt.Add(interval))
}
