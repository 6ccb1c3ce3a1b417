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

// PermissionService manages cross-organization calendar sharing grants and
// evaluates whether an actor may perform an operation on a calendar.
type PermissionService struct {
	PermissionRepository domain.PermissionRepository
	CalendarRepository   domain.CalendarRepository
	Config               ServiceConfig
}

// NewPermissionService creates a new PermissionService.
func NewPermissionService(
	permissionRepository domain.PermissionRepository,
	calendarRepository domain.CalendarRepository,
	config ServiceConfig,
) *PermissionService {
	return &PermissionService{
		PermissionRepository: permissionRepository,
		CalendarRepository:   calendarRepository,
		Config:               config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *PermissionService) ServiceReady() bool {
	return s.PermissionRepository != nil &&
		s.CalendarRepository != nil
}

// Grant creates a sharing grant on a calendar. The granting actor must hold
// admin on the calendar or the global bypass claim.
func (s *PermissionService) Grant(
	ctx context.Context,
	actor domain.Actor,
	calendarUID string,
	grantee models.Grantee,
	permType models.PermissionType,
	expiresAt *time.Time,
) (*models.CalendarPermission, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("permission service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_uid", calendarUID))

	if err := grantee.Validate(); err != nil {
		return nil, domain.NewValidationError("invalid grantee", err)
	}
	if !permType.IsValid() {
		return nil, domain.NewValidationError("unknown permission type: " + string(permType))
	}
	if expiresAt != nil && !expiresAt.After(time.Now().UTC()) {
		return nil, domain.NewValidationError("expiration must be in the future")
	}

	exists, err := s.CalendarRepository.Exists(ctx, calendarUID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("calendar not found: " + calendarUID)
	}

	allowed, err := s.Evaluate(ctx, actor, calendarUID, models.PermissionAdmin)
	if err != nil {
		return nil, err
	}
	if !allowed {
		slog.WarnContext(ctx, "actor lacks admin on calendar", "actor_uid", actor.UID)
		return nil, domain.NewPermissionDeniedError("granting requires admin on the calendar", domain.ErrInsufficientPrivilege)
	}

	now := time.Now().UTC()
	permission := &models.CalendarPermission{
		UID:         uuid.New().String(),
		CalendarUID: calendarUID,
		Grantee:     grantee,
		Type:        permType,
		GrantedBy:   actor.UID,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		CreatedAt:   utils.TimePtr(now),
		UpdatedAt:   utils.TimePtr(now),
	}

	if err := s.PermissionRepository.Create(ctx, permission); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "granted calendar permission",
		"permission_uid", permission.UID,
		"grantee_kind", grantee.Kind,
		"grantee_uid", grantee.UID,
		"permission_type", permType,
	)

	return permission, nil
}

// Revoke soft-deactivates a grant. The row is kept so the grant history
// stays auditable.
func (s *PermissionService) Revoke(ctx context.Context, actor domain.Actor, permissionUID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("permission service not initialized", domain.ErrServiceUnavailable)
	}
	ctx = logging.AppendCtx(ctx, slog.String("permission_uid", permissionUID))

	permission, revision, err := s.PermissionRepository.GetWithRevision(ctx, permissionUID)
	if err != nil {
		return err
	}

	allowed, err := s.Evaluate(ctx, actor, permission.CalendarUID, models.PermissionAdmin)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.NewPermissionDeniedError("revoking requires admin on the calendar", domain.ErrInsufficientPrivilege)
	}

	if !permission.IsActive {
		slog.DebugContext(ctx, "permission already revoked")
		return nil
	}

	permission.IsActive = false
	permission.UpdatedAt = utils.TimePtr(time.Now().UTC())

	if err := s.PermissionRepository.Update(ctx, permission, revision); err != nil {
		return err
	}

	slog.InfoContext(ctx, "revoked calendar permission")
	return nil
}

// Evaluate reports whether the actor holds at least the required permission
// on the calendar. It is read-only and safe for concurrent use.
//
// An actor qualifies through, in order of decreasing strength:
// the global bypass claim, owning the calendar (personal calendars grant
// their owner admin), or an active unexpired grant whose grantee matches the
// actor directly, via organization membership, or via a role claim.
func (s *PermissionService) Evaluate(
	ctx context.Context,
	actor domain.Actor,
	calendarUID string,
	required models.PermissionType,
) (bool, error) {
	if !s.ServiceReady() {
		return false, domain.NewUnavailableError("permission service not initialized", domain.ErrServiceUnavailable)
	}
	if !required.IsValid() {
		return false, domain.NewValidationError("unknown permission type: " + string(required))
	}

	if actor.IsGlobalAdmin() {
		return true, nil
	}

	calendar, err := s.CalendarRepository.Get(ctx, calendarUID)
	if err != nil {
		return false, err
	}

	if calendar.Owner.Kind == models.OwnerKindUser && calendar.Owner.UID == actor.UID {
		return true, nil
	}

	grants, err := s.PermissionRepository.ListByCalendar(ctx, calendarUID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	for _, grant := range grants {
		if !grant.Effective(now) || !grant.Type.Covers(required) {
			continue
		}
		if s.granteeMatches(actor, grant.Grantee) {
			return true, nil
		}
	}

	return false, nil
}

// granteeMatches reports whether the actor is covered by the grantee union.
func (s *PermissionService) granteeMatches(actor domain.Actor, grantee models.Grantee) bool {
	switch grantee.Kind {
	case models.GranteeKindUser:
		return grantee.UID == actor.UID
	case models.GranteeKindChurch:
		return actor.MemberOf(grantee.UID)
	case models.GranteeKindRole:
		return actor.HasClaim(grantee.UID)
	default:
		return false
	}
}
