// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

// actorPayload is the inline identity every command message carries. The
// gateway resolves the caller's memberships and claims before publishing.
type actorPayload struct {
	UID             string   `json:"uid"`
	OrganizationIDs []string `json:"organization_ids,omitempty"`
	RoleClaims      []string `json:"role_claims,omitempty"`
}

func (p actorPayload) toActor() domain.Actor {
	return domain.Actor{
		UID:             p.UID,
		OrganizationIDs: p.OrganizationIDs,
		RoleClaims:      p.RoleClaims,
	}
}

type calendarCreateRequest struct {
	Actor    actorPayload     `json:"actor"`
	Calendar *models.Calendar `json:"calendar"`
}

type calendarUpdateRequest struct {
	Actor    actorPayload     `json:"actor"`
	Calendar *models.Calendar `json:"calendar"`
}

type calendarDeactivateRequest struct {
	Actor       actorPayload `json:"actor"`
	CalendarUID string       `json:"calendar_uid"`
	Force       bool         `json:"force,omitempty"`
}

type calendarGetRequest struct {
	Actor       actorPayload `json:"actor"`
	CalendarUID string       `json:"calendar_uid"`
}

type calendarListRequest struct {
	Actor actorPayload `json:"actor"`
}

type permissionGrantRequest struct {
	Actor       actorPayload          `json:"actor"`
	CalendarUID string                `json:"calendar_uid"`
	Grantee     models.Grantee        `json:"grantee"`
	Type        models.PermissionType `json:"type"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
}

type permissionRevokeRequest struct {
	Actor         actorPayload `json:"actor"`
	PermissionUID string       `json:"permission_uid"`
}

type eventCreateRequest struct {
	Actor actorPayload          `json:"actor"`
	Event *models.CalendarEvent `json:"event"`
}

type eventUpdateRequest struct {
	Actor actorPayload          `json:"actor"`
	Event *models.CalendarEvent `json:"event"`
}

// eventCreateResponse pairs the stored event with the advisory conflicts
// found during pre-screening.
type eventCreateResponse struct {
	Event     *models.CalendarEvent   `json:"event"`
	Conflicts []*models.EventConflict `json:"conflicts"`
}

type eventTransitionRequest struct {
	Actor    actorPayload          `json:"actor"`
	EventUID string                `json:"event_uid"`
	Action   models.ApprovalAction `json:"action"`
	Comments string                `json:"comments,omitempty"`
}

type eventRSVPRequest struct {
	Actor    actorPayload            `json:"actor"`
	EventUID string                  `json:"event_uid"`
	Status   models.AttendanceStatus `json:"status"`
}

type eventInviteRequest struct {
	Actor    actorPayload         `json:"actor"`
	EventUID string               `json:"event_uid"`
	Attendee models.EventAttendee `json:"attendee"`
}

type eventGetRequest struct {
	Actor    actorPayload `json:"actor"`
	EventUID string       `json:"event_uid"`
}

type eventHistoryRequest struct {
	Actor    actorPayload `json:"actor"`
	EventUID string       `json:"event_uid"`
}

type eventListRequest struct {
	Actor        actorPayload `json:"actor"`
	CalendarUIDs []string     `json:"calendar_uids,omitempty"`
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
}

type availabilityListRequest struct {
	Actor   actorPayload `json:"actor"`
	UserUID string       `json:"user_uid"`
	From    time.Time    `json:"from"`
	To      time.Time    `json:"to"`
}

type syncConnectRequest struct {
	Actor actorPayload                 `json:"actor"`
	Sync  *models.PersonalCalendarSync `json:"sync"`
}

type syncDisconnectRequest struct {
	Actor   actorPayload `json:"actor"`
	SyncUID string       `json:"sync_uid"`
}

type syncTriggerRequest struct {
	Actor   actorPayload `json:"actor"`
	SyncUID string       `json:"sync_uid"`
}

type syncRetryRequest struct {
	Actor   actorPayload `json:"actor"`
	SyncUID string       `json:"sync_uid"`
}

type syncListRequest struct {
	Actor   actorPayload `json:"actor"`
	UserUID string       `json:"user_uid"`
}

type conflictResolveRequest struct {
	Actor       actorPayload                    `json:"actor"`
	ConflictUID string                          `json:"conflict_uid"`
	Resolution  models.ConflictResolutionStatus `json:"resolution"`
}
