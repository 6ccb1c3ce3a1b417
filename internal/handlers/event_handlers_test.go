// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/churchnet/calendar-service/internal/domain/mocks"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/service"
)

type eventHandlerFixture struct {
	handler          *EventHandler
	eventRepo        *mocks.MockEventRepository
	approvalRepo     *mocks.MockApprovalRepository
	calendarRepo     *mocks.MockCalendarRepository
	attendeeRepo     *mocks.MockAttendeeRepository
	conflictRepo     *mocks.MockConflictRepository
	availabilityRepo *mocks.MockAvailabilityRepository
	permissionRepo   *mocks.MockPermissionRepository
	messageBuilder   *mocks.MockMessageBuilder
}

func newEventHandlerFixture() *eventHandlerFixture {
	f := &eventHandlerFixture{
		eventRepo:        &mocks.MockEventRepository{},
		approvalRepo:     &mocks.MockApprovalRepository{},
		calendarRepo:     &mocks.MockCalendarRepository{},
		attendeeRepo:     &mocks.MockAttendeeRepository{},
		conflictRepo:     &mocks.MockConflictRepository{},
		availabilityRepo: &mocks.MockAvailabilityRepository{},
		permissionRepo:   &mocks.MockPermissionRepository{},
		messageBuilder:   &mocks.MockMessageBuilder{},
	}
	config := service.ServiceConfig{FirstApproverUID: "approver-1", FinalApproverUID: "approver-2"}
	permissions := service.NewPermissionService(f.permissionRepo, f.calendarRepo, config)
	conflicts := service.NewConflictService(
		f.eventRepo, f.calendarRepo, f.attendeeRepo, f.availabilityRepo,
		f.conflictRepo, permissions, f.messageBuilder, config,
	)
	events := service.NewEventService(
		f.eventRepo, f.approvalRepo, f.calendarRepo, f.attendeeRepo,
		f.conflictRepo, conflicts, permissions, service.NewOccurrenceService(),
		f.messageBuilder, nil, config,
	)
	f.handler = NewEventHandler(events, conflicts)
	return f
}

func (f *eventHandlerFixture) stubQuiet() {
	f.eventRepo.On("ListByDateRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.CalendarEvent{}, nil).Maybe()
	f.attendeeRepo.On("ListByEvent", mock.Anything, mock.Anything).
		Return([]*models.EventAttendee{}, nil).Maybe()
	f.availabilityRepo.On("ListByUser", mock.Anything, mock.Anything).
		Return([]*models.PersonalAvailability{}, nil).Maybe()
	f.conflictRepo.On("ListOpenByEvent", mock.Anything, mock.Anything).
		Return([]*models.EventConflict{}, nil).Maybe()
	f.messageBuilder.On("SendIndexEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestHandleEventCreate(t *testing.T) {
	f := newEventHandlerFixture()
	f.stubQuiet()
	start := models.NewTimeOfDay(10, 0)
	end := models.NewTimeOfDay(11, 30)
	calendar := &models.Calendar{
		UID: "cal-1", Name: "Main Church Calendar", Level: models.CalendarLevelChurch,
		Owner: models.ChurchOwner("church-1"), IsActive: true,
	}
	f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(calendar, nil)
	f.eventRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
		return e.Title == "Harvest Dinner" && e.Status == models.EventStatusPublished
	})).Return(nil)

	msg := requestMessage(t, models.EventCreateSubject, eventCreateRequest{
		Actor: adminPayload,
		Event: &models.CalendarEvent{
			CalendarUID: "cal-1",
			Title:       "Harvest Dinner",
			EventDate:   time.Now().UTC().AddDate(0, 0, 21),
			StartTime:   &start,
			EndTime:     &end,
			Category:    models.EventCategoryFellowship,
		},
	})
	response, err := f.handler.HandleEventCreate(context.Background(), msg)
	require.NoError(t, err)

	var result eventCreateResponse
	require.NoError(t, json.Unmarshal(response, &result))
	assert.Equal(t, "Harvest Dinner", result.Event.Title)
	assert.NotNil(t, result.Conflicts)
}

func TestHandleEventTransition(t *testing.T) {
	f := newEventHandlerFixture()
	f.stubQuiet()
	start := models.NewTimeOfDay(9, 0)
	end := models.NewTimeOfDay(10, 0)
	event := &models.CalendarEvent{
		UID: "event-1", CalendarUID: "cal-1", Title: "Leadership Retreat",
		EventDate: time.Now().UTC().AddDate(0, 0, 7),
		StartTime: &start, EndTime: &end,
		CreatedBy: "creator-1", RequiresApproval: true,
		Status: models.EventStatusDraft, ApprovalStatus: models.ApprovalStatusPending,
	}
	f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(4), nil)
	f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(&models.Calendar{
		UID: "cal-1", Level: models.CalendarLevelChurch, Owner: models.ChurchOwner("church-1"), IsActive: true,
	}, nil)
	f.eventRepo.On("Update", mock.Anything, mock.Anything, uint64(4)).Return(nil)
	f.approvalRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	msg := requestMessage(t, models.EventTransitionSubject, eventTransitionRequest{
		Actor:    actorPayload{UID: "approver-1"},
		EventUID: "event-1",
		Action:   models.ApprovalActionFirstApprove,
	})
	response, err := f.handler.HandleEventTransition(context.Background(), msg)
	require.NoError(t, err)

	var updated models.CalendarEvent
	require.NoError(t, json.Unmarshal(response, &updated))
	assert.Equal(t, models.ApprovalStatusFirstApproved, updated.ApprovalStatus)
}

func TestHandleEventList(t *testing.T) {
	f := newEventHandlerFixture()
	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)
	f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(&models.Calendar{
		UID: "cal-1", Level: models.CalendarLevelChurch, Owner: models.ChurchOwner("church-1"), IsActive: true,
	}, nil)
	f.eventRepo.On("ListByDateRange", mock.Anything, []string{"cal-1"}, from, to).
		Return([]*models.CalendarEvent{}, nil)

	msg := requestMessage(t, models.EventListSubject, eventListRequest{
		Actor:        adminPayload,
		CalendarUIDs: []string{"cal-1"},
		From:         from,
		To:           to,
	})
	response, err := f.handler.HandleEventList(context.Background(), msg)
	require.NoError(t, err)

	var listing service.EventListing
	require.NoError(t, json.Unmarshal(response, &listing))
	assert.Empty(t, listing.Events)
	assert.Empty(t, listing.Occurrences)
}

func TestHandleEventRSVPMissingUID(t *testing.T) {
	f := newEventHandlerFixture()
	msg := requestMessage(t, models.EventRSVPSubject, eventRSVPRequest{
		Actor:  adminPayload,
		Status: models.AttendanceAttending,
	})
	_, err := f.handler.HandleEventRSVP(context.Background(), msg)
	require.Error(t, err)
}

func TestHandleEventInvite(t *testing.T) {
	f := newEventHandlerFixture()
	f.eventRepo.On("Get", mock.Anything, "event-1").Return(&models.CalendarEvent{
		UID: "event-1", CalendarUID: "cal-1", Status: models.EventStatusPublished,
	}, nil)
	f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil)
	f.attendeeRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventAttendee) bool {
		return a.UserUID == "member-1" && a.Status == models.AttendanceInvited && a.Required
	})).Return(nil)

	msg := requestMessage(t, models.EventInviteSubject, eventInviteRequest{
		Actor:    adminPayload,
		EventUID: "event-1",
		Attendee: models.EventAttendee{UserUID: "member-1", Name: "Member One", Required: true},
	})
	response, err := f.handler.HandleEventInvite(context.Background(), msg)
	require.NoError(t, err)

	var attendee models.EventAttendee
	require.NoError(t, json.Unmarshal(response, &attendee))
	assert.Equal(t, models.AttendanceInvited, attendee.Status)
	assert.Equal(t, "member-1", attendee.UserUID)
}

func TestHandleEventInviteMissingAttendee(t *testing.T) {
	f := newEventHandlerFixture()
	msg := requestMessage(t, models.EventInviteSubject, eventInviteRequest{
		Actor:    adminPayload,
		EventUID: "event-1",
	})
	_, err := f.handler.HandleEventInvite(context.Background(), msg)
	require.Error(t, err)
}

func TestHandleEventHistory(t *testing.T) {
	f := newEventHandlerFixture()
	f.eventRepo.On("Get", mock.Anything, "event-1").Return(&models.CalendarEvent{
		UID: "event-1", CalendarUID: "cal-1",
	}, nil)
	f.approvalRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventApproval{
		{UID: "appr-1", EventUID: "event-1", Action: models.ApprovalActionFirstApprove, ActorUID: "approver-1"},
		{UID: "appr-2", EventUID: "event-1", Action: models.ApprovalActionFinalApprove, ActorUID: "approver-2"},
	}, nil)

	msg := requestMessage(t, models.EventHistorySubject, eventHistoryRequest{
		Actor:    adminPayload,
		EventUID: "event-1",
	})
	response, err := f.handler.HandleEventHistory(context.Background(), msg)
	require.NoError(t, err)

	var trail []*models.EventApproval
	require.NoError(t, json.Unmarshal(response, &trail))
	require.Len(t, trail, 2)
	assert.Equal(t, models.ApprovalActionFirstApprove, trail[0].Action)
}

func TestHandleConflictResolve(t *testing.T) {
	f := newEventHandlerFixture()
	conflict := &models.EventConflict{
		UID: "conflict-1", EventUID: "event-1",
		Type: models.ConflictTypeLocation, Severity: models.ConflictSeverityMajor,
		Resolution: models.ConflictUnresolved,
	}
	f.conflictRepo.On("GetWithRevision", mock.Anything, "conflict-1").Return(conflict, uint64(1), nil)
	f.eventRepo.On("Get", mock.Anything, "event-1").Return(&models.CalendarEvent{
		UID: "event-1", CalendarUID: "cal-1",
	}, nil)
	f.conflictRepo.On("Update", mock.Anything, mock.Anything, uint64(1)).Return(nil)
	f.messageBuilder.On("SendIndexConflict", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)

	msg := requestMessage(t, models.ConflictResolveSubject, conflictResolveRequest{
		Actor:       adminPayload,
		ConflictUID: "conflict-1",
		Resolution:  models.ConflictAcknowledged,
	})
	response, err := f.handler.HandleConflictResolve(context.Background(), msg)
	require.NoError(t, err)

	var resolved models.EventConflict
	require.NoError(t, json.Unmarshal(response, &resolved))
	assert.Equal(t, models.ConflictAcknowledged, resolved.Resolution)
}
