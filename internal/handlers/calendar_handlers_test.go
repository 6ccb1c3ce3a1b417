// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/churchnet/calendar-service/internal/domain/mocks"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/service"
)

type calendarHandlerFixture struct {
	handler        *CalendarHandler
	typeRepo       *mocks.MockCalendarTypeRepository
	calendarRepo   *mocks.MockCalendarRepository
	eventRepo      *mocks.MockEventRepository
	permissionRepo *mocks.MockPermissionRepository
	messageBuilder *mocks.MockMessageBuilder
}

func newCalendarHandlerFixture() *calendarHandlerFixture {
	f := &calendarHandlerFixture{
		typeRepo:       &mocks.MockCalendarTypeRepository{},
		calendarRepo:   &mocks.MockCalendarRepository{},
		eventRepo:      &mocks.MockEventRepository{},
		permissionRepo: &mocks.MockPermissionRepository{},
		messageBuilder: &mocks.MockMessageBuilder{},
	}
	permissions := service.NewPermissionService(f.permissionRepo, f.calendarRepo, service.ServiceConfig{})
	calendars := service.NewCalendarService(
		f.typeRepo, f.calendarRepo, f.eventRepo, permissions, f.messageBuilder, service.ServiceConfig{},
	)
	f.handler = NewCalendarHandler(calendars, permissions)
	return f
}

var adminPayload = actorPayload{UID: "admin-1", RoleClaims: []string{"all"}}

func requestMessage(t *testing.T, subject string, payload any) *mocks.MockMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	msg := &mocks.MockMessage{}
	msg.On("Subject").Return(subject)
	msg.On("Data").Return(data)
	msg.On("HasReply").Return(true)
	return msg
}

func TestCalendarHandlerDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown subject responds empty", func(t *testing.T) {
		f := newCalendarHandlerFixture()
		msg := &mocks.MockMessage{}
		msg.On("Subject").Return("churchnet.calendar-api.nope")
		msg.On("HasReply").Return(true)
		msg.On("Respond", []byte(nil)).Return(nil)

		f.handler.HandleMessage(ctx, msg)
		msg.AssertExpectations(t)
	})

	t.Run("malformed payload responds empty", func(t *testing.T) {
		f := newCalendarHandlerFixture()
		msg := &mocks.MockMessage{}
		msg.On("Subject").Return(models.CalendarListSubject)
		msg.On("Data").Return([]byte("not json"))
		msg.On("HasReply").Return(true)
		msg.On("Respond", []byte(nil)).Return(nil)

		f.handler.HandleMessage(ctx, msg)
		msg.AssertExpectations(t)
	})
}

func TestHandleCalendarList(t *testing.T) {
	f := newCalendarHandlerFixture()
	f.calendarRepo.On("ListAll", mock.Anything).Return([]*models.Calendar{
		{UID: "cal-1", Name: "Network Calendar", Level: models.CalendarLevelNetwork,
			Owner: models.ChurchOwner("church-lead"), IsActive: true},
		{UID: "cal-2", Name: "Retired Calendar", Level: models.CalendarLevelNetwork,
			Owner: models.ChurchOwner("church-lead"), IsActive: false},
	}, nil)

	msg := requestMessage(t, models.CalendarListSubject, calendarListRequest{Actor: adminPayload})
	response, err := f.handler.HandleCalendarList(context.Background(), msg)
	require.NoError(t, err)

	var calendars []*models.Calendar
	require.NoError(t, json.Unmarshal(response, &calendars))
	require.Len(t, calendars, 1)
	assert.Equal(t, "cal-1", calendars[0].UID)
}

func TestHandleCalendarDeactivate(t *testing.T) {
	f := newCalendarHandlerFixture()
	f.calendarRepo.On("GetWithRevision", mock.Anything, "cal-1").Return(&models.Calendar{
		UID: "cal-1", Name: "Old Calendar", Level: models.CalendarLevelChurch,
		Owner: models.ChurchOwner("church-1"), IsActive: true,
	}, uint64(3), nil)
	f.eventRepo.On("ListByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{}, nil)
	f.calendarRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Calendar) bool {
		return !c.IsActive
	}), uint64(3)).Return(nil)
	f.messageBuilder.On("SendIndexCalendar", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	msg := requestMessage(t, models.CalendarDeactivateSubject, calendarDeactivateRequest{
		Actor:       adminPayload,
		CalendarUID: "cal-1",
	})
	response, err := f.handler.HandleCalendarDeactivate(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, []byte("success"), response)
}

func TestHandleCalendarGet(t *testing.T) {
	f := newCalendarHandlerFixture()
	f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(&models.Calendar{
		UID: "cal-1", Name: "Youth Calendar", Level: models.CalendarLevelMinistry,
		Owner: models.MinistryOwner("ministry-1"), IsActive: true,
	}, nil)

	msg := requestMessage(t, models.CalendarGetSubject, calendarGetRequest{
		Actor:       adminPayload,
		CalendarUID: "cal-1",
	})
	response, err := f.handler.HandleCalendarGet(context.Background(), msg)
	require.NoError(t, err)

	var calendar models.Calendar
	require.NoError(t, json.Unmarshal(response, &calendar))
	assert.Equal(t, "Youth Calendar", calendar.Name)
}

func TestHandleCalendarGetMissingUID(t *testing.T) {
	f := newCalendarHandlerFixture()
	msg := requestMessage(t, models.CalendarGetSubject, calendarGetRequest{Actor: adminPayload})
	_, err := f.handler.HandleCalendarGet(context.Background(), msg)
	require.Error(t, err)
}

func TestHandleCalendarTypes(t *testing.T) {
	f := newCalendarHandlerFixture()
	f.typeRepo.On("ListAll", mock.Anything).Return([]*models.CalendarType{
		{UID: "type-church", Name: "Church", Level: models.CalendarLevelChurch},
		{UID: "type-ministry", Name: "Ministry", Level: models.CalendarLevelMinistry},
	}, nil)

	msg := requestMessage(t, models.CalendarTypesSubject, struct{}{})
	response, err := f.handler.HandleCalendarTypes(context.Background(), msg)
	require.NoError(t, err)

	var types []*models.CalendarType
	require.NoError(t, json.Unmarshal(response, &types))
	require.Len(t, types, 2)
	assert.Equal(t, "type-church", types[0].UID)
}

func TestHandlePermissionGrant(t *testing.T) {
	f := newCalendarHandlerFixture()
	f.calendarRepo.On("Exists", mock.Anything, "cal-1").Return(true, nil)
	f.permissionRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.CalendarPermission) bool {
		return p.CalendarUID == "cal-1" && p.Type == models.PermissionEdit && p.IsActive
	})).Return(nil)

	msg := requestMessage(t, models.PermissionGrantSubject, permissionGrantRequest{
		Actor:       adminPayload,
		CalendarUID: "cal-1",
		Grantee:     models.ChurchGrantee("church-1"),
		Type:        models.PermissionEdit,
	})
	response, err := f.handler.HandlePermissionGrant(context.Background(), msg)
	require.NoError(t, err)

	var permission models.CalendarPermission
	require.NoError(t, json.Unmarshal(response, &permission))
	assert.Equal(t, models.PermissionEdit, permission.Type)
	assert.NotEmpty(t, permission.UID)
}

func TestHandlePermissionRevokeMissingUID(t *testing.T) {
	f := newCalendarHandlerFixture()
	msg := requestMessage(t, models.PermissionRevokeSubject, permissionRevokeRequest{Actor: adminPayload})
	_, err := f.handler.HandlePermissionRevoke(context.Background(), msg)
	require.Error(t, err)
}
