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

type syncHandlerFixture struct {
	handler          *SyncHandler
	syncRepo         *mocks.MockSyncRepository
	availabilityRepo *mocks.MockAvailabilityRepository
	registry         *mocks.MockProviderRegistry
	provider         *mocks.MockCalendarProvider
}

func newSyncHandlerFixture() *syncHandlerFixture {
	f := &syncHandlerFixture{
		syncRepo:         &mocks.MockSyncRepository{},
		availabilityRepo: &mocks.MockAvailabilityRepository{},
		registry:         &mocks.MockProviderRegistry{},
		provider:         &mocks.MockCalendarProvider{},
	}
	syncs := service.NewSyncService(
		f.syncRepo, f.availabilityRepo, &mocks.MockEventRepository{}, &mocks.MockAttendeeRepository{},
		&mocks.MockConflictRepository{}, f.registry, &mocks.MockMessageBuilder{}, nil,
		service.ServiceConfig{},
	)
	f.handler = NewSyncHandler(syncs)
	return f
}

func TestHandleSyncConnect(t *testing.T) {
	f := newSyncHandlerFixture()
	f.registry.On("GetProvider", "icsfeed").Return(f.provider, nil)
	f.syncRepo.On("ListByUser", mock.Anything, "user-1").Return([]*models.PersonalCalendarSync{}, nil)
	f.syncRepo.On("Create", mock.Anything, mock.MatchedBy(func(row *models.PersonalCalendarSync) bool {
		return row.UserUID == "user-1" && row.Status == models.SyncStatusActive
	})).Return(nil)

	msg := requestMessage(t, models.SyncConnectSubject, syncConnectRequest{
		Actor: actorPayload{UID: "user-1"},
		Sync: &models.PersonalCalendarSync{
			UserUID:            "user-1",
			Provider:           "icsfeed",
			ProviderCalendarID: "https://calendar.example.org/user1.ics",
			Direction:          models.SyncDirectionImportOnly,
			Frequency:          models.SyncFrequencyDaily,
		},
	})
	response, err := f.handler.HandleSyncConnect(context.Background(), msg)
	require.NoError(t, err)

	var row models.PersonalCalendarSync
	require.NoError(t, json.Unmarshal(response, &row))
	assert.Equal(t, models.SyncStatusActive, row.Status)
	assert.NotEmpty(t, row.UID)
}

func TestHandleSyncDisconnect(t *testing.T) {
	f := newSyncHandlerFixture()
	row := &models.PersonalCalendarSync{
		UID: "sync-1", UserUID: "user-1", Provider: "icsfeed",
		Status: models.SyncStatusActive,
	}
	f.syncRepo.On("GetWithRevision", mock.Anything, "sync-1").Return(row, uint64(2), nil)
	f.syncRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *models.PersonalCalendarSync) bool {
		return r.Status == models.SyncStatusDisconnected
	}), uint64(2)).Return(nil)
	f.availabilityRepo.On("ReplaceForSource", mock.Anything, "user-1", "icsfeed",
		[]*models.PersonalAvailability(nil)).Return(nil)

	msg := requestMessage(t, models.SyncDisconnectSubject, syncDisconnectRequest{
		Actor:   actorPayload{UID: "user-1"},
		SyncUID: "sync-1",
	})
	response, err := f.handler.HandleSyncDisconnect(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, []byte("success"), response)
}

func TestHandleSyncRetry(t *testing.T) {
	f := newSyncHandlerFixture()
	row := &models.PersonalCalendarSync{
		UID: "sync-1", UserUID: "user-1", Provider: "icsfeed",
		Status: models.SyncStatusError, ErrorMessage: "feed unreachable",
		ConsecutiveFailures: 3,
	}
	f.syncRepo.On("GetWithRevision", mock.Anything, "sync-1").Return(row, uint64(5), nil)
	f.syncRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *models.PersonalCalendarSync) bool {
		return r.Status == models.SyncStatusActive && r.ErrorMessage == "" && r.ConsecutiveFailures == 0
	}), uint64(5)).Return(nil)

	msg := requestMessage(t, models.SyncRetrySubject, syncRetryRequest{
		Actor:   actorPayload{UID: "user-1"},
		SyncUID: "sync-1",
	})
	response, err := f.handler.HandleSyncRetry(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, []byte("success"), response)
}

func TestHandleSyncRetryMissingUID(t *testing.T) {
	f := newSyncHandlerFixture()
	msg := requestMessage(t, models.SyncRetrySubject, syncRetryRequest{Actor: actorPayload{UID: "user-1"}})
	_, err := f.handler.HandleSyncRetry(context.Background(), msg)
	require.Error(t, err)
}

func TestHandleSyncList(t *testing.T) {
	f := newSyncHandlerFixture()
	f.syncRepo.On("ListByUser", mock.Anything, "user-1").Return([]*models.PersonalCalendarSync{
		{UID: "sync-1", UserUID: "user-1", Provider: "icsfeed", Status: models.SyncStatusActive},
		{UID: "sync-2", UserUID: "user-1", Provider: "google", Status: models.SyncStatusError},
	}, nil)

	msg := requestMessage(t, models.SyncListSubject, syncListRequest{
		Actor:   actorPayload{UID: "user-1"},
		UserUID: "user-1",
	})
	response, err := f.handler.HandleSyncList(context.Background(), msg)
	require.NoError(t, err)

	var rows []*models.PersonalCalendarSync
	require.NoError(t, json.Unmarshal(response, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "sync-1", rows[0].UID)
}

func TestHandleAvailabilityList(t *testing.T) {
	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)

	t.Run("other users see masked private blocks", func(t *testing.T) {
		f := newSyncHandlerFixture()
		f.availabilityRepo.On("ListByUser", mock.Anything, "user-1").Return([]*models.PersonalAvailability{
			{UID: "block-1", UserUID: "user-1", Date: inWindow, Type: models.AvailabilityBusy,
				Source: "google", IsPrivate: true, Title: "Counseling session"},
			{UID: "block-2", UserUID: "user-1", Date: inWindow.AddDate(0, 2, 0), Type: models.AvailabilityBusy,
				Source: "google"},
		}, nil)

		msg := requestMessage(t, models.AvailabilityListSubject, availabilityListRequest{
			Actor:   actorPayload{UID: "user-2"},
			UserUID: "user-1",
			From:    from,
			To:      to,
		})
		response, err := f.handler.HandleAvailabilityList(context.Background(), msg)
		require.NoError(t, err)

		var blocks []models.PersonalAvailability
		require.NoError(t, json.Unmarshal(response, &blocks))
		require.Len(t, blocks, 1)
		assert.Empty(t, blocks[0].Title)
		assert.Equal(t, models.AvailabilityBusy, blocks[0].Type)
	})

	t.Run("the owner sees full details", func(t *testing.T) {
		f := newSyncHandlerFixture()
		f.availabilityRepo.On("ListByUser", mock.Anything, "user-1").Return([]*models.PersonalAvailability{
			{UID: "block-1", UserUID: "user-1", Date: inWindow, Type: models.AvailabilityBusy,
				Source: "google", IsPrivate: true, Title: "Counseling session"},
		}, nil)

		msg := requestMessage(t, models.AvailabilityListSubject, availabilityListRequest{
			Actor:   actorPayload{UID: "user-1"},
			UserUID: "user-1",
			From:    from,
			To:      to,
		})
		response, err := f.handler.HandleAvailabilityList(context.Background(), msg)
		require.NoError(t, err)

		var blocks []models.PersonalAvailability
		require.NoError(t, json.Unmarshal(response, &blocks))
		require.Len(t, blocks, 1)
		assert.Equal(t, "Counseling session", blocks[0].Title)
	})
}

func TestSyncHandlerDispatch(t *testing.T) {
	f := newSyncHandlerFixture()
	msg := &mocks.MockMessage{}
	msg.On("Subject").Return(models.SyncTriggerSubject)
	msg.On("Data").Return([]byte(`{`))
	msg.On("HasReply").Return(true)
	msg.On("Respond", []byte(nil)).Return(nil)

	f.handler.HandleMessage(context.Background(), msg)
	msg.AssertExpectations(t)
}
