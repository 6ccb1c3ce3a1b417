// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

func publishedEvent(uid string) *models.CalendarEvent {
	event := eventPayload("cal-1")
	event.UID = uid
	event.CreatedBy = "creator-1"
	event.Status = models.EventStatusPublished
	return event
}

func rsvpRow(uid, userUID string, status models.AttendanceStatus) *models.EventAttendee {
	return &models.EventAttendee{UID: uid, EventUID: "event-1", UserUID: userUID, Status: status}
}

func TestRSVP(t *testing.T) {
	ctx := context.Background()
	member := domain.Actor{UID: "member-1", OrganizationIDs: []string{"church-1"}}
	memberGrant := activeGrant("cal-1", models.ChurchGrantee("church-1"), models.PermissionView)

	stubMemberGrant := func(f *eventServiceFixture) {
		f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil).Maybe()
		f.permissionRepo.On("ListByCalendar", mock.Anything, "cal-1").
			Return([]*models.CalendarPermission{memberGrant}, nil).Maybe()
	}

	t.Run("first response creates a row", func(t *testing.T) {
		f := newEventServiceFixture()
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil)
		f.attendeeRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventAttendee) bool {
			return a.UserUID == "member-1" && a.Status == models.AttendanceAttending
		})).Return(nil)

		attendee, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttending)
		require.NoError(t, err)
		assert.Equal(t, models.AttendanceAttending, attendee.Status)
		f.attendeeRepo.AssertExpectations(t)
	})

	t.Run("later response updates in place", func(t *testing.T) {
		f := newEventServiceFixture()
		existing := rsvpRow("att-1", "member-1", models.AttendanceAttending)
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{existing}, nil)
		f.attendeeRepo.On("GetWithRevision", mock.Anything, "att-1").Return(existing, uint64(3), nil)
		f.attendeeRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *models.EventAttendee) bool {
			return a.UID == "att-1" && a.Status == models.AttendanceNotAttending
		}), uint64(3)).Return(nil)

		attendee, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceNotAttending)
		require.NoError(t, err)
		assert.Equal(t, models.AttendanceNotAttending, attendee.Status)
		f.attendeeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("attended is not reachable before the event date", func(t *testing.T) {
		f := newEventServiceFixture()
		existing := rsvpRow("att-1", "member-1", models.AttendanceAttending)
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{existing}, nil)

		_, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttended)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeInvalidTransition, domain.GetErrorType(err))
	})

	t.Run("attended is recorded after the event date", func(t *testing.T) {
		f := newEventServiceFixture()
		past := publishedEvent("event-1")
		past.EventDate = time.Now().UTC().AddDate(0, 0, -2)
		existing := rsvpRow("att-1", "member-1", models.AttendanceAttending)
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(past, nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{existing}, nil)
		f.attendeeRepo.On("GetWithRevision", mock.Anything, "att-1").Return(existing, uint64(1), nil)
		f.attendeeRepo.On("Update", mock.Anything, mock.Anything, uint64(1)).Return(nil)

		attendee, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttended)
		require.NoError(t, err)
		assert.Equal(t, models.AttendanceAttended, attendee.Status)
	})

	t.Run("capacity refuses a new seat", func(t *testing.T) {
		f := newEventServiceFixture()
		capped := publishedEvent("event-1")
		capped.MaxAttendees = 2
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(capped, nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{
			rsvpRow("att-1", "user-a", models.AttendanceAttending),
			rsvpRow("att-2", "user-b", models.AttendanceAttending),
		}, nil)

		_, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttending)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		f.attendeeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("holding a seat survives the cap", func(t *testing.T) {
		f := newEventServiceFixture()
		capped := publishedEvent("event-1")
		capped.MaxAttendees = 1
		existing := rsvpRow("att-1", "member-1", models.AttendanceAttending)
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(capped, nil)
		stubMemberGrant(f)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{existing}, nil)
		f.attendeeRepo.On("GetWithRevision", mock.Anything, "att-1").Return(existing, uint64(1), nil)
		f.attendeeRepo.On("Update", mock.Anything, mock.Anything, uint64(1)).Return(nil)

		// Already counted, so re-confirming is not a new seat.
		_, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttending)
		require.NoError(t, err)
	})

	t.Run("cancelled event refuses responses", func(t *testing.T) {
		f := newEventServiceFixture()
		cancelled := publishedEvent("event-1")
		cancelled.Status = models.EventStatusCancelled
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(cancelled, nil)

		_, err := f.svc.RSVP(ctx, member, "event-1", models.AttendanceAttending)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	})

	t.Run("no grant means no response", func(t *testing.T) {
		f := newEventServiceFixture()
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil)
		f.permissionRepo.On("ListByCalendar", mock.Anything, "cal-1").
			Return([]*models.CalendarPermission{}, nil)

		_, err := f.svc.RSVP(ctx, domain.Actor{UID: "stranger"}, "event-1", models.AttendanceAttending)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypePermissionDenied, domain.GetErrorType(err))
	})
}

func TestInviteAttendee(t *testing.T) {
	ctx := context.Background()

	t.Run("edit holder invites", func(t *testing.T) {
		f := newEventServiceFixture()
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil)
		f.attendeeRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventAttendee) bool {
			return a.UserUID == "guest-1" && a.Status == models.AttendanceInvited && a.Required
		})).Return(nil)

		attendee, err := f.svc.InviteAttendee(ctx, adminActor, "event-1", models.EventAttendee{
			UserUID:  "guest-1",
			Name:     "Guest One",
			Email:    "guest@example.org",
			Required: true,
		})
		require.NoError(t, err)
		assert.Equal(t, models.AttendanceInvited, attendee.Status)
	})

	t.Run("duplicate invitation is refused", func(t *testing.T) {
		f := newEventServiceFixture()
		f.eventRepo.On("Get", mock.Anything, "event-1").Return(publishedEvent("event-1"), nil)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{
			rsvpRow("att-1", "guest-1", models.AttendanceInvited),
		}, nil)

		_, err := f.svc.InviteAttendee(ctx, adminActor, "event-1", models.EventAttendee{UserUID: "guest-1"})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}
