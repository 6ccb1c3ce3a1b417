// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

func pendingEvent(uid string) *models.CalendarEvent {
	event := eventPayload("cal-1")
	event.UID = uid
	event.CreatedBy = "creator-1"
	event.RequiresApproval = true
	event.Status = models.EventStatusDraft
	event.ApprovalStatus = models.ApprovalStatusPending
	return event
}

func TestTransitionFirstApprove(t *testing.T) {
	ctx := context.Background()
	firstApprover := domain.Actor{UID: "approver-1"}

	t.Run("stamps stage one", func(t *testing.T) {
		f := newEventServiceFixture()
		f.stubNoConflicts()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)
		f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil)
		f.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			return e.ApprovalStatus == models.ApprovalStatusFirstApproved &&
				e.FirstApproval != nil && e.FirstApproval.ApproverUID == "approver-1" &&
				e.Status == models.EventStatusDraft
		}), uint64(5)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventApproval) bool {
			return a.Action == models.ApprovalActionFirstApprove && a.ActorUID == "approver-1"
		})).Return(nil)
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)

		updated, err := f.svc.Transition(ctx, firstApprover, "event-1", models.ApprovalActionFirstApprove, "")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalStatusFirstApproved, updated.ApprovalStatus)
		f.approvalRepo.AssertExpectations(t)
	})

	t.Run("approve claim holders may first-approve", func(t *testing.T) {
		f := newEventServiceFixture()
		f.stubNoConflicts()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)
		f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil)
		f.eventRepo.On("Update", mock.Anything, mock.Anything, uint64(5)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		delegate := domain.Actor{UID: "pastor-9", RoleClaims: []string{domain.ClaimEventApprove}}
		_, err := f.svc.Transition(ctx, delegate, "event-1", models.ApprovalActionFirstApprove, "")
		require.NoError(t, err)
	})

	t.Run("unauthorized actor is refused", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)

		_, err := f.svc.Transition(ctx, domain.Actor{UID: "random-user"}, "event-1", models.ApprovalActionFirstApprove, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypePermissionDenied, domain.GetErrorType(err))
	})

	t.Run("open critical conflict blocks approval", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)
		f.eventRepo.On("ListByDateRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*models.CalendarEvent{}, nil)
		f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil)
		f.availabilityRepo.On("ListByUser", mock.Anything, "creator-1").Return([]*models.PersonalAvailability{}, nil)
		f.conflictRepo.On("ListOpenByEvent", mock.Anything, "event-1").Return([]*models.EventConflict{
			{UID: "conflict-1", EventUID: "event-1", Severity: models.ConflictSeverityCritical, Resolution: models.ConflictUnresolved},
		}, nil)

		_, err := f.svc.Transition(ctx, firstApprover, "event-1", models.ApprovalActionFirstApprove, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeConflictBlocking, domain.GetErrorType(err))
		assert.ErrorIs(t, err, domain.ErrUnresolvedCriticalConflict)
		f.eventRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already first-approved is invalid", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.ApprovalStatus = models.ApprovalStatusFirstApproved
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)

		_, err := f.svc.Transition(ctx, firstApprover, "event-1", models.ApprovalActionFirstApprove, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeInvalidTransition, domain.GetErrorType(err))
	})
}

func TestTransitionFinalApprove(t *testing.T) {
	ctx := context.Background()
	finalApprover := domain.Actor{UID: "approver-2"}

	t.Run("publishes atomically with the stamp", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.ApprovalStatus = models.ApprovalStatusFirstApproved
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(6), nil)
		f.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			// approval status and publication flip in the same write
			return e.ApprovalStatus == models.ApprovalStatusFinalApproved &&
				e.Status == models.EventStatusPublished &&
				e.FinalApproval != nil && e.FinalApproval.ApproverUID == "approver-2"
		}), uint64(6)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil).Maybe()
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.MatchedBy(func(n models.ApprovalNotification) bool {
			return n.RecipientUID == "creator-1"
		})).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)

		updated, err := f.svc.Transition(ctx, finalApprover, "event-1", models.ApprovalActionFinalApprove, "")
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusPublished, updated.Status)
		f.eventRepo.AssertExpectations(t)
	})

	t.Run("pending event cannot skip the first stage", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(6), nil)

		_, err := f.svc.Transition(ctx, finalApprover, "event-1", models.ApprovalActionFinalApprove, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeInvalidTransition, domain.GetErrorType(err))
		assert.ErrorIs(t, err, domain.ErrOutOfOrderApproval)
		f.eventRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("first approver cannot final-approve", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.ApprovalStatus = models.ApprovalStatusFirstApproved
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(6), nil)

		_, err := f.svc.Transition(ctx, domain.Actor{UID: "approver-1"}, "event-1", models.ApprovalActionFinalApprove, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypePermissionDenied, domain.GetErrorType(err))
	})
}

func TestTransitionRejectAndResubmit(t *testing.T) {
	ctx := context.Background()
	firstApprover := domain.Actor{UID: "approver-1"}

	t.Run("rejection requires a reason", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(2), nil)

		_, err := f.svc.Transition(ctx, firstApprover, "event-1", models.ApprovalActionReject, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("reject records the reason", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(2), nil)
		f.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			return e.ApprovalStatus == models.ApprovalStatusRejected &&
				e.RejectionReason == "conflicts with the food drive"
		}), uint64(2)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventApproval) bool {
			return a.Action == models.ApprovalActionReject && a.Comments == "conflicts with the food drive"
		})).Return(nil)
		f.attendeeRepo.On("ListByEvent", mock.Anything, "event-1").Return([]*models.EventAttendee{}, nil).Maybe()
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := f.svc.Transition(ctx, firstApprover, "event-1", models.ApprovalActionReject, "conflicts with the food drive")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalStatusRejected, updated.ApprovalStatus)
	})

	t.Run("creator resubmits a rejected event", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.ApprovalStatus = models.ApprovalStatusRejected
		event.RejectionReason = "needs a different room"
		event.FirstApproval = &models.ApprovalStamp{ApproverUID: "approver-1"}
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(3), nil)
		f.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			return e.ApprovalStatus == models.ApprovalStatusPending &&
				e.RejectionReason == "" && e.FirstApproval == nil
		}), uint64(3)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.EventApproval) bool {
			return a.Action == models.ApprovalActionResubmit
		})).Return(nil)
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.MatchedBy(func(n models.ApprovalNotification) bool {
			return n.RecipientUID == "approver-1"
		})).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := f.svc.Transition(ctx, domain.Actor{UID: "creator-1"}, "event-1", models.ApprovalActionResubmit, "")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalStatusPending, updated.ApprovalStatus)
	})

	t.Run("resubmitting a pending event is invalid", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(3), nil)

		_, err := f.svc.Transition(ctx, domain.Actor{UID: "creator-1"}, "event-1", models.ApprovalActionResubmit, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeInvalidTransition, domain.GetErrorType(err))
	})
}

func TestTransitionCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("creator cancels", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.Status = models.EventStatusPublished
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(4), nil)
		f.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			return e.Status == models.EventStatusCancelled
		}), uint64(4)).Return(nil)
		f.approvalRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendApprovalNotification", mock.Anything, mock.Anything).Return(nil)
		f.messageBuilder.On("SendIndexEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := f.svc.Transition(ctx, domain.Actor{UID: "creator-1"}, "event-1", models.ApprovalActionCancel, "")
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusCancelled, updated.Status)
	})

	t.Run("cancelling twice is invalid", func(t *testing.T) {
		f := newEventServiceFixture()
		event := pendingEvent("event-1")
		event.Status = models.EventStatusCancelled
		f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(4), nil)

		_, err := f.svc.Transition(ctx, domain.Actor{UID: "creator-1"}, "event-1", models.ApprovalActionCancel, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	})
}

func TestTransitionConcurrentModification(t *testing.T) {
	f := newEventServiceFixture()
	f.stubNoConflicts()
	event := pendingEvent("event-1")
	f.eventRepo.On("GetWithRevision", mock.Anything, "event-1").Return(event, uint64(5), nil)
	f.calendarRepo.On("Get", mock.Anything, "cal-1").Return(churchCalendar("cal-1"), nil)
	f.eventRepo.On("Update", mock.Anything, mock.Anything, uint64(5)).
		Return(domain.NewConflictError("event was updated concurrently", domain.ErrConcurrentModification))

	_, err := f.svc.Transition(context.Background(), domain.Actor{UID: "approver-1"}, "event-1", models.ApprovalActionFirstApprove, "")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
}
