package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
	"github.com/leadgrid/leadgrid/internal/mocks"
)

var dispatchNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type dispatchFixture struct {
	jobs     *mocks.MockJobRepository
	messages *mocks.MockMessageRepository
	sender   *mocks.MockChannelSender
	limiter  *mocks.MockRateLimiter
	svc      *DispatchService
}

func newDispatchFixture(t *testing.T, ctrl *gomock.Controller) *dispatchFixture {
	t.Helper()

	f := &dispatchFixture{
		jobs:     mocks.NewMockJobRepository(ctrl),
		messages: mocks.NewMockMessageRepository(ctrl),
		sender:   mocks.NewMockChannelSender(ctrl),
		limiter:  mocks.NewMockRateLimiter(ctrl),
	}
	f.sender.EXPECT().Channel().Return(model.ChannelEmail).AnyTimes()

	svc, err := NewDispatchService(DispatchServiceOptions{
		Jobs:        f.jobs,
		Messages:    f.messages,
		Senders:     []core.ChannelSender{f.sender},
		Limiter:     f.limiter,
		BackoffBase: 30 * time.Second,
		BackoffCap:  15 * time.Minute,
		Now:         func() time.Time { return dispatchNow },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func emailMessage(attempt int) *model.OutreachMessage {
	return &model.OutreachMessage{
		ID:           "msg-1",
		JobID:        "job-1",
		Channel:      model.ChannelEmail,
		Recipient:    "owner@example.com",
		Body:         "hello",
		Status:       model.MessageStatusSending,
		AttemptCount: attempt,
		MaxAttempts:  3,
	}
}

func TestNewDispatchService_RejectsDuplicateSenders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockChannelSender(ctrl)
	first.EXPECT().Channel().Return(model.ChannelEmail).AnyTimes()
	second := mocks.NewMockChannelSender(ctrl)
	second.EXPECT().Channel().Return(model.ChannelEmail).AnyTimes()

	_, err := NewDispatchService(DispatchServiceOptions{
		Jobs:     mocks.NewMockJobRepository(ctrl),
		Messages: mocks.NewMockMessageRepository(ctrl),
		Senders:  []core.ChannelSender{first, second},
		Limiter:  mocks.NewMockRateLimiter(ctrl),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sender")
}

func TestNewDispatchService_RequiresSenders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewDispatchService(DispatchServiceOptions{
		Jobs:     mocks.NewMockJobRepository(ctrl),
		Messages: mocks.NewMockMessageRepository(ctrl),
		Limiter:  mocks.NewMockRateLimiter(ctrl),
	})
	require.Error(t, err)
}

func TestDispatchService_Channels_OnlyConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl)
	assert.Equal(t, []model.Channel{model.ChannelEmail}, f.svc.Channels())
}

func TestDispatchService_ProcessNext_SendSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(nil)
	f.messages.EXPECT().MarkSent(ctx, "msg-1").Return(true, nil)
	f.jobs.EXPECT().TryCompleteContacting(ctx, "job-1").Return(false, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_LastMessageCompletesJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(nil)
	f.messages.EXPECT().MarkSent(ctx, "msg-1").Return(true, nil)
	f.jobs.EXPECT().TryCompleteContacting(ctx, "job-1").Return(true, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_PermanentFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)
	sendErr := apperrors.PermanentSend("mailbox does not exist", nil)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(sendErr)
	f.messages.EXPECT().MarkFailed(ctx, "msg-1", sendErr.Error()).Return(true, nil)
	f.jobs.EXPECT().TryCompleteContacting(ctx, "job-1").Return(false, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_TransientFailureReschedules(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)
	sendErr := apperrors.TransientSend("connection reset", nil)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(sendErr)
	f.messages.EXPECT().
		Reschedule(ctx, gomock.AssignableToTypeOf(core.RescheduleParams{})).
		DoAndReturn(func(_ context.Context, params core.RescheduleParams) (bool, error) {
			assert.Equal(t, "msg-1", params.ID)
			assert.Equal(t, sendErr.Error(), params.ErrorMsg)
			// First retry waits at least the base delay, at most 25% longer.
			assert.False(t, params.NotBefore.Before(dispatchNow.Add(30*time.Second)))
			assert.False(t, params.NotBefore.After(dispatchNow.Add(38*time.Second)))
			return true, nil
		})

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_UnclassifiedErrorRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)
	sendErr := errors.New("something odd")

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(sendErr)
	f.messages.EXPECT().
		Reschedule(ctx, gomock.AssignableToTypeOf(core.RescheduleParams{})).
		Return(true, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_RetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(3)
	sendErr := apperrors.TransientSend("still flaky", nil)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(nil)
	f.sender.EXPECT().Send(ctx, msg).Return(sendErr)
	f.messages.EXPECT().
		MarkFailed(ctx, "msg-1", gomock.AssignableToTypeOf("")).
		DoAndReturn(func(_ context.Context, _, errMsg string) (bool, error) {
			assert.Contains(t, errMsg, "retries exhausted after 3 attempts")
			return true, nil
		})
	f.jobs.EXPECT().TryCompleteContacting(ctx, "job-1").Return(true, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_CanceledJobDropsMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(true, nil)
	f.messages.EXPECT().MarkFailed(ctx, "msg-1", "job canceled").Return(true, nil)
	f.jobs.EXPECT().Fail(ctx, "job-1", "canceled by user").Return(true, nil)

	require.NoError(t, f.svc.ProcessNext(ctx, model.ChannelEmail))
}

func TestDispatchService_ProcessNext_CancelCheckFailureGivesClaimBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, errors.New("db down"))
	f.messages.EXPECT().
		Reschedule(ctx, gomock.AssignableToTypeOf(core.RescheduleParams{})).
		DoAndReturn(func(_ context.Context, params core.RescheduleParams) (bool, error) {
			assert.Equal(t, dispatchNow.Add(30*time.Second), params.NotBefore)
			return true, nil
		})

	err := f.svc.ProcessNext(ctx, model.ChannelEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check cancel for job job-1")
}

func TestDispatchService_ProcessNext_LimiterInterruptionGivesAttemptBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)
	msg := emailMessage(1)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(msg, nil)
	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, "email").Return(context.Canceled)
	f.messages.EXPECT().
		Reschedule(ctx, gomock.AssignableToTypeOf(core.RescheduleParams{})).
		DoAndReturn(func(_ context.Context, params core.RescheduleParams) (bool, error) {
			// The send never started, so the message is due again immediately.
			assert.Equal(t, dispatchNow, params.NotBefore)
			return true, nil
		})

	err := f.svc.ProcessNext(ctx, model.ChannelEmail)
	require.Error(t, err)
}

func TestDispatchService_ProcessNext_NoMessagesAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newDispatchFixture(t, ctrl)

	f.messages.EXPECT().ClaimNext(ctx, model.ChannelEmail).Return(nil, model.ErrNoMessagesAvailable)

	err := f.svc.ProcessNext(ctx, model.ChannelEmail)
	require.ErrorIs(t, err, model.ErrNoMessagesAvailable)
}

func TestDispatchService_ProcessNext_UnconfiguredChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl)

	err := f.svc.ProcessNext(context.Background(), model.ChannelWhatsApp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sender configured")
}

func TestDispatchService_BackoffDelay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl)

	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{name: "first attempt uses base", attempt: 1, min: 30 * time.Second, max: 38 * time.Second},
		{name: "second attempt doubles", attempt: 2, min: 60 * time.Second, max: 75 * time.Second},
		{name: "zero attempt treated as first", attempt: 0, min: 30 * time.Second, max: 38 * time.Second},
		{name: "huge attempt hits the cap", attempt: 30, min: 15 * time.Minute, max: 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.svc.backoffDelay(tt.attempt)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}
