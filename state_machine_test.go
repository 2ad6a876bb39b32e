package membership_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-membership"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserStateMachineApprovesPendingUser(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{ID: uuid.New()}

	expected := &membership.User{
		ID:            user.ID,
		EmailVerified: true,
	}

	store.On("UpdateStatus", mock.Anything, user.ID, membership.UserStatusApproved, mock.Anything).
		Return(expected, nil).Once()

	sm := membership.NewUserStateMachine(store)

	result, err := sm.Transition(context.Background(), membership.ActorRef{ID: "system"}, user, membership.UserStatusApproved)
	require.NoError(t, err)
	assert.True(t, result.IsApproved())
	assert.False(t, result.Verified)
	store.AssertExpectations(t)
}

func TestUserStateMachineGrantsVerifiedToApprovedUser(t *testing.T) {
	store := &MockStatusStore{}
	reason := "I run a pottery studio and teach weekly classes"
	user := &membership.User{
		ID:                 uuid.New(),
		EmailVerified:      true,
		VerificationReason: &reason,
	}

	expected := &membership.User{
		ID:            user.ID,
		EmailVerified: true,
		Verified:      true,
		IsExpert:      true,
	}

	store.On("UpdateStatus", mock.Anything, user.ID, membership.UserStatusVerified, mock.Anything).
		Return(expected, nil).Once()

	sm := membership.NewUserStateMachine(store)

	result, err := sm.Transition(
		context.Background(),
		membership.ActorRef{ID: "admin-1", Type: "admin"},
		user,
		membership.UserStatusVerified,
		membership.WithExpertGrant(),
	)
	require.NoError(t, err)
	assert.True(t, result.IsVerifiedMember())
	assert.True(t, result.IsExpert)
	assert.Nil(t, result.VerificationReason)
	store.AssertExpectations(t)
}

func TestUserStateMachineRejectsPendingToVerified(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{ID: uuid.New()}

	sm := membership.NewUserStateMachine(store)

	_, err := sm.Transition(context.Background(), membership.ActorRef{}, user, membership.UserStatusVerified)
	require.Error(t, err)
	assert.ErrorIs(t, err, membership.ErrInvalidTransition)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineVerifiedIsTerminal(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{
		ID:            uuid.New(),
		EmailVerified: true,
		Verified:      true,
	}

	sm := membership.NewUserStateMachine(store)

	_, err := sm.Transition(context.Background(), membership.ActorRef{}, user, membership.UserStatusApproved)
	require.Error(t, err)
	assert.ErrorIs(t, err, membership.ErrTerminalState)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineSameStatusIsNoOp(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{
		ID:            uuid.New(),
		EmailVerified: true,
	}

	sm := membership.NewUserStateMachine(store)

	result, err := sm.Transition(context.Background(), membership.ActorRef{}, user, membership.UserStatusApproved)
	require.NoError(t, err)
	assert.Same(t, user, result)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineForceTransitionBypassesValidation(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{ID: uuid.New()}

	store.On("UpdateStatus", mock.Anything, user.ID, membership.UserStatusVerified, mock.Anything).
		Return(&membership.User{ID: user.ID, EmailVerified: true, Verified: true}, nil).Once()

	sm := membership.NewUserStateMachine(store)

	result, err := sm.Transition(
		context.Background(),
		membership.ActorRef{},
		user,
		membership.UserStatusVerified,
		membership.WithForceTransition(),
	)
	require.NoError(t, err)
	assert.True(t, result.IsVerifiedMember())
	store.AssertExpectations(t)
}

func TestUserStateMachineRunsHooksAroundPersistence(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{ID: uuid.New()}

	var order []string
	store.On("UpdateStatus", mock.Anything, user.ID, membership.UserStatusApproved, mock.Anything).
		Run(func(mock.Arguments) {
			order = append(order, "persist")
		}).
		Return(&membership.User{ID: user.ID, EmailVerified: true}, nil).Once()

	sm := membership.NewUserStateMachine(store)

	_, err := sm.Transition(
		context.Background(),
		membership.ActorRef{ID: "admin-1"},
		user,
		membership.UserStatusApproved,
		membership.WithTransitionReason("email verified"),
		membership.WithBeforeTransitionHook(func(ctx context.Context, tc membership.TransitionContext) error {
			order = append(order, "before")
			assert.Equal(t, membership.UserStatusPending, tc.From)
			assert.Equal(t, membership.UserStatusApproved, tc.To)
			assert.Equal(t, "email verified", tc.Meta.Reason)
			return nil
		}),
		membership.WithAfterTransitionHook(func(ctx context.Context, tc membership.TransitionContext) error {
			order = append(order, "after")
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "persist", "after"}, order)
	store.AssertExpectations(t)
}

func TestUserStateMachineBeforeHookErrorStopsPersistence(t *testing.T) {
	store := &MockStatusStore{}
	user := &membership.User{ID: uuid.New()}

	hookErr := errors.New("veto")
	sm := membership.NewUserStateMachine(store,
		membership.WithStateMachineHookErrorHandler(func(ctx context.Context, phase membership.TransitionHookPhase, err error, tc membership.TransitionContext) error {
			assert.Equal(t, membership.HookPhaseBefore, phase)
			return err
		}),
	)

	_, err := sm.Transition(
		context.Background(),
		membership.ActorRef{},
		user,
		membership.UserStatusApproved,
		membership.WithBeforeTransitionHook(func(context.Context, membership.TransitionContext) error {
			return hookErr
		}),
	)
	require.ErrorIs(t, err, hookErr)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineRecordsActivityEvent(t *testing.T) {
	store := &MockStatusStore{}
	sink := &recorderSink{}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	user := &membership.User{ID: uuid.New(), EmailVerified: true}

	store.On("UpdateStatus", mock.Anything, user.ID, membership.UserStatusVerified, mock.Anything).
		Return(&membership.User{ID: user.ID, EmailVerified: true, Verified: true}, nil).Once()

	sm := membership.NewUserStateMachine(store,
		membership.WithStateMachineActivitySink(sink),
		membership.WithStateMachineClock(func() time.Time { return now }),
	)

	_, err := sm.Transition(
		context.Background(),
		membership.ActorRef{ID: "admin-1", Type: "admin"},
		user,
		membership.UserStatusVerified,
		membership.WithTransitionReason("community vouched"),
	)
	require.NoError(t, err)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, membership.ActivityEventUserStatusChanged, events[0].EventType)
	assert.Equal(t, membership.UserStatusApproved, events[0].FromStatus)
	assert.Equal(t, membership.UserStatusVerified, events[0].ToStatus)
	assert.Equal(t, "admin-1", events[0].Actor.ID)
	assert.Equal(t, now, events[0].OccurredAt)
	assert.Equal(t, "community vouched", events[0].Metadata["reason"])
	store.AssertExpectations(t)
}

func TestUserStateMachineNilUserRejected(t *testing.T) {
	sm := membership.NewUserStateMachine(&MockStatusStore{})

	_, err := sm.Transition(context.Background(), membership.ActorRef{}, nil, membership.UserStatusApproved)
	require.Error(t, err)
	assert.ErrorIs(t, err, membership.ErrInvalidTransition)
}

func TestUserStateMachineCurrentStatus(t *testing.T) {
	sm := membership.NewUserStateMachine(&MockStatusStore{})

	assert.Equal(t, membership.UserStatusPending, sm.CurrentStatus(nil))
	assert.Equal(t, membership.UserStatusPending, sm.CurrentStatus(&membership.User{}))
	assert.Equal(t, membership.UserStatusApproved, sm.CurrentStatus(&membership.User{EmailVerified: true}))
	assert.Equal(t, membership.UserStatusVerified, sm.CurrentStatus(&membership.User{EmailVerified: true, Verified: true}))
}
