package membership_test

import (
	"testing"

	"github.com/goliatone/go-membership"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		user     *membership.User
		expected membership.UserStatus
	}{
		{
			name:     "nil user is pending",
			user:     nil,
			expected: membership.UserStatusPending,
		},
		{
			name:     "fresh registration is pending",
			user:     &membership.User{},
			expected: membership.UserStatusPending,
		},
		{
			name:     "email verified is approved",
			user:     &membership.User{EmailVerified: true},
			expected: membership.UserStatusApproved,
		},
		{
			name:     "admin grant is verified",
			user:     &membership.User{EmailVerified: true, Verified: true},
			expected: membership.UserStatusVerified,
		},
		{
			name:     "verified flag wins even without email flag",
			user:     &membership.User{Verified: true},
			expected: membership.UserStatusVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, membership.DeriveStatus(tt.user))
		})
	}
}

func TestUserStatusIsValid(t *testing.T) {
	assert.True(t, membership.UserStatusPending.IsValid())
	assert.True(t, membership.UserStatusApproved.IsValid())
	assert.True(t, membership.UserStatusVerified.IsValid())
	assert.False(t, membership.UserStatus("suspended").IsValid())
	assert.False(t, membership.UserStatus("").IsValid())
}

func TestUserStatusAccessors(t *testing.T) {
	pending := &membership.User{}
	approved := &membership.User{EmailVerified: true}
	verified := &membership.User{EmailVerified: true, Verified: true}

	assert.True(t, pending.IsPending())
	assert.False(t, pending.IsApproved())

	assert.True(t, approved.IsApproved())
	assert.False(t, approved.IsVerifiedMember())
	assert.Equal(t, membership.UserStatusApproved, approved.Status())

	assert.True(t, verified.IsVerifiedMember())
	assert.False(t, verified.IsPending())
}
