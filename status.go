package membership

// UserStatus is the derived lifecycle status of a member.
//
// The stored representation is two independent flags: is_email_verified
// (set by the email verification step) and is_verified (granted by an
// admin). DeriveStatus is the single place that combines them; everything
// downstream carries the explicit status instead of re-deriving boolean
// combinations.
type UserStatus string

const (
	// UserStatusPending means registered, email not yet verified
	UserStatusPending UserStatus = "pending"
	// UserStatusApproved means email-verified community member
	UserStatusApproved UserStatus = "approved"
	// UserStatusVerified means an admin granted member/expert standing
	UserStatusVerified UserStatus = "verified"
)

// IsValid checks if the status is one of the predefined statuses
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusVerified:
		return true
	default:
		return false
	}
}

// DeriveStatus computes the lifecycle status from the stored flags.
// A nil user resolves to pending, the most restrictive rung.
func DeriveStatus(u *User) UserStatus {
	if u == nil {
		return UserStatusPending
	}
	if u.Verified {
		return UserStatusVerified
	}
	if u.EmailVerified {
		return UserStatusApproved
	}
	return UserStatusPending
}

// Status is a convenience accessor for DeriveStatus
func (u *User) Status() UserStatus {
	return DeriveStatus(u)
}

// IsPending reports whether the user's email is still unverified
func (u *User) IsPending() bool {
	return DeriveStatus(u) == UserStatusPending
}

// IsApproved reports whether the user is an email-verified member without
// an admin grant
func (u *User) IsApproved() bool {
	return DeriveStatus(u) == UserStatusApproved
}

// IsVerifiedMember reports whether an admin granted verified standing
func (u *User) IsVerifiedMember() bool {
	return DeriveStatus(u) == UserStatusVerified
}
