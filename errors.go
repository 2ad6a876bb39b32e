package membership

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	textCodeNotAuthorized          = "NOT_AUTHORIZED"
	textCodeUserNotFound           = "USER_NOT_FOUND"
	textCodePostNotFound           = "POST_NOT_FOUND"
	textCodeAlreadyVerified        = "ALREADY_VERIFIED"
	textCodeNotEligible            = "NOT_ELIGIBLE"
	textCodeApplicationPending     = "APPLICATION_PENDING"
	textCodeReasonTooShort         = "REASON_TOO_SHORT"
	textCodeInvalidRole            = "INVALID_ROLE"
	textCodeSelfRoleChange         = "SELF_ROLE_CHANGE"
	textCodeSelfDeletion           = "SELF_DELETION"
	textCodeTokenExpired           = "VERIFICATION_TOKEN_EXPIRED"
	textCodeTokenMalformed         = "VERIFICATION_TOKEN_MALFORMED"
	textCodeTokenMismatch          = "VERIFICATION_TOKEN_MISMATCH"
)

// ErrAuthenticationRequired is returned when no valid caller identity is present.
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthenticationRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotAuthorized is returned when the caller identity lacks the required role or ownership.
var ErrNotAuthorized = goerrors.New("not authorized", goerrors.CategoryAuthz).
	WithTextCode(textCodeNotAuthorized).
	WithCode(goerrors.CodeForbidden)

// ErrUserNotFound is returned when the target user does not exist.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrPostNotFound is returned when the target post does not exist.
var ErrPostNotFound = goerrors.New("post not found", goerrors.CategoryNotFound).
	WithTextCode(textCodePostNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAlreadyVerified is returned when a verified member submits an expert application.
var ErrAlreadyVerified = goerrors.New("account is already verified", goerrors.CategoryConflict).
	WithTextCode(textCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrNotEligible is returned when a user who is not yet an approved member applies.
var ErrNotEligible = goerrors.New("must be an approved community member first", goerrors.CategoryValidation).
	WithTextCode(textCodeNotEligible).
	WithCode(goerrors.CodeBadRequest)

// ErrApplicationPending is returned when an application is already awaiting review.
var ErrApplicationPending = goerrors.New("an application is already pending review", goerrors.CategoryConflict).
	WithTextCode(textCodeApplicationPending).
	WithCode(goerrors.CodeConflict)

// ErrReasonTooShort is returned when the application reason misses the minimum length.
var ErrReasonTooShort = goerrors.New("application reason must be at least 20 characters", goerrors.CategoryValidation).
	WithTextCode(textCodeReasonTooShort).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidRole is returned for role values outside the known set.
var ErrInvalidRole = goerrors.New("invalid role", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrSelfRoleChange is returned when an admin attempts to change their own role.
var ErrSelfRoleChange = goerrors.New("admins cannot change their own role", goerrors.CategoryConflict).
	WithTextCode(textCodeSelfRoleChange).
	WithCode(goerrors.CodeConflict)

// ErrSelfDeletion is returned when an admin attempts to delete their own account.
var ErrSelfDeletion = goerrors.New("admins cannot delete their own account", goerrors.CategoryConflict).
	WithTextCode(textCodeSelfDeletion).
	WithCode(goerrors.CodeConflict)

// ErrVerificationTokenExpired is returned for expired email verification tokens.
var ErrVerificationTokenExpired = goerrors.New("verification token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrVerificationTokenMalformed is returned for tokens that fail to parse or validate.
var ErrVerificationTokenMalformed = goerrors.New("verification token is malformed", goerrors.CategoryValidation).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationTokenMismatch is returned when a token does not match the
// outstanding token stored on the user row.
var ErrVerificationTokenMismatch = goerrors.New("verification token does not match", goerrors.CategoryConflict).
	WithTextCode(textCodeTokenMismatch).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("cannot hash an empty string")

// ErrMismatchedHashAndPassword is the bcrypt mismatch error
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")
