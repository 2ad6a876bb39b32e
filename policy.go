package membership

import "github.com/google/uuid"

// Permission predicates are pure and nil-safe: an absent user always
// resolves to the most restrictive answer.

// CanCreatePost reports whether the user may author posts.
// Requires verified standing; admins bypass the gate.
func CanCreatePost(u *User) bool {
	return u != nil && (u.Verified || u.Role == RoleAdmin)
}

// CanCreateArticle reports whether the user may write long-form articles.
func CanCreateArticle(u *User) bool {
	return CanCreatePost(u)
}

// CanCreateDiscussion reports whether the user may open discussion threads.
func CanCreateDiscussion(u *User) bool {
	return CanCreatePost(u)
}

// CanCreateComment reports whether the user may comment or reply.
func CanCreateComment(u *User) bool {
	return CanCreatePost(u)
}

// CanViewContent always allows; browsing has no gate, anonymous included.
func CanViewContent(u *User) bool {
	return true
}

// CanEditOwnContent allows the owner of a record, or any admin.
func CanEditOwnContent(u *User, ownerID uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.ID == ownerID || u.Role == RoleAdmin
}

// CanModerate allows admins only.
func CanModerate(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// CanApplyForExpert reports whether the user may submit an expert
// application: approved members without an outstanding application.
// Admins never apply.
func CanApplyForExpert(u *User) bool {
	if u == nil || u.Role == RoleAdmin {
		return false
	}
	if u.VerificationReason != nil {
		return false
	}
	return DeriveStatus(u) == UserStatusApproved
}

// Badge colors used by the UI layer
const (
	BadgeColorRed    = "red"
	BadgeColorPurple = "purple"
	BadgeColorGreen  = "green"
	BadgeColorGray   = "gray"
)

// Badge is the display tier shown next to a user's name
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// BadgeFor resolves the display badge for a user. Expert-path verified
// members show "Expert", plain verified members show "Member"; an absent
// user is a guest.
func BadgeFor(u *User) Badge {
	switch {
	case u == nil:
		return Badge{Label: "Guest", Color: BadgeColorGray}
	case u.Role == RoleAdmin:
		return Badge{Label: "Admin", Color: BadgeColorRed}
	case u.Verified && u.IsExpert:
		return Badge{Label: "Expert", Color: BadgeColorPurple}
	case u.Verified:
		return Badge{Label: "Member", Color: BadgeColorGreen}
	default:
		return Badge{Label: "New", Color: BadgeColorGray}
	}
}
