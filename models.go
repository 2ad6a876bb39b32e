package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the member model
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role               Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username           string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"password_hash,omitempty"`
	EmailVerified      bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Verified           bool       `bun:"is_verified" json:"is_verified,omitempty"`
	IsExpert           bool       `bun:"is_expert" json:"is_expert,omitempty"`
	VerificationReason *string    `bun:"verification_reason,nullzero" json:"verification_reason,omitempty"`
	PortfolioURL       *string    `bun:"portfolio_url,nullzero" json:"portfolio_url,omitempty"`
	VerificationToken  *string    `bun:"verification_token,nullzero" json:"-"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureRole will default the role for records created without one
func (u *User) EnsureRole() {
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// HasPendingApplication reports whether the user has an expert application
// waiting on an admin decision. A reason on an already verified user is
// historical (the approval cleared it) and a reason on an unverified user
// after a denial still counts as outstanding: there is no user-facing path
// that clears it other than an admin decision.
func (u *User) HasPendingApplication() bool {
	if u == nil {
		return false
	}
	return u.VerificationReason != nil && !u.Verified
}

// IsAdmin checks the stored role, not any client supplied value
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Post is a member authored article/post pending admin publication
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Body          string     `bun:"body" json:"body,omitempty"`
	Category      string     `bun:"category" json:"category,omitempty"`
	Subcategory   string     `bun:"subcategory" json:"subcategory,omitempty"`
	Published     bool       `bun:"is_published" json:"is_published,omitempty"`
	DeclineReason *string    `bun:"decline_reason,nullzero" json:"decline_reason,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Comment belongs to a post; ParentID threads replies
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"post_id,omitempty"`
	ParentID      *uuid.UUID `bun:"parent_id,nullzero,type:uuid" json:"parent_id,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Discussion is a free-form community thread
type Discussion struct {
	bun.BaseModel `bun:"table:discussions,alias:dsc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Body          string     `bun:"body" json:"body,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
