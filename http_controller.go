package membership

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ModerationService is the admin-action surface the controller drives.
type ModerationService interface {
	ApproveUser(ctx context.Context, actorID, targetID uuid.UUID) (*User, error)
	DenyApplication(ctx context.Context, actorID, targetID uuid.UUID, reason string) (*User, error)
	UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, role Role) (*User, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
	PublishPost(ctx context.Context, actorID, postID uuid.UUID) (*Post, error)
	RejectPost(ctx context.Context, actorID, postID uuid.UUID, reason string) (*Post, error)
}

var _ ModerationService = (*Moderator)(nil)

// ApplicationSubmitter executes expert application submissions.
type ApplicationSubmitter interface {
	Execute(ctx context.Context, event SubmitApplicationMessage) error
}

type ModerationControllerRoutes struct {
	Applications string
	AdminUsers   string
	AdminPosts   string
}

type ModerationController struct {
	Logger       Logger
	Moderator    ModerationService
	Applications ApplicationSubmitter
	Routes       *ModerationControllerRoutes
	ActorKey     string
}

type ModerationControllerOption func(*ModerationController) *ModerationController

func NewModerationController(opts ...ModerationControllerOption) *ModerationController {
	c := &ModerationController{
		Logger:   defLogger{},
		ActorKey: DefaultActorLocalsKey,
		Routes: &ModerationControllerRoutes{
			Applications: "/applications",
			AdminUsers:   "/admin/users",
			AdminPosts:   "/admin/posts",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Moderator == nil {
		panic("Missing ModerationService in moderation controller...")
	}

	if c.Applications == nil {
		panic("Missing ApplicationSubmitter in moderation controller...")
	}

	return c
}

func WithControllerModerator(m ModerationService) ModerationControllerOption {
	return func(c *ModerationController) *ModerationController {
		c.Moderator = m
		return c
	}
}

func WithControllerApplications(a ApplicationSubmitter) ModerationControllerOption {
	return func(c *ModerationController) *ModerationController {
		c.Applications = a
		return c
	}
}

func WithControllerLogger(l Logger) ModerationControllerOption {
	return func(c *ModerationController) *ModerationController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerActorKey(key string) ModerationControllerOption {
	return func(c *ModerationController) *ModerationController {
		if key != "" {
			c.ActorKey = key
		}
		return c
	}
}

func RegisterModerationRoutes[T any](app router.Router[T], opts ...ModerationControllerOption) {
	controller := NewModerationController(opts...)

	app.Post(controller.Routes.Applications, controller.ApplicationCreate).
		SetName("applications.create")

	app.Post(controller.Routes.AdminUsers+"/:id/approve", controller.UserApprove).
		SetName("admin.users.approve")
	app.Post(controller.Routes.AdminUsers+"/:id/deny", controller.UserDeny).
		SetName("admin.users.deny")
	app.Put(controller.Routes.AdminUsers+"/:id/role", controller.UserRoleUpdate).
		SetName("admin.users.role")
	app.Delete(controller.Routes.AdminUsers+"/:id", controller.UserDelete).
		SetName("admin.users.delete")

	app.Post(controller.Routes.AdminPosts+"/:id/publish", controller.PostPublish).
		SetName("admin.posts.publish")
	app.Post(controller.Routes.AdminPosts+"/:id/reject", controller.PostReject).
		SetName("admin.posts.reject")
}

// ApplicationCreatePayload is the expert application body
type ApplicationCreatePayload struct {
	Reason       string  `form:"reason" json:"reason"`
	PortfolioURL *string `form:"portfolio_url" json:"portfolio_url"`
}

// Validate will run validation rules
func (r ApplicationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Reason,
			validation.Required,
			validation.Length(MinApplicationReasonLength, 0),
		),
		validation.Field(
			&r.PortfolioURL,
			is.URL,
		),
	)
}

func (a *ModerationController) ApplicationCreate(ctx router.Context) error {
	actor, err := ActorFromRouter(ctx, a.ActorKey)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(ApplicationCreatePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("application create parse payload: %v", err)
		return a.respondError(ctx, goerrors.New("failed to parse application payload", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	var resp *SubmitApplicationResponse
	msg := SubmitApplicationMessage{
		UserID:       actor,
		Reason:       payload.Reason,
		PortfolioURL: payload.PortfolioURL,
		OnResponse: func(r *SubmitApplicationResponse) {
			resp = r
		},
	}

	if err := a.Applications.Execute(ctx.Context(), msg); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message":     "application received",
		"application": resp,
	})
}

func (a *ModerationController) UserApprove(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	user, err := a.Moderator.ApproveUser(ctx.Context(), actor, target)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "user approved",
		"user":    userSubset(user),
	})
}

// UserDenyPayload carries the optional denial note
type UserDenyPayload struct {
	Reason string `form:"reason" json:"reason"`
}

func (a *ModerationController) UserDeny(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(UserDenyPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("user deny parse payload: %v", err)
	}

	user, err := a.Moderator.DenyApplication(ctx.Context(), actor, target, payload.Reason)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "application denied",
		"user":    userSubset(user),
	})
}

// UserRolePayload assigns the new role
type UserRolePayload struct {
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r UserRolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(RoleUser, RoleAdmin),
		),
	)
}

func (a *ModerationController) UserRoleUpdate(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(UserRolePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("user role parse payload: %v", err)
		return a.respondError(ctx, ErrInvalidRole)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	user, err := a.Moderator.UpdateUserRole(ctx.Context(), actor, target, Role(payload.Role))
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "role updated",
		"user":    userSubset(user),
	})
}

func (a *ModerationController) UserDelete(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	if err := a.Moderator.DeleteUser(ctx.Context(), actor, target); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "user deleted",
	})
}

func (a *ModerationController) PostPublish(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	post, err := a.Moderator.PublishPost(ctx.Context(), actor, target)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "post published",
		"post":    postSubset(post),
	})
}

// PostRejectPayload carries the decline reason shown to the author
type PostRejectPayload struct {
	Reason string `form:"reason" json:"reason"`
}

// Validate will run validation rules
func (r PostRejectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Reason,
			validation.Required,
		),
	)
}

func (a *ModerationController) PostReject(ctx router.Context) error {
	actor, target, err := a.actorAndTarget(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(PostRejectPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("post reject parse payload: %v", err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	post, err := a.Moderator.RejectPost(ctx.Context(), actor, target, payload.Reason)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "post rejected",
		"post":    postSubset(post),
	})
}

func (a *ModerationController) actorAndTarget(ctx router.Context) (uuid.UUID, uuid.UUID, error) {
	actor, err := ActorFromRouter(ctx, a.ActorKey)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	raw := ctx.Param("id")
	target, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, goerrors.New("invalid target id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"id": raw})
	}

	return actor, target, nil
}

func (a *ModerationController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ctx.JSON(statusForError(richErr), map[string]any{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	}

	a.Logger.Error("moderation controller unexpected error: %v", err)
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"error": "unexpected error",
	})
}

func statusForError(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}

func userSubset(u *User) map[string]any {
	if u == nil {
		return nil
	}

	return map[string]any{
		"id":                  u.ID.String(),
		"user_role":           u.Role,
		"status":              DeriveStatus(u),
		"is_verified":         u.Verified,
		"is_expert":           u.IsExpert,
		"verification_reason": u.VerificationReason,
		"portfolio_url":       u.PortfolioURL,
		"badge":               BadgeFor(u),
	}
}

func postSubset(p *Post) map[string]any {
	if p == nil {
		return nil
	}

	return map[string]any{
		"id":             p.ID.String(),
		"author_id":      p.AuthorID.String(),
		"is_published":   p.Published,
		"decline_reason": p.DeclineReason,
	}
}
