package membership

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultDenialReason is stored when an admin denies an application
// without providing a note.
const DefaultDenialReason = "Application rejected by admin"

// Moderator executes administrator-only transitions. The actor's role is
// re-checked against the persisted record on every call; a client-claimed
// role is never trusted.
type Moderator struct {
	repo         RepositoryManager
	machine      UserStateMachine
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// ModeratorOption customizes Moderator construction.
type ModeratorOption func(*Moderator)

// WithModeratorStateMachine overrides the lifecycle state machine.
func WithModeratorStateMachine(sm UserStateMachine) ModeratorOption {
	return func(m *Moderator) {
		if sm != nil {
			m.machine = sm
		}
	}
}

// WithModeratorActivitySink sets the audit sink for moderation actions.
func WithModeratorActivitySink(sink ActivitySink) ModeratorOption {
	return func(m *Moderator) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithModeratorLogger overrides the default logger.
func WithModeratorLogger(logger Logger) ModeratorOption {
	return func(m *Moderator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithModeratorClock injects a custom clock (useful for tests).
func WithModeratorClock(clock func() time.Time) ModeratorOption {
	return func(m *Moderator) {
		if clock != nil {
			m.now = clock
		}
	}
}

func NewModerator(repo RepositoryManager, opts ...ModeratorOption) *Moderator {
	m := &Moderator{
		repo:         repo,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.machine == nil {
		m.machine = NewUserStateMachine(repo.Users())
	}

	return m
}

// ApproveUser grants verified standing to an email-verified member. The
// grant settles any pending expert application (setting the expert flag)
// and clears the outstanding verification token. Approving an already
// verified user is a no-op success.
func (m *Moderator) ApproveUser(ctx context.Context, actorID, targetID uuid.UUID) (*User, error) {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	target, err := m.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Verified {
		return target, nil
	}

	opts := []TransitionOption{}
	if target.HasPendingApplication() {
		opts = append(opts, WithExpertGrant())
	}

	return m.machine.Transition(ctx, adminActor(actor), target, UserStatusVerified, opts...)
}

// DenyApplication denies a pending expert application, storing the given
// reason on the record. Approved standing is never revoked: the member
// keeps posting rights tied to email verification, only the verified
// grant is withheld.
func (m *Moderator) DenyApplication(ctx context.Context, actorID, targetID uuid.UUID, reason string) (*User, error) {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	target, err := m.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = DefaultDenialReason
	}

	updated, err := m.repo.Users().DenyApplication(ctx, target.ID, reason)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.WithMetadata(map[string]any{"id": targetID.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deny application")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventApplicationDenied,
		Actor:     adminActor(actor),
		UserID:    target.ID.String(),
		Metadata:  map[string]any{"reason": reason},
	})

	return updated, nil
}

// UpdateUserRole assigns a new role to the target. Self role changes are
// rejected unconditionally, regardless of direction, before any write.
func (m *Moderator) UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, role Role) (*User, error) {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !IsValidRole(role) {
		return nil, ErrInvalidRole.WithMetadata(map[string]any{"role": role})
	}

	if actorID == targetID {
		return nil, ErrSelfRoleChange.WithMetadata(map[string]any{"id": actorID.String()})
	}

	target, err := m.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	updated, err := m.repo.Users().UpdateRole(ctx, target.ID, role)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.WithMetadata(map[string]any{"id": targetID.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update role")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventUserRoleChanged,
		Actor:     adminActor(actor),
		UserID:    target.ID.String(),
		Metadata:  map[string]any{"from": target.Role, "to": role},
	})

	return updated, nil
}

// DeleteUser removes the target along with their comments, discussions,
// and posts, in one transaction. A storage failure mid-cascade rolls back
// everything; partial deletion is never observable.
func (m *Moderator) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		return ErrSelfDeletion.WithMetadata(map[string]any{"id": actorID.String()})
	}

	target, err := m.loadUser(ctx, targetID)
	if err != nil {
		return err
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Comment)(nil)).
			Where("?TableAlias.author_id = ?", target.ID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*Discussion)(nil)).
			Where("?TableAlias.author_id = ?", target.ID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*Post)(nil)).
			Where("?TableAlias.author_id = ?", target.ID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model(target).
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user deletion transaction failed")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventUserDeleted,
		Actor:     adminActor(actor),
		UserID:    target.ID.String(),
	})

	return nil
}

// PublishPost makes a post visible and clears any decline reason.
func (m *Moderator) PublishPost(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	post, err := m.repo.Posts().SetPublishState(ctx, postID, true, nil)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPostNotFound.WithMetadata(map[string]any{"id": postID.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish post")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventPostPublished,
		Actor:     adminActor(actor),
		UserID:    post.AuthorID.String(),
		Metadata:  map[string]any{"post_id": post.ID.String()},
	})

	return post, nil
}

// RejectPost keeps a post unpublished and stores the decline reason.
func (m *Moderator) RejectPost(ctx context.Context, actorID, postID uuid.UUID, reason string) (*Post, error) {
	actor, err := m.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var declineReason *string
	if reason != "" {
		declineReason = &reason
	}

	post, err := m.repo.Posts().SetPublishState(ctx, postID, false, declineReason)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPostNotFound.WithMetadata(map[string]any{"id": postID.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reject post")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventPostRejected,
		Actor:     adminActor(actor),
		UserID:    post.AuthorID.String(),
		Metadata:  map[string]any{"post_id": post.ID.String(), "reason": reason},
	})

	return post, nil
}

func (m *Moderator) requireAdmin(ctx context.Context, actorID uuid.UUID) (*User, error) {
	if actorID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}

	actor, err := m.repo.Users().GetByID(ctx, actorID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAuthenticationRequired.WithMetadata(map[string]any{"id": actorID.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load actor")
	}

	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{"id": actorID.String()})
	}

	return actor, nil
}

func (m *Moderator) loadUser(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, ErrUserNotFound
	}

	user, err := m.repo.Users().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return user, nil
}

func (m *Moderator) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("moderator activity sink error: %v", err)
	}
}

func adminActor(actor *User) ActorRef {
	if actor == nil {
		return ActorRef{Type: "system"}
	}
	return ActorRef{ID: actor.ID.String(), Type: "admin"}
}
