package membership

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var VerifyUserEmailSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var DenyApplicationSQL = `UPDATE "users" AS "usr"
SET
	"is_verified" = FALSE,
	"is_expert" = FALSE,
	"verification_reason" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)
	UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*User, error)

	SetApplication(ctx context.Context, id uuid.UUID, reason string, portfolioURL *string) (*User, error)
	SetApplicationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, reason string, portfolioURL *string) (*User, error)
	DenyApplication(ctx context.Context, id uuid.UUID, reason string) (*User, error)
	DenyApplicationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, reason string) (*User, error)

	VerifyEmail(ctx context.Context, id uuid.UUID) error
	VerifyEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	Approve(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error)
	GrantVerified(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db                  *bun.DB
	stateMachine        UserStateMachine
	stateMachineOptions []StateMachineOption
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ StatusStore                  = (*users)(nil)
)

type UsersOption func(*users)

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func WithUsersStateMachineOptions(options ...StateMachineOption) UsersOption {
	return func(u *users) {
		if len(options) == 0 {
			return
		}
		u.stateMachineOptions = append(u.stateMachineOptions, options...)
		u.stateMachine = nil
	}
}

func WithUsersStateMachine(sm UserStateMachine) UsersOption {
	return func(u *users) {
		u.stateMachine = sm
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) VerifyEmail(ctx context.Context, id uuid.UUID) error {
	return a.VerifyEmailTx(ctx, a.db, id)
}

func (a *users) VerifyEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, VerifyUserEmailSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) DenyApplication(ctx context.Context, id uuid.UUID, reason string) (*User, error) {
	return a.DenyApplicationTx(ctx, a.db, id, reason)
}

func (a *users) DenyApplicationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, reason string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, DenyApplicationSQL, reason, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *users) SetApplication(ctx context.Context, id uuid.UUID, reason string, portfolioURL *string) (*User, error) {
	return a.SetApplicationTx(ctx, a.db, id, reason, portfolioURL)
}

func (a *users) SetApplicationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, reason string, portfolioURL *string) (*User, error) {
	now := time.Now()
	record := &User{
		ID:                 id,
		VerificationReason: &reason,
		PortfolioURL:       portfolioURL,
		UpdatedAt:          &now,
	}

	res, err := tx.NewUpdate().
		Model(record).
		Column("verification_reason", "portfolio_url", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return a.GetByIdentifierTx(ctx, tx, id.String())
}

func (a *users) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	return a.UpdateRoleTx(ctx, a.db, id, role)
}

func (a *users) UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*User, error) {
	now := time.Now()
	record := &User{
		ID:        id,
		Role:      role,
		UpdatedAt: &now,
	}

	res, err := tx.NewUpdate().
		Model(record).
		Column("user_role", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return a.GetByIdentifierTx(ctx, tx, id.String())
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	now := time.Now()
	update := &statusUpdate{
		record:  &User{ID: id, UpdatedAt: &now},
		columns: []string{"is_email_verified", "is_verified", "updated_at"},
	}

	switch status {
	case UserStatusApproved:
		update.record.EmailVerified = true
	case UserStatusVerified:
		update.record.EmailVerified = true
		update.record.Verified = true
	}

	for _, opt := range opts {
		if opt != nil {
			opt(update)
		}
	}

	res, err := tx.NewUpdate().
		Model(update.record).
		Column(update.columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return a.GetByIdentifierTx(ctx, tx, id.String())
}

func (a *users) Approve(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error) {
	return a.lifecycleMachine().Transition(ctx, actor, user, UserStatusApproved, opts...)
}

func (a *users) GrantVerified(ctx context.Context, actor ActorRef, user *User, opts ...TransitionOption) (*User, error) {
	return a.lifecycleMachine().Transition(ctx, actor, user, UserStatusVerified, opts...)
}

// statusUpdate tracks the record mutation alongside the explicit column
// list so false and NULL values survive the write.
type statusUpdate struct {
	record  *User
	columns []string
}

func (su *statusUpdate) column(name string) {
	for _, c := range su.columns {
		if c == name {
			return
		}
	}
	su.columns = append(su.columns, name)
}

// StatusUpdateOption allows callers to mutate the user record before persisting status changes.
type StatusUpdateOption func(*statusUpdate)

// WithVerificationToken sets (or clears, with nil) the outstanding email
// verification token during a status change.
func WithVerificationToken(token *string) StatusUpdateOption {
	return func(su *statusUpdate) {
		su.record.VerificationToken = token
		su.column("verification_token")
	}
}

// WithApplicationReason sets (or clears, with nil) the expert application
// reason during a status change.
func WithApplicationReason(reason *string) StatusUpdateOption {
	return func(su *statusUpdate) {
		su.record.VerificationReason = reason
		su.column("verification_reason")
	}
}

// WithExpertFlag records whether the verification came through the expert
// application path.
func WithExpertFlag(expert bool) StatusUpdateOption {
	return func(su *statusUpdate) {
		su.record.IsExpert = expert
		su.column("is_expert")
	}
}

// WithPortfolioURL sets the portfolio submitted with the application.
func WithPortfolioURL(url *string) StatusUpdateOption {
	return func(su *statusUpdate) {
		su.record.PortfolioURL = url
		su.column("portfolio_url")
	}
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureRole()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func (a *users) lifecycleMachine() UserStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewUserStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}
