package membership

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Posts interface {
	repository.Repository[*Post]

	SetPublishState(ctx context.Context, id uuid.UUID, published bool, declineReason *string) (*Post, error)
	SetPublishStateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, published bool, declineReason *string) (*Post, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) Create(ctx context.Context, record *Post, criteria ...repository.InsertCriteria) (*Post, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *posts) CreateTx(ctx context.Context, tx bun.IDB, record *Post, criteria ...repository.InsertCriteria) (*Post, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *posts) SetPublishState(ctx context.Context, id uuid.UUID, published bool, declineReason *string) (*Post, error) {
	return a.SetPublishStateTx(ctx, a.db, id, published, declineReason)
}

// SetPublishStateTx writes both columns explicitly: publishing clears the
// decline reason, rejecting stores it alongside published=false.
func (a *posts) SetPublishStateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, published bool, declineReason *string) (*Post, error) {
	now := time.Now()
	record := &Post{
		ID:            id,
		Published:     published,
		DeclineReason: declineReason,
		UpdatedAt:     &now,
	}

	res, err := tx.NewUpdate().
		Model(record).
		Column("is_published", "decline_reason", "updated_at").
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

	fresh := &Post{}
	if err := tx.NewSelect().Model(fresh).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, err
	}

	return fresh, nil
}

func NewCommentsRepository(db *bun.DB) repository.Repository[*Comment] {
	handlers := repository.ModelHandlers[*Comment]{
		NewRecord: func() *Comment {
			return &Comment{}
		},
		GetID: func(record *Comment) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Comment, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewDiscussionsRepository(db *bun.DB) repository.Repository[*Discussion] {
	handlers := repository.ModelHandlers[*Discussion]{
		NewRecord: func() *Discussion {
			return &Discussion{}
		},
		GetID: func(record *Discussion) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Discussion, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}
