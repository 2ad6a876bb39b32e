package membership_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-membership"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	// a single conn keeps the shared in-memory database alive for the test
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	models := []any{
		(*membership.User)(nil),
		(*membership.Post)(nil),
		(*membership.Discussion)(nil),
		(*membership.Comment)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

type userSeed struct {
	role          membership.Role
	emailVerified bool
	verified      bool
	isExpert      bool
	reason        *string
	token         *string
}

func seedUser(t *testing.T, db *bun.DB, username string, seed userSeed) *membership.User {
	t.Helper()

	role := seed.role
	if role == "" {
		role = membership.RoleUser
	}

	user := &membership.User{
		ID:                 uuid.New(),
		Role:               role,
		Username:           username,
		Email:              username + "@example.com",
		PasswordHash:       "not-a-real-hash",
		EmailVerified:      seed.emailVerified,
		Verified:           seed.verified,
		IsExpert:           seed.isExpert,
		VerificationReason: seed.reason,
		VerificationToken:  seed.token,
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func seedPost(t *testing.T, db *bun.DB, author *membership.User, title string) *membership.Post {
	t.Helper()

	post := &membership.Post{
		ID:       uuid.New(),
		AuthorID: author.ID,
		Title:    title,
		Body:     "body of " + title,
	}

	_, err := db.NewInsert().Model(post).Exec(context.Background())
	require.NoError(t, err)

	return post
}

func strptr(s string) *string { return &s }

func fetchUser(t *testing.T, db *bun.DB, id uuid.UUID) *membership.User {
	t.Helper()

	user := &membership.User{}
	err := db.NewSelect().Model(user).Where("?TableAlias.id = ?", id).Scan(context.Background())
	require.NoError(t, err)
	return user
}
