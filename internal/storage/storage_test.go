package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"realworld/internal/config"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := OpenDialector(sqlite.Open(dsn), config.DatabaseConfig{AutoMigrate: true, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	return db
}

func mustUser(t *testing.T, repo *UserRepo, name string) *User {
	t.Helper()
	u := &User{Username: name, Email: name + "@example.com", Password: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepo_DuplicateAndPasswordOmission(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	u := mustUser(t, users, "jake")

	err := users.Create(ctx, &User{Username: "jake", Email: "other@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := users.FindByEmail(ctx, "jake@example.com", false)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Empty(t, got.Password)

	got, err = users.FindByEmail(ctx, "jake@example.com", true)
	require.NoError(t, err)
	require.Equal(t, "hash", got.Password)

	_, err = users.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, users.Update(ctx, u.ID, map[string]any{"bio": "I work at statefarm"}))
	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "I work at statefarm", got.Bio)
	require.ErrorIs(t, users.Update(ctx, 9999, map[string]any{"bio": "x"}), ErrNotFound)
}

func TestFollowRepo_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	a, b := mustUser(t, users, "a"), mustUser(t, users, "b")
	follows := NewFollowRepo(db)

	require.NoError(t, follows.Add(ctx, a.ID, b.ID))
	require.NoError(t, follows.Add(ctx, a.ID, b.ID))
	ok, err := follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := follows.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []uint64{b.ID}, ids)

	among, err := follows.FollowingAmong(ctx, a.ID, []uint64{a.ID, b.ID})
	require.NoError(t, err)
	require.Equal(t, map[uint64]bool{b.ID: true}, among)

	require.NoError(t, follows.Remove(ctx, a.ID, b.ID))
	require.NoError(t, follows.Remove(ctx, a.ID, b.ID))
	ok, err = follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTagRepo_FindOrCreateIsExactAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	tags := NewTagRepo(newTestDB(t))

	first, err := tags.FindOrCreate(ctx, []string{"go", "go", "Go", ""})
	require.NoError(t, err)
	require.Len(t, first, 2)

	again, err := tags.FindOrCreate(ctx, []string{"go"})
	require.NoError(t, err)
	require.Equal(t, first[0].ID, again[0].ID)

	names, err := tags.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Go", "go"}, names)
}

func TestArticleRepo_ListFiltersAndDeleteCascade(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	articles := NewArticleRepo(db)
	tags := NewTagRepo(db)
	favorites := NewFavoriteRepo(db)
	comments := NewCommentRepo(db)

	author, reader := mustUser(t, users, "author"), mustUser(t, users, "reader")
	dragons, err := tags.FindOrCreate(ctx, []string{"dragons"})
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var created []*Article
	for i := 0; i < 3; i++ {
		a := &Article{
			Slug:      fmt.Sprintf("a-%d", i),
			Title:     fmt.Sprintf("A %d", i),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if i != 1 {
			a.Tags = dragons
		}
		require.NoError(t, articles.Create(ctx, a))
		created = append(created, a)
	}
	require.ErrorIs(t, articles.Create(ctx, &Article{Slug: "a-0", Title: "dup", AuthorID: author.ID}), ErrDuplicate)

	list, total, err := articles.List(ctx, ArticleQuery{Tag: "dragons", Limit: 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	require.Equal(t, "a-2", list[0].Slug)
	require.Equal(t, "author", list[0].Author.Username)
	require.Empty(t, list[0].Author.Password)

	list, total, err = articles.List(ctx, ArticleQuery{AuthorIDs: []uint64{}})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)

	require.NoError(t, favorites.Add(ctx, reader.ID, created[0].ID))
	require.NoError(t, favorites.Add(ctx, reader.ID, created[0].ID))
	counts, err := favorites.CountByArticles(ctx, []uint64{created[0].ID, created[1].ID})
	require.NoError(t, err)
	require.Equal(t, map[uint64]int64{created[0].ID: 1}, counts)

	list, total, err = articles.List(ctx, ArticleQuery{FavoritedBy: reader.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "a-0", list[0].Slug)

	require.NoError(t, comments.Create(ctx, &Comment{Body: "hi", ArticleID: created[0].ID, AuthorID: reader.ID}))
	require.NoError(t, articles.Delete(ctx, created[0].ID))

	_, err = articles.FindBySlug(ctx, "a-0")
	require.ErrorIs(t, err, ErrNotFound)
	left, err := comments.ListByArticle(ctx, created[0].ID)
	require.NoError(t, err)
	require.Empty(t, left)
	favd, err := favorites.FavoritedAmong(ctx, reader.ID, []uint64{created[0].ID})
	require.NoError(t, err)
	require.False(t, favd[created[0].ID])
	require.ErrorIs(t, articles.Delete(ctx, created[0].ID), ErrNotFound)
}

func TestArticleRepo_UpdateReplacesTagsOnlyWhenGiven(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	author := mustUser(t, NewUserRepo(db), "author")
	articles := NewArticleRepo(db)
	tags := NewTagRepo(db)

	initial, err := tags.FindOrCreate(ctx, []string{"one", "two"})
	require.NoError(t, err)
	a := &Article{Slug: "s", Title: "t", AuthorID: author.ID, Tags: initial}
	require.NoError(t, articles.Create(ctx, a))

	a.Title = "t2"
	require.NoError(t, articles.Update(ctx, a, nil))
	got, err := articles.FindBySlug(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, "t2", got.Title)
	require.Len(t, got.Tags, 2)

	three, err := tags.FindOrCreate(ctx, []string{"three"})
	require.NoError(t, err)
	require.NoError(t, articles.Update(ctx, got, three))
	got, err = articles.FindBySlug(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.Equal(t, "three", got.Tags[0].Name)
}

func TestIsDuplicate(t *testing.T) {
	require.True(t, IsDuplicate(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.False(t, IsDuplicate(&gomysql.MySQLError{Number: 1045}))
	require.True(t, IsDuplicate(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	require.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: users.email")))
	require.False(t, IsDuplicate(errors.New("boom")))
	require.False(t, IsDuplicate(nil))
}

func TestUserRepo_MySQLDuplicateTranslated(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := OpenDialector(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), config.DatabaseConfig{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jake' for key 'idx_users_username'"})
	mock.ExpectRollback()

	err = NewUserRepo(db).Create(context.Background(), &User{Username: "jake", Email: "jake@example.com", Password: "h"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}
