package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommentServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	author := mustCreateUser(t, env, "author")
	reader := mustCreateUser(t, env, "reader")
	a, err := env.articles.Create(ctx, author.ID, NewArticle{Title: "one"})
	require.NoError(t, err)
	other, err := env.articles.Create(ctx, author.ID, NewArticle{Title: "two"})
	require.NoError(t, err)

	base := time.Unix(1_700_000_000, 0)
	env.comments.SetClock(func() time.Time { return base })
	first, err := env.comments.Create(ctx, a.Slug, reader.ID, "first")
	require.NoError(t, err)
	env.comments.SetClock(func() time.Time { return base.Add(time.Minute) })
	second, err := env.comments.Create(ctx, a.Slug, reader.ID, "second")
	require.NoError(t, err)
	require.Equal(t, "reader", second.Author.Username)

	_, err = env.users.Follow(ctx, author.ID, "reader")
	require.NoError(t, err)
	list, err := env.comments.List(ctx, a.Slug, author.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.True(t, list[0].Author.Following)

	_, err = env.comments.List(ctx, "missing", 0)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.comments.Create(ctx, "missing", reader.ID, "x")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.comments.Create(ctx, a.Slug, reader.ID, " ")
	require.ErrorIs(t, err, ErrValidation)

	// 通过不匹配的 slug、非作者或不存在的评论删除均为 ErrNotFound，且评论保留
	require.ErrorIs(t, env.comments.Delete(ctx, other.Slug, first.ID, reader.ID), ErrNotFound)
	require.ErrorIs(t, env.comments.Delete(ctx, a.Slug, first.ID, author.ID), ErrNotFound)
	require.ErrorIs(t, env.comments.Delete(ctx, a.Slug, 9999, reader.ID), ErrNotFound)
	list, err = env.comments.List(ctx, a.Slug, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, env.comments.Delete(ctx, a.Slug, first.ID, reader.ID))
	list, err = env.comments.List(ctx, a.Slug, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "second", list[0].Body)
}
