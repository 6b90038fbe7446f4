package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

func TestBuildWhere(t *testing.T) {
	t.Run("target only", func(t *testing.T) {
		where, args, err := buildWhere("users", nil, 1)
		require.NoError(t, err)
		assert.Equal(t, "target = $1", where)
		assert.Equal(t, []any{"users"}, args)
	})

	t.Run("id filter after payload placeholder", func(t *testing.T) {
		where, args, err := buildWhere("users", domain.Filter{"id": float64(4)}, 2)
		require.NoError(t, err)
		assert.Equal(t, "target = $2 AND id = $3", where)
		assert.Equal(t, []any{"users", int64(4)}, args)
	})

	t.Run("id and data fields", func(t *testing.T) {
		where, args, err := buildWhere("users", domain.Filter{"id": "4", "team": "a"}, 1)
		require.NoError(t, err)
		assert.Equal(t, "target = $1 AND id = $2 AND data @> $3::jsonb", where)
		require.Len(t, args, 3)
		assert.JSONEq(t, `{"team":"a"}`, string(args[2].([]byte)))
	})

	t.Run("invalid id", func(t *testing.T) {
		_, _, err := buildWhere("users", domain.Filter{"id": "abc"}, 1)
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})
}

func TestEncodeData_DropsID(t *testing.T) {
	payload, err := encodeData(map[string]any{"id": 3, "username": "alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice"}`, string(payload))

	payload, err = encodeData(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(payload))

	_, err = encodeData(map[string]any{"bad": make(chan int)})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestRecordRepository_Lifecycle(t *testing.T) {
	repo, target := newTestRepository(t)
	ctx := context.Background()

	rec, err := repo.Insert(ctx, target, map[string]any{"username": "alice", "team": "a"})
	require.NoError(t, err)
	id := rec.ID.(int64)
	assert.Equal(t, id, rec.Data["id"])

	n, err := repo.Update(ctx, target, domain.Filter{"id": id}, map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, target, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Data["email"])
	assert.Equal(t, "alice", got.Data["username"])

	list, err := repo.List(ctx, target)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err = repo.Delete(ctx, target, domain.Filter{"team": "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, target, id)
	assert.True(t, apperrors.IsNotFound(err))
}
