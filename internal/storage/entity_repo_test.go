package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/entity"
)

// TestMemoryEntityRepo тестирует in-memory репозиторий сущностей
func TestMemoryEntityRepo(t *testing.T) {
	repo := NewMemoryEntityRepo()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		e := entity.NewEntity(5, entity.EntityTypeAnimal, vec.Vec3Float{X: 1, Y: 64, Z: 2})
		require.NoError(t, repo.Save(ctx, e))

		loaded, found, err := repo.Load(ctx, 5)
		require.NoError(t, err)
		require.True(t, found, "сущность не найдена")
		assert.Equal(t, e, loaded)

		loaded.Position.X = 99
		again, _, _ := repo.Load(ctx, 5)
		assert.Equal(t, 1.0, again.Position.X, "репозиторий хранит копию")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		e, found, err := repo.Load(ctx, 999)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, e)
	})

	t.Run("Invalid Input", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, nil))
		assert.Error(t, repo.Save(ctx, entity.NewEntity(0, entity.EntityTypeNPC, vec.Vec3Float{})))

		bad := entity.NewEntity(7, entity.EntityTypeNPC, vec.Vec3Float{})
		bad.Size.Width = 0
		assert.Error(t, repo.Save(ctx, bad))

		_, _, err := repo.Load(ctx, 0)
		assert.Error(t, err)
	})

	t.Run("BatchSave is all or nothing", func(t *testing.T) {
		before := repo.Count()
		err := repo.BatchSave(ctx, []*entity.Entity{
			entity.NewEntity(20, entity.EntityTypeNPC, vec.Vec3Float{}),
			entity.NewEntity(0, entity.EntityTypeNPC, vec.Vec3Float{}),
		})
		assert.Error(t, err)
		assert.Equal(t, before, repo.Count())

		require.NoError(t, repo.BatchSave(ctx, []*entity.Entity{
			entity.NewEntity(21, entity.EntityTypeNPC, vec.Vec3Float{}),
			entity.NewEntity(22, entity.EntityTypeNPC, vec.Vec3Float{}),
		}))
		all, err := repo.LoadAll(ctx)
		require.NoError(t, err)
		ids := make([]uint64, 0, len(all))
		for _, e := range all {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []uint64{5, 21, 22}, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, 21))
		require.NoError(t, repo.Delete(ctx, 21), "повторное удаление не ошибка")
		_, found, err := repo.Load(ctx, 21)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := repo.Save(cancelled, entity.NewEntity(30, entity.EntityTypeNPC, vec.Vec3Float{}))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
