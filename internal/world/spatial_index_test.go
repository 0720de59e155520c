package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/entity"
)

func TestSpatialIndexQueryRange(t *testing.T) {
	si := NewSpatialIndex(16)
	si.Insert(entity.NewEntity(1, entity.EntityTypePlayer, vec.Vec3Float{X: 1, Y: 0, Z: 1}))
	si.Insert(entity.NewEntity(2, entity.EntityTypePlayer, vec.Vec3Float{X: -20, Y: 0, Z: 3}))
	si.Insert(entity.NewEntity(3, entity.EntityTypePlayer, vec.Vec3Float{X: 5, Y: 40, Z: 5}))

	hits := si.QueryRange(vec.Vec3Float{}, 5)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].ID)

	hits = si.QueryRange(vec.Vec3Float{}, 100)
	require.Len(t, hits, 3, "большой радиус проходит по всем ячейкам")
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{hits[0].ID, hits[1].ID, hits[2].ID})
}

func TestSpatialIndexRadiusUsesHitbox(t *testing.T) {
	si := NewSpatialIndex(16)
	// Ноги на расстоянии 2.1, но верх хитбокса ближе
	si.Insert(entity.NewEntity(7, entity.EntityTypePlayer, vec.Vec3Float{X: 0, Y: -2.1, Z: 0}))

	hits := si.QueryRange(vec.Vec3Float{}, 1)
	assert.Len(t, hits, 1)
}

func TestSpatialIndexUpdateAndRemove(t *testing.T) {
	si := NewSpatialIndex(16)
	e := entity.NewEntity(1, entity.EntityTypePlayer, vec.Vec3Float{X: 1, Z: 1})
	si.Insert(e)

	e.Position = vec.Vec3Float{X: 100, Z: 100}
	si.Update(e)

	assert.Empty(t, si.QueryRange(vec.Vec3Float{X: 1, Z: 1}, 3))
	assert.Len(t, si.QueryRange(vec.Vec3Float{X: 100, Z: 100}, 3), 1)
	assert.Equal(t, 1, si.GetEntityCount())

	si.Remove(1)
	assert.Equal(t, 0, si.GetEntityCount())
	assert.Equal(t, 0, si.GetCellCount(), "пустые ячейки удаляются")
	si.Remove(1)
}

func TestSpatialIndexEntityOnCellBorder(t *testing.T) {
	si := NewSpatialIndex(16)
	si.Insert(entity.NewEntity(1, entity.EntityTypePlayer, vec.Vec3Float{X: 16, Z: -0.1}))

	assert.Equal(t, 4, si.GetCellCount(), "хитбокс на углу четырёх ячеек")
	hits := si.QueryBox(physics.NewAABBFromBounds(15, 0, -1, 15.9, 2, 0))
	assert.Len(t, hits, 1)
	assert.Contains(t, si.GetStats(), "1 entities")
}
