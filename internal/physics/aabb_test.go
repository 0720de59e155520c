package physics

import (
	"math/rand"
	"testing"

	"github.com/annel0/raycast/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAABBOrderInvariant(t *testing.T) {
	p1 := vec.Vec3Float{X: 3, Y: -2, Z: 7}
	p2 := vec.Vec3Float{X: -1, Y: 5, Z: 0.5}

	a := NewAABB(p1, p2)
	b := NewAABB(p2, p1)

	assert.Equal(t, a, b, "порядок углов не должен влиять на результат")
	assert.Equal(t, AABB{MinX: -1, MinY: -2, MinZ: 0.5, MaxX: 3, MaxY: 5, MaxZ: 7}, a)
}

func TestAABBContainsMatchesIntervals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for boxN := 0; boxN < 10; boxN++ {
		p1 := vec.Vec3Float{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10, Z: rng.Float64()*20 - 10}
		p2 := vec.Vec3Float{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10, Z: rng.Float64()*20 - 10}
		box := NewAABB(p1, p2)

		require.LessOrEqual(t, box.MinX, box.MaxX)
		require.LessOrEqual(t, box.MinY, box.MaxY)
		require.LessOrEqual(t, box.MinZ, box.MaxZ)

		for i := 0; i < 100; i++ {
			p := vec.Vec3Float{X: rng.Float64()*24 - 12, Y: rng.Float64()*24 - 12, Z: rng.Float64()*24 - 12}
			expected := p.X >= box.MinX && p.X <= box.MaxX &&
				p.Y >= box.MinY && p.Y <= box.MaxY &&
				p.Z >= box.MinZ && p.Z <= box.MaxZ
			assert.Equal(t, expected, box.Contains(p), "точка %v, бокс %v", p, box)
		}
	}
}

func TestAABBContainsClosedBounds(t *testing.T) {
	box := NewAABBFromBounds(0, 0, 0, 1, 1, 1)

	assert.True(t, box.Contains(vec.Vec3Float{X: 0, Y: 0, Z: 0}), "минимальный угол входит в бокс")
	assert.True(t, box.Contains(vec.Vec3Float{X: 1, Y: 1, Z: 1}), "максимальный угол входит в бокс")
	assert.False(t, box.Contains(vec.Vec3Float{X: 1.0000001, Y: 0.5, Z: 0.5}))
}

func TestAABBIntersectsAndExpand(t *testing.T) {
	a := NewAABBFromBounds(0, 0, 0, 1, 1, 1)
	b := NewAABBFromBounds(1.2, 0, 0, 2, 1, 1)

	assert.False(t, a.Intersects(b))
	assert.True(t, a.Expand(0.25).Intersects(b), "расширенный бокс должен задеть соседа")
	assert.True(t, a.Intersects(NewAABBFromBounds(1, 1, 1, 3, 3, 3)), "касание углом считается пересечением")

	u := a.Union(b)
	assert.Equal(t, AABB{MinX: 0, MinY: 0, MinZ: 0, MaxX: 2, MaxY: 1, MaxZ: 1}, u)
}

func TestEntityAABB(t *testing.T) {
	box := EntityAABB(vec.Vec3Float{X: 10, Y: 64, Z: -3}, 0.6, 1.8)

	assert.InDelta(t, 9.7, box.MinX, 1e-9)
	assert.InDelta(t, 10.3, box.MaxX, 1e-9)
	assert.Equal(t, 64.0, box.MinY)
	assert.InDelta(t, 65.8, box.MaxY, 1e-9)
	assert.InDelta(t, -3.3, box.MinZ, 1e-9)
	center := box.Center()
	assert.InDelta(t, 10.0, center.X, 1e-9)
	assert.InDelta(t, 64.9, center.Y, 1e-9)
	assert.InDelta(t, -3.0, center.Z, 1e-9)
}

func TestVoxelAndSegmentBounds(t *testing.T) {
	v := VoxelAABB(vec.Vec3{X: -1, Y: 4, Z: 2})
	assert.Equal(t, AABB{MinX: -1, MinY: 4, MinZ: 2, MaxX: 0, MaxY: 5, MaxZ: 3}, v)

	s := SegmentBounds(vec.Vec3Float{X: 0, Y: 10, Z: 0}, vec.Vec3Float{X: 0, Y: 5, Z: 2})
	assert.Equal(t, AABB{MinX: 0, MinY: 5, MinZ: 0, MaxX: 0, MaxY: 10, MaxZ: 2}, s)
}
