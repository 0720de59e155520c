package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

func TestChunkSetBlockTracksChanges(t *testing.T) {
	c := NewChunk(vec.Vec3{X: 1, Y: -1, Z: 2})
	assert.Equal(t, vec.Vec3{X: 16, Y: -16, Z: 32}, c.Origin())
	assert.False(t, c.IsDirty())

	c.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}, block.StoneBlockID)
	c.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}, block.StoneBlockID)

	assert.Equal(t, block.StoneBlockID, c.GetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, uint64(1), c.ChangeCounter, "повторная установка того же блока не считается")
	assert.True(t, c.IsDirty())
	assert.Equal(t, 1, c.NonAirCount())

	c.MarkClean()
	assert.False(t, c.IsDirty())
}
