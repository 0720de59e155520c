package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

func TestGenerateChunkDeterministic(t *testing.T) {
	a := NewWorldGenerator(DefaultGeneratorConfig(123))
	b := NewWorldGenerator(DefaultGeneratorConfig(123))

	coords := vec.Vec3{X: -2, Y: 3, Z: 5}
	assert.Equal(t, a.GenerateChunk(coords).Blocks, b.GenerateChunk(coords).Blocks,
		"один сид должен давать одинаковые секции")
}

func TestSurfaceColumns(t *testing.T) {
	wg := NewWorldGenerator(DefaultGeneratorConfig(99))

	for x := 0; x < 16; x += 5 {
		for z := 0; z < 16; z += 5 {
			surface := wg.SurfaceHeight(x, z)
			chunk := wg.GenerateChunk(vec.Vec3{X: x >> 4, Y: surface >> 4, Z: z >> 4})
			local := vec.Vec3{X: x, Y: surface, Z: z}.LocalInChunk()

			top := chunk.Blocks[local.X][local.Y][local.Z]
			assert.Contains(t, []block.BlockID{block.GrassBlockID, block.SandBlockID, block.StoneBlockID}, top,
				"поверхность колонки (%d,%d) на высоте %d", x, z, surface)
		}
	}
}

func TestBlockAtLayers(t *testing.T) {
	cfg := DefaultGeneratorConfig(1)
	wg := NewWorldGenerator(cfg)
	sea := cfg.SeaLevel

	assert.Equal(t, block.AirBlockID, wg.blockAt(0, sea+1, 0, sea-10, BiomeDeepWater))
	assert.Equal(t, block.WaterBlockID, wg.blockAt(0, sea, 0, sea-10, BiomeDeepWater))
	assert.Equal(t, block.DeepWaterBlockID, wg.blockAt(0, sea-DeepWaterDepth, 0, sea-10, BiomeDeepWater))
	assert.Equal(t, block.SandBlockID, wg.blockAt(0, sea-10, 0, sea-10, BiomeDeepWater))

	assert.Equal(t, block.GrassBlockID, wg.blockAt(0, 70, 0, 70, BiomePlains))
	assert.Equal(t, block.DirtBlockID, wg.blockAt(0, 68, 0, 70, BiomePlains))
	assert.Equal(t, block.SandBlockID, wg.blockAt(0, 70, 0, 70, BiomeDesert))
}

func TestCavesAndLava(t *testing.T) {
	cfg := DefaultGeneratorConfig(1)
	cfg.CaveThreshold = -1 // пещера везде
	wg := NewWorldGenerator(cfg)

	assert.Equal(t, block.LavaBlockID, wg.blockAt(0, cfg.LavaLevel-1, 0, 70, BiomePlains))
	assert.Equal(t, block.AirBlockID, wg.blockAt(0, 40, 0, 70, BiomePlains))
	assert.Equal(t, block.DirtBlockID, wg.blockAt(0, 68, 0, 70, BiomePlains), "слой почвы не вырезается")

	cfg.CaveThreshold = 2 // пещер нет
	wg = NewWorldGenerator(cfg)
	assert.Equal(t, block.StoneBlockID, wg.blockAt(0, 40, 0, 70, BiomePlains))
}

func TestTreeFeatureClippedToChunk(t *testing.T) {
	wg := NewWorldGenerator(DefaultGeneratorConfig(5))
	chunk := NewChunk(vec.Vec3{})

	// Колонка вне секции не должна паниковать и писать за её пределы
	require.NotPanics(t, func() {
		for x := -1; x <= ChunkSize; x++ {
			wg.placeFeature(chunk, chunk.Origin(), vec.Vec2{X: x, Z: -1}, wg.columnAt(x, -1))
		}
	})
}

func TestColumnRollRange(t *testing.T) {
	for i := -50; i < 50; i++ {
		r := columnRoll(42, i, i*7)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.Less(t, r, 1.0)
	}
	assert.Equal(t, columnRoll(1, 2, 3), columnRoll(1, 2, 3))
}
