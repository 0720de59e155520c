package world

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
	_ "github.com/annel0/raycast/internal/world/block/implementations"
	"github.com/annel0/raycast/internal/world/entity"
)

// memoryStore отдаёт пустые секции для несохранённых координат,
// поэтому мир получается плоским и предсказуемым
type memoryStore struct {
	mu      sync.Mutex
	saved   map[vec.Vec3]*Chunk
	saves   int
	loadErr error
	strict  bool // возвращать ErrChunkNotFound вместо пустой секции
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[vec.Vec3]*Chunk)}
}

func (s *memoryStore) LoadChunk(ctx context.Context, coords vec.Vec3) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if c, ok := s.saved[coords]; ok {
		copied := NewChunk(coords)
		copied.Blocks = c.Blocks
		return copied, nil
	}
	if s.strict {
		return nil, ErrChunkNotFound
	}
	return NewChunk(coords), nil
}

func (s *memoryStore) SaveChunk(ctx context.Context, chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := NewChunk(chunk.Coords)
	chunk.Mu.RLock()
	copied.Blocks = chunk.Blocks
	chunk.Mu.RUnlock()
	s.saved[chunk.Coords] = copied
	s.saves++
	return nil
}

func newFlatWorld(t *testing.T) (*WorldManager, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	wm := NewWorldManager(DefaultConfig(1), store)
	t.Cleanup(wm.Stop)
	return wm, store
}

func TestVoxelAtMapsMaterials(t *testing.T) {
	wm, _ := newFlatWorld(t)
	ctx := context.Background()

	require.NoError(t, wm.SetBlock(ctx, vec.Vec3{X: 1, Y: 10, Z: 1}, block.StoneBlockID))
	require.NoError(t, wm.SetBlock(ctx, vec.Vec3{X: 2, Y: 10, Z: 1}, block.WaterBlockID))

	v, err := wm.VoxelAt(vec.Vec3{X: 1, Y: 10, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, raycast.VoxelSolid, v.Kind)
	assert.Equal(t, uint32(block.StoneBlockID), v.ID)

	v, err = wm.VoxelAt(vec.Vec3{X: 2, Y: 10, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, raycast.VoxelLiquid, v.Kind)

	v, err = wm.VoxelAt(vec.Vec3{X: 3, Y: 10, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, raycast.VoxelEmpty, v.Kind)
}

func TestVoxelAtOutsideHeightIsAir(t *testing.T) {
	wm, store := newFlatWorld(t)
	store.loadErr = errors.New("не должен вызываться")

	v, err := wm.VoxelAt(vec.Vec3{X: 0, Y: -5, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, raycast.VoxelEmpty, v.Kind)

	v, err = wm.VoxelAt(vec.Vec3{X: 0, Y: 300, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, raycast.VoxelEmpty, v.Kind)
}

func TestVoxelAtStorageFailure(t *testing.T) {
	wm, store := newFlatWorld(t)
	store.loadErr = errors.New("диск недоступен")

	_, err := wm.VoxelAt(vec.Vec3{X: 0, Y: 10, Z: 0})
	assert.Error(t, err, "ошибка хранилища должна дойти до луча")
}

func TestVoxelAtUnknownBlock(t *testing.T) {
	wm, _ := newFlatWorld(t)
	chunk, err := wm.GetChunk(vec.Vec3{})
	require.NoError(t, err)
	chunk.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.BlockID(9999))

	_, err = wm.VoxelAt(vec.Vec3{X: 1, Y: 1, Z: 1})
	assert.True(t, errors.Is(err, ErrUnknownBlock))
}

func TestSetBlockValidation(t *testing.T) {
	wm, _ := newFlatWorld(t)
	ctx := context.Background()

	err := wm.SetBlock(ctx, vec.Vec3{Y: 256}, block.StoneBlockID)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	err = wm.SetBlock(ctx, vec.Vec3{Y: 5}, block.BlockID(4242))
	assert.True(t, errors.Is(err, ErrUnknownBlock))
}

func TestSetBlockRunsOnPlaceAndPersists(t *testing.T) {
	wm, store := newFlatWorld(t)
	ctx := context.Background()

	var notified []vec.Vec3
	wm.OnChange(func(_ context.Context, chunks []vec.Vec3) {
		notified = append(notified, chunks...)
	})

	// Кактус на границе секций достраивает второй блок в соседнюю секцию
	require.NoError(t, wm.SetBlock(ctx, vec.Vec3{X: 3, Y: 15, Z: 3}, block.CactusBlockID))

	top, err := wm.GetBlock(vec.Vec3{X: 3, Y: 16, Z: 3})
	require.NoError(t, err)
	assert.Equal(t, block.CactusBlockID, top)

	assert.ElementsMatch(t, []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}, notified)
	assert.Equal(t, 2, store.saves, "обе секции должны быть сохранены")

	chunk, err := wm.GetChunk(vec.Vec3{})
	require.NoError(t, err)
	assert.False(t, chunk.IsDirty())
}

func TestInvalidateChunkReloadsFromStore(t *testing.T) {
	wm, store := newFlatWorld(t)
	ctx := context.Background()
	pos := vec.Vec3{X: 5, Y: 5, Z: 5}

	require.NoError(t, wm.SetBlock(ctx, pos, block.StoneBlockID))

	// Другой узел изменил секцию в хранилище
	remote := NewChunk(vec.Vec3{})
	remote.Blocks[5][5][5] = block.DirtBlockID
	require.NoError(t, store.SaveChunk(ctx, remote))

	assert.True(t, wm.InvalidateChunk(vec.Vec3{}))
	assert.False(t, wm.InvalidateChunk(vec.Vec3{}), "повторная инвалидация ничего не делает")

	id, err := wm.GetBlock(pos)
	require.NoError(t, err)
	assert.Equal(t, block.DirtBlockID, id)
}

func TestGeneratedChunkWhenStoreMisses(t *testing.T) {
	store := newMemoryStore()
	store.strict = true
	wm := NewWorldManager(DefaultConfig(7), store)
	defer wm.Stop()

	x, z := 3, 9
	surface := wm.Generator().SurfaceHeight(x, z)
	id, err := wm.GetBlock(vec.Vec3{X: x, Y: surface, Z: z})
	require.NoError(t, err)
	assert.Contains(t, []block.BlockID{block.GrassBlockID, block.SandBlockID, block.StoneBlockID}, id)
}

func TestChunkCacheEviction(t *testing.T) {
	store := newMemoryStore()
	cfg := DefaultConfig(1)
	cfg.ChunkCacheSize = 2
	wm := NewWorldManager(cfg, store)
	defer wm.Stop()

	for x := 0; x < 5; x++ {
		_, err := wm.GetChunk(vec.Vec3{X: x})
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, wm.LoadedChunks(), 2)
}

func TestSaveWorldWritesDirtyChunks(t *testing.T) {
	wm, store := newFlatWorld(t)
	chunk, err := wm.GetChunk(vec.Vec3{X: 1})
	require.NoError(t, err)
	chunk.SetBlock(vec.Vec3{}, block.StoneBlockID)

	n, err := wm.SaveWorld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.saves)
}

func TestNearbyAndBoxOf(t *testing.T) {
	wm, _ := newFlatWorld(t)

	near := wm.SpawnEntity(entity.EntityTypePlayer, vec.Vec3Float{X: 3, Y: 10, Z: 0})
	wm.SpawnEntity(entity.EntityTypePlayer, vec.Vec3Float{X: 50, Y: 10, Z: 0})

	candidates, err := wm.Nearby(context.Background(), vec.Vec3Float{Y: 10}, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, near.ID, candidates[0].ID)
	assert.Equal(t, near.Position, candidates[0].Reference)

	box, err := wm.BoxOf(near.ID)
	require.NoError(t, err)
	assert.True(t, box.Contains(vec.Vec3Float{X: 3, Y: 11, Z: 0}))

	assert.True(t, wm.DespawnEntity(near.ID))
	candidates, err = wm.Nearby(context.Background(), vec.Vec3Float{Y: 10}, 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	_, err = wm.BoxOf(near.ID)
	assert.True(t, errors.Is(err, entity.ErrEntityNotFound))
}

func TestNearbyRespectsCancellation(t *testing.T) {
	wm, _ := newFlatWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wm.Nearby(ctx, vec.Vec3Float{}, 5)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRaycastAgainstWorld(t *testing.T) {
	wm, _ := newFlatWorld(t)
	ctx := context.Background()
	require.NoError(t, wm.SetBlock(ctx, vec.Vec3{X: 10, Y: 59, Z: 10}, block.StoneBlockID))

	m := raycast.NewMarcher(wm, wm, wm, raycast.DefaultConfig())
	res, err := m.CastBlocks(ctx, raycast.Request{
		Origin:      vec.Vec3Float{X: 10.5, Y: 65, Z: 10.5},
		Direction:   vec.Vec3Float{Y: -1},
		MaxDistance: 10,
		Policy:      raycast.PreciseBlock,
	})
	require.NoError(t, err)
	assert.Equal(t, raycast.HitBlock, res.Kind)
	assert.Equal(t, vec.Vec3{X: 10, Y: 59, Z: 10}, res.Voxel.Pos)
	assert.Equal(t, raycast.FaceUp, res.Face)
	assert.InDelta(t, 5.0, res.Traveled, 1e-9)
}

func TestRaycastHitsEntityInWorld(t *testing.T) {
	wm, _ := newFlatWorld(t)
	shooter := wm.SpawnEntity(entity.EntityTypePlayer, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5})
	target := wm.SpawnEntity(entity.EntityTypeNPC, vec.Vec3Float{X: 0.5, Y: 10, Z: 6.5})

	looking, err := wm.LookEntity(shooter.ID, 0, 0)
	require.NoError(t, err)

	m := raycast.NewMarcher(wm, wm, wm, raycast.DefaultConfig())
	res, err := m.CastEntities(context.Background(), raycast.ActorRequest(looking, 10, true, raycast.AccurateEntity))
	require.NoError(t, err)
	assert.Equal(t, raycast.HitEntity, res.Kind)
	assert.Equal(t, target.ID, res.EntityID, "луч не должен попадать в самого стрелка")
}
