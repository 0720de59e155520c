package storage

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world"
)

// ChunkBackend - хранилище секций с возможностью удаления
type ChunkBackend interface {
	world.ChunkStore
	DeleteChunk(ctx context.Context, coords vec.Vec3) error
}

// TieredChunkStore читает секции через горячий кэш (Redis) с откатом
// на холодное хранилище (BadgerDB). Запись идёт в оба уровня.
type TieredChunkStore struct {
	hot    ChunkBackend
	cold   world.ChunkStore
	logger *logging.Logger

	hits   int64
	misses int64
}

// NewTieredChunkStore создаёт двухуровневое хранилище
func NewTieredChunkStore(hot ChunkBackend, cold world.ChunkStore, logger *logging.Logger) *TieredChunkStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TieredChunkStore{hot: hot, cold: cold, logger: logger}
}

// LoadChunk сначала спрашивает кэш, при промахе читает холодный уровень
// и прогревает кэш (Read-Through)
func (t *TieredChunkStore) LoadChunk(ctx context.Context, coords vec.Vec3) (*world.Chunk, error) {
	chunk, err := t.hot.LoadChunk(ctx, coords)
	if err == nil {
		atomic.AddInt64(&t.hits, 1)
		return chunk, nil
	}
	atomic.AddInt64(&t.misses, 1)
	if !errors.Is(err, world.ErrChunkNotFound) {
		t.logger.Warn("Ошибка горячего кэша для чанка %s: %v", coords, err)
	}

	chunk, err = t.cold.LoadChunk(ctx, coords)
	if err != nil {
		return nil, err
	}
	if err := t.hot.SaveChunk(ctx, chunk); err != nil {
		t.logger.Warn("Не удалось прогреть кэш чанком %s: %v", coords, err)
	}
	return chunk, nil
}

// SaveChunk пишет в холодное хранилище, затем обновляет кэш.
// Если кэш не обновился, ключ удаляется, чтобы не отдавать старые данные.
func (t *TieredChunkStore) SaveChunk(ctx context.Context, chunk *world.Chunk) error {
	if err := t.cold.SaveChunk(ctx, chunk); err != nil {
		return err
	}
	if err := t.hot.SaveChunk(ctx, chunk); err != nil {
		t.logger.Warn("Не удалось обновить кэш чанка %s: %v", chunk.Coords, err)
		if delErr := t.hot.DeleteChunk(ctx, chunk.Coords); delErr != nil {
			t.logger.Error("Не удалось удалить устаревший чанк %s из кэша: %v", chunk.Coords, delErr)
		}
	}
	return nil
}

// HitRatio возвращает долю попаданий в кэш
func (t *TieredChunkStore) HitRatio() float64 {
	hits := atomic.LoadInt64(&t.hits)
	total := hits + atomic.LoadInt64(&t.misses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
