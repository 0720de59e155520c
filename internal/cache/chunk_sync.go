package cache

import (
	"context"

	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/vec"
)

// ChunkWorld - часть мира, нужная для синхронизации секций
type ChunkWorld interface {
	InvalidateChunk(coords vec.Vec3) bool
}

// ChunkSync рассылает изменения секций и сбрасывает секции,
// изменённые другими узлами
type ChunkSync struct {
	world       ChunkWorld
	invalidator CacheInvalidator
	logger      *logging.Logger
}

// NewChunkSync связывает мир с invalidator
func NewChunkSync(world ChunkWorld, invalidator CacheInvalidator, logger *logging.Logger) *ChunkSync {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChunkSync{world: world, invalidator: invalidator, logger: logger}
}

// Start подписывается на инвалидации других узлов
func (s *ChunkSync) Start(ctx context.Context) error {
	return s.invalidator.SubscribeInvalidations(ctx, s.handle)
}

// Publish рассылает изменённые секции; подходит как world.ChangeHandler
func (s *ChunkSync) Publish(ctx context.Context, chunks []vec.Vec3) {
	for _, coords := range chunks {
		if err := s.invalidator.PublishInvalidation(ctx, ChunkKey(coords)); err != nil {
			s.logger.Warn("Не удалось разослать инвалидацию чанка %s: %v", coords, err)
		}
	}
}

func (s *ChunkSync) handle(key string) error {
	coords, err := ParseChunkKey(key)
	if err != nil {
		return err
	}
	if s.world.InvalidateChunk(coords) {
		s.logger.Debug("Чанк %s сброшен по сообщению другого узла", coords)
	}
	return nil
}
