package world

import (
	"context"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/entity"
)

// Entities возвращает менеджер сущностей мира
func (wm *WorldManager) Entities() *entity.EntityManager {
	return wm.entities
}

// SpawnEntity создаёт сущность и индексирует её
func (wm *WorldManager) SpawnEntity(entityType entity.EntityType, position vec.Vec3Float) *entity.Entity {
	e := wm.entities.SpawnEntity(entityType, position)
	wm.index.Insert(e)
	wm.logger.Debug("Сущность %d (%s) создана в %s", e.ID, e.Type, e.Position)
	return e
}

// AddEntity добавляет сущность с заданным ID (восстановление из хранилища)
func (wm *WorldManager) AddEntity(e *entity.Entity) error {
	if err := wm.entities.AddEntity(e); err != nil {
		return err
	}
	wm.index.Insert(e)
	return nil
}

// MoveEntity переносит сущность и обновляет индекс
func (wm *WorldManager) MoveEntity(id uint64, position vec.Vec3Float) (*entity.Entity, error) {
	e, err := wm.entities.MoveEntity(id, position)
	if err != nil {
		return nil, err
	}
	wm.index.Update(e)
	return e, nil
}

// DespawnEntity удаляет сущность из мира и индекса
func (wm *WorldManager) DespawnEntity(id uint64) bool {
	wm.index.Remove(id)
	return wm.entities.DespawnEntity(id)
}

// GetEntity возвращает копию сущности
func (wm *WorldManager) GetEntity(id uint64) (*entity.Entity, bool) {
	return wm.entities.GetEntity(id)
}

// Index возвращает пространственный индекс сущностей
func (wm *WorldManager) Index() *SpatialIndex {
	return wm.index
}

// Nearby перечисляет сущности, хитбокс которых лежит в радиусе от origin
func (wm *WorldManager) Nearby(ctx context.Context, origin vec.Vec3Float, radius float64) ([]raycast.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := wm.index.QueryRange(origin, radius)
	candidates := make([]raycast.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, raycast.Candidate{ID: h.ID, Reference: h.Position})
	}
	return candidates, nil
}

// BoxOf возвращает хитбокс сущности
func (wm *WorldManager) BoxOf(id uint64) (physics.AABB, error) {
	return wm.entities.BoxOf(id)
}

// LookEntity меняет направление взгляда сущности
func (wm *WorldManager) LookEntity(id uint64, yaw, pitch float64) (*entity.Entity, error) {
	return wm.entities.SetLook(id, yaw, pitch)
}
