package entity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
)

var (
	// ErrEntityNotFound возвращается для неизвестного ID сущности
	ErrEntityNotFound = errors.New("сущность не найдена")
	// ErrEntityExists возвращается при повторном добавлении ID
	ErrEntityExists = errors.New("сущность уже существует")
)

// EntityManager управляет всеми сущностями в мире.
// Наружу отдаются только копии, чтобы чтение не требовало блокировок.
type EntityManager struct {
	entities     map[uint64]*Entity // Хранилище всех сущностей
	nextEntityID uint64             // Счетчик для генерации ID
	mu           sync.RWMutex
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager() *EntityManager {
	return &EntityManager{
		entities:     make(map[uint64]*Entity),
		nextEntityID: 1,
	}
}

// SpawnEntity создаёт сущность со следующим свободным ID
func (em *EntityManager) SpawnEntity(entityType EntityType, position vec.Vec3Float) *Entity {
	em.mu.Lock()
	defer em.mu.Unlock()

	id := em.nextEntityID
	em.nextEntityID++

	e := NewEntity(id, entityType, position)
	em.entities[id] = e
	return e.Clone()
}

// AddEntity добавляет сущность с уже назначенным ID (восстановление из хранилища)
func (em *EntityManager) AddEntity(e *Entity) error {
	if e == nil || e.ID == 0 {
		return fmt.Errorf("некорректная сущность")
	}
	if !e.Position.IsFinite() {
		return fmt.Errorf("некорректная позиция сущности %d: %s", e.ID, e.Position)
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	if _, exists := em.entities[e.ID]; exists {
		return fmt.Errorf("%w: %d", ErrEntityExists, e.ID)
	}
	em.entities[e.ID] = e.Clone()
	if e.ID >= em.nextEntityID {
		em.nextEntityID = e.ID + 1
	}
	return nil
}

// DespawnEntity удаляет сущность из мира
func (em *EntityManager) DespawnEntity(entityID uint64) bool {
	em.mu.Lock()
	defer em.mu.Unlock()

	if _, exists := em.entities[entityID]; !exists {
		return false
	}
	delete(em.entities, entityID)
	return true
}

// GetEntity возвращает копию сущности по ID
func (em *EntityManager) GetEntity(entityID uint64) (*Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	e, exists := em.entities[entityID]
	if !exists {
		return nil, false
	}
	return e.Clone(), true
}

// MoveEntity переносит сущность в новую позицию ног
func (em *EntityManager) MoveEntity(entityID uint64, position vec.Vec3Float) (*Entity, error) {
	if !position.IsFinite() {
		return nil, fmt.Errorf("некорректная позиция: %s", position)
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	e, exists := em.entities[entityID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	e.Position = position
	return e.Clone(), nil
}

// SetLook меняет направление взгляда
func (em *EntityManager) SetLook(entityID uint64, yaw, pitch float64) (*Entity, error) {
	em.mu.Lock()
	defer em.mu.Unlock()

	e, exists := em.entities[entityID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	e.Yaw = yaw
	e.Pitch = pitch
	return e.Clone(), nil
}

// BoxOf возвращает хитбокс активной сущности
func (em *EntityManager) BoxOf(entityID uint64) (physics.AABB, error) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	e, exists := em.entities[entityID]
	if !exists || !e.Active {
		return physics.AABB{}, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	return e.Box(), nil
}

// GetAllEntities возвращает копии всех сущностей по возрастанию ID
func (em *EntityManager) GetAllEntities() []*Entity {
	em.mu.RLock()
	result := make([]*Entity, 0, len(em.entities))
	for _, e := range em.entities {
		result = append(result, e.Clone())
	}
	em.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count возвращает количество сущностей
func (em *EntityManager) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.entities)
}
