package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/raycast/internal/world/entity"
)

// MemoryEntityRepo реализует EntityRepo в памяти.
// Используется как fallback, когда MariaDB и Redis недоступны,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryEntityRepo struct {
	mu   sync.RWMutex
	data map[uint64]*entity.Entity
}

// NewMemoryEntityRepo создает новый репозиторий сущностей в памяти.
func NewMemoryEntityRepo() *MemoryEntityRepo {
	return &MemoryEntityRepo{
		data: make(map[uint64]*entity.Entity),
	}
}

// Save сохраняет копию сущности
func (r *MemoryEntityRepo) Save(ctx context.Context, e *entity.Entity) error {
	if err := validateEntity(e); err != nil {
		return err
	}

	// Проверяем контекст на отмену
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[e.ID] = e.Clone()
	return nil
}

// Load загружает копию сущности
func (r *MemoryEntityRepo) Load(ctx context.Context, id uint64) (*entity.Entity, bool, error) {
	if id == 0 {
		return nil, false, fmt.Errorf("недействительный ID сущности: %d", id)
	}

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.data[id]
	if !exists {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

// LoadAll возвращает копии всех сущностей
func (r *MemoryEntityRepo) LoadAll(ctx context.Context) ([]*entity.Entity, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	result := make([]*entity.Entity, 0, len(r.data))
	for _, e := range r.data {
		result = append(result, e.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete удаляет сущность из памяти
func (r *MemoryEntityRepo) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("недействительный ID сущности: %d", id)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, id)
	return nil
}

// BatchSave сохраняет все сущности атомарно: либо все, либо ни одной
func (r *MemoryEntityRepo) BatchSave(ctx context.Context, entities []*entity.Entity) error {
	for _, e := range entities {
		if err := validateEntity(e); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entities {
		r.data[e.ID] = e.Clone()
	}
	return nil
}

// Count возвращает количество сохранённых сущностей (для тестов и статистики)
func (r *MemoryEntityRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
