package storage

import (
	"context"
	"fmt"

	"github.com/annel0/raycast/internal/world/entity"
)

// EntityRepo определяет интерфейс для сохранения сущностей-кандидатов.
// Сущности привязаны к своему числовому ID, который сохраняется между
// перезапусками сервиса.
type EntityRepo interface {
	// Save сохраняет или обновляет сущность.
	Save(ctx context.Context, e *entity.Entity) error

	// Load загружает сущность; bool == false, если записи нет.
	Load(ctx context.Context, id uint64) (*entity.Entity, bool, error)

	// LoadAll возвращает все сохранённые сущности по возрастанию ID.
	LoadAll(ctx context.Context) ([]*entity.Entity, error)

	// Delete удаляет сущность; отсутствие записи не считается ошибкой.
	Delete(ctx context.Context, id uint64) error

	// BatchSave сохраняет несколько сущностей (для автосохранения).
	BatchSave(ctx context.Context, entities []*entity.Entity) error
}

// validateEntity проверяет общие для всех репозиториев условия
func validateEntity(e *entity.Entity) error {
	if e == nil {
		return fmt.Errorf("сущность не задана")
	}
	if e.ID == 0 {
		return fmt.Errorf("недействительный ID сущности: %d", e.ID)
	}
	if !e.Position.IsFinite() {
		return fmt.Errorf("недействительная позиция сущности %d: %s", e.ID, e.Position)
	}
	if e.Size.Width <= 0 || e.Size.Height <= 0 {
		return fmt.Errorf("недействительный размер сущности %d: %+v", e.ID, e.Size)
	}
	return nil
}
