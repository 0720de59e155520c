package world

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/entity"
)

// SpatialIndex представляет пространственный индекс для быстрого поиска сущностей.
// Сетка строится по XZ; высота проверяется по хитбоксу при запросе.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey]*cellData
	cellsMu  sync.RWMutex
	entities map[uint64]*indexedEntity
	entityMu sync.RWMutex
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, z int
}

// cellData хранит данные ячейки
type cellData struct {
	entities map[uint64]*indexedEntity
	mu       sync.RWMutex
}

// indexedEntity представляет индексированную сущность
type indexedEntity struct {
	id       uint64
	position vec.Vec3Float
	bounds   physics.AABB
	cells    []cellKey
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = ChunkSize
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]*cellData),
		entities: make(map[uint64]*indexedEntity),
	}
}

// Insert добавляет сущность в индекс или обновляет её положение
func (si *SpatialIndex) Insert(e *entity.Entity) {
	si.Remove(e.ID)

	indexed := &indexedEntity{
		id:       e.ID,
		position: e.Position,
		bounds:   e.Box(),
	}
	indexed.cells = si.getCellsForBounds(indexed.bounds)

	si.cellsMu.Lock()
	for _, key := range indexed.cells {
		cell := si.getOrCreateCell(key)
		cell.mu.Lock()
		cell.entities[e.ID] = indexed
		cell.mu.Unlock()
	}
	si.cellsMu.Unlock()

	si.entityMu.Lock()
	si.entities[e.ID] = indexed
	si.entityMu.Unlock()
}

// Update обновляет позицию сущности в индексе
func (si *SpatialIndex) Update(e *entity.Entity) {
	si.Insert(e)
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(entityID uint64) {
	si.entityMu.Lock()
	indexed, exists := si.entities[entityID]
	if !exists {
		si.entityMu.Unlock()
		return
	}
	delete(si.entities, entityID)
	si.entityMu.Unlock()

	si.cellsMu.Lock()
	for _, key := range indexed.cells {
		if cell, exists := si.cells[key]; exists {
			cell.mu.Lock()
			delete(cell.entities, entityID)
			empty := len(cell.entities) == 0
			cell.mu.Unlock()
			if empty {
				delete(si.cells, key)
			}
		}
	}
	si.cellsMu.Unlock()
}

// Hit описывает сущность, найденную запросом к индексу
type Hit struct {
	ID       uint64
	Position vec.Vec3Float
	Bounds   physics.AABB
}

// QueryRange возвращает сущности, хитбокс которых лежит в радиусе от точки.
// Порядок результата: по возрастанию ID.
func (si *SpatialIndex) QueryRange(center vec.Vec3Float, radius float64) []Hit {
	radiusSq := radius * radius
	search := physics.NewAABB(center, center).Expand(radius)
	return si.collect(search, func(bounds physics.AABB) bool {
		return distanceSquaredToBox(center, bounds) <= radiusSq
	})
}

// QueryBox возвращает сущности, хитбокс которых пересекает область
func (si *SpatialIndex) QueryBox(area physics.AABB) []Hit {
	return si.collect(area, area.Intersects)
}

func (si *SpatialIndex) collect(search physics.AABB, accept func(physics.AABB) bool) []Hit {
	seen := make(map[uint64]struct{})
	result := make([]Hit, 0)

	visit := func(cell *cellData) {
		cell.mu.RLock()
		for id, indexed := range cell.entities {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			if accept(indexed.bounds) {
				result = append(result, Hit{ID: id, Position: indexed.position, Bounds: indexed.bounds})
			}
		}
		cell.mu.RUnlock()
	}

	si.cellsMu.RLock()
	if si.cellSpan(search) > len(si.cells) {
		// Область шире занятых ячеек: дешевле пройти по всем
		for _, cell := range si.cells {
			visit(cell)
		}
	} else {
		for _, key := range si.getCellsForBounds(search) {
			if cell, exists := si.cells[key]; exists {
				visit(cell)
			}
		}
	}
	si.cellsMu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// cellSpan оценивает число ячеек, покрываемых областью
func (si *SpatialIndex) cellSpan(bounds physics.AABB) int {
	w := math.Floor(bounds.MaxX/si.cellSize) - math.Floor(bounds.MinX/si.cellSize) + 1
	d := math.Floor(bounds.MaxZ/si.cellSize) - math.Floor(bounds.MinZ/si.cellSize) + 1
	span := w * d
	if math.IsNaN(span) || span > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(span)
}

// GetCellCount возвращает количество активных ячеек
func (si *SpatialIndex) GetCellCount() int {
	si.cellsMu.RLock()
	defer si.cellsMu.RUnlock()
	return len(si.cells)
}

// GetEntityCount возвращает количество индексированных сущностей
func (si *SpatialIndex) GetEntityCount() int {
	si.entityMu.RLock()
	defer si.entityMu.RUnlock()
	return len(si.entities)
}

// GetStats возвращает статистику индекса
func (si *SpatialIndex) GetStats() string {
	si.cellsMu.RLock()
	cellCount := len(si.cells)
	totalEntitiesInCells := 0
	maxEntitiesPerCell := 0

	for _, cell := range si.cells {
		cell.mu.RLock()
		count := len(cell.entities)
		cell.mu.RUnlock()

		totalEntitiesInCells += count
		if count > maxEntitiesPerCell {
			maxEntitiesPerCell = count
		}
	}
	si.cellsMu.RUnlock()

	avgEntitiesPerCell := 0.0
	if cellCount > 0 {
		avgEntitiesPerCell = float64(totalEntitiesInCells) / float64(cellCount)
	}

	return fmt.Sprintf("SpatialIndex Stats: %d entities, %d cells, avg %.2f entities/cell, max %d entities/cell",
		si.GetEntityCount(), cellCount, avgEntitiesPerCell, maxEntitiesPerCell)
}

// getCellsForBounds возвращает ключи ячеек, которые пересекаются с границами
func (si *SpatialIndex) getCellsForBounds(bounds physics.AABB) []cellKey {
	minCellX := int(math.Floor(bounds.MinX / si.cellSize))
	minCellZ := int(math.Floor(bounds.MinZ / si.cellSize))
	maxCellX := int(math.Floor(bounds.MaxX / si.cellSize))
	maxCellZ := int(math.Floor(bounds.MaxZ / si.cellSize))

	cells := make([]cellKey, 0, (maxCellX-minCellX+1)*(maxCellZ-minCellZ+1))
	for x := minCellX; x <= maxCellX; x++ {
		for z := minCellZ; z <= maxCellZ; z++ {
			cells = append(cells, cellKey{x: x, z: z})
		}
	}
	return cells
}

// getOrCreateCell возвращает ячейку или создаёт новую; вызывается под cellsMu
func (si *SpatialIndex) getOrCreateCell(key cellKey) *cellData {
	if cell, exists := si.cells[key]; exists {
		return cell
	}

	cell := &cellData{
		entities: make(map[uint64]*indexedEntity),
	}
	si.cells[key] = cell
	return cell
}

// distanceSquaredToBox - квадрат расстояния от точки до ближайшей точки бокса
func distanceSquaredToBox(p vec.Vec3Float, b physics.AABB) float64 {
	dx := axisGap(p.X, b.MinX, b.MaxX)
	dy := axisGap(p.Y, b.MinY, b.MaxY)
	dz := axisGap(p.Z, b.MinZ, b.MaxZ)
	return dx*dx + dy*dy + dz*dz
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
