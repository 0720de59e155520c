package world

import (
	"sync"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

// ChunkSize - размер секции по каждой оси
const ChunkSize = 16

// Chunk представляет кубическую секцию мира 16x16x16
type Chunk struct {
	// Координаты секции (мировые >> 4)
	Coords vec.Vec3
	// Блоки в порядке [x][y][z]
	Blocks [ChunkSize][ChunkSize][ChunkSize]block.BlockID
	// Количество изменений после загрузки
	ChangeCounter uint64
	dirty         bool
	Mu            sync.RWMutex
}

// NewChunk создаёт новую пустую секцию (заполненную воздухом)
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{Coords: coords}
}

// GetBlock возвращает блок по локальным координатам
func (c *Chunk) GetBlock(local vec.Vec3) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Blocks[local.X][local.Y][local.Z]
}

// SetBlock устанавливает блок по локальным координатам
func (c *Chunk) SetBlock(local vec.Vec3, id block.BlockID) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.Blocks[local.X][local.Y][local.Z] == id {
		return
	}
	c.Blocks[local.X][local.Y][local.Z] = id
	c.ChangeCounter++
	c.dirty = true
}

// setRaw пишет блок без учёта изменений; используется генератором
func (c *Chunk) setRaw(x, y, z int, id block.BlockID) {
	if x < 0 || y < 0 || z < 0 || x >= ChunkSize || y >= ChunkSize || z >= ChunkSize {
		return
	}
	c.Blocks[x][y][z] = id
}

// Origin возвращает мировые координаты блока (0,0,0) секции
func (c *Chunk) Origin() vec.Vec3 {
	return vec.Vec3{X: c.Coords.X * ChunkSize, Y: c.Coords.Y * ChunkSize, Z: c.Coords.Z * ChunkSize}
}

// IsDirty сообщает, есть ли несохранённые изменения
func (c *Chunk) IsDirty() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.dirty
}

// MarkClean сбрасывает флаг изменений после сохранения
func (c *Chunk) MarkClean() {
	c.Mu.Lock()
	c.dirty = false
	c.Mu.Unlock()
}

// NonAirCount возвращает количество непустых блоков
func (c *Chunk) NonAirCount() int {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	count := 0
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				if c.Blocks[x][y][z] != block.AirBlockID {
					count++
				}
			}
		}
	}
	return count
}
