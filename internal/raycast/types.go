package raycast

import (
	"context"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
)

// HitKind определяет вариант результата луча
type HitKind uint8

const (
	HitEmpty HitKind = iota
	HitBlock
	HitEntity
)

func (k HitKind) String() string {
	switch k {
	case HitEmpty:
		return "EMPTY"
	case HitBlock:
		return "BLOCK"
	case HitEntity:
		return "ENTITY"
	default:
		return "UNKNOWN"
	}
}

// Face - грань вокселя, через которую луч вошёл в него
type Face uint8

const (
	FaceNone  Face = iota
	FaceUp         // +Y
	FaceDown       // -Y
	FaceNorth      // -Z
	FaceSouth      // +Z
	FaceWest       // -X
	FaceEast       // +X
)

func (f Face) String() string {
	switch f {
	case FaceUp:
		return "UP"
	case FaceDown:
		return "DOWN"
	case FaceNorth:
		return "NORTH"
	case FaceSouth:
		return "SOUTH"
	case FaceWest:
		return "WEST"
	case FaceEast:
		return "EAST"
	default:
		return "NONE"
	}
}

// VoxelKind описывает заполненность вокселя
type VoxelKind uint8

const (
	VoxelEmpty VoxelKind = iota
	VoxelSolid
	VoxelLiquid
)

func (k VoxelKind) String() string {
	switch k {
	case VoxelSolid:
		return "solid"
	case VoxelLiquid:
		return "liquid"
	default:
		return "empty"
	}
}

// Voxel - ответ VoxelQuery для одной ячейки сетки
type Voxel struct {
	Pos  vec.Vec3  `json:"pos"`
	Kind VoxelKind `json:"kind"`
	ID   uint32    `json:"id"`
}

// stops сообщает, останавливает ли воксель луч при заданной политике жидкостей
func (v Voxel) stops(ignoreLiquids bool) bool {
	switch v.Kind {
	case VoxelSolid:
		return true
	case VoxelLiquid:
		return !ignoreLiquids
	default:
		return false
	}
}

// Candidate - сущность-кандидат с опорной точкой (обычно позиция сущности)
type Candidate struct {
	ID        uint64
	Reference vec.Vec3Float
}

// HitResult - итог одного броска луча.
// Для EMPTY поле Voxel содержит последний проверенный воксель.
type HitResult struct {
	Kind     HitKind
	Voxel    Voxel
	Face     Face
	EntityID uint64
	Position vec.Vec3Float // позиция выборки, на которой завершился луч
	Traveled float64       // пройденное расстояние (advance * номер шага)
	Steps    int
	Occluded bool // луч по сущностям остановлен твёрдым блоком
}

// Hit возвращает true для BLOCK и ENTITY
func (r HitResult) Hit() bool {
	return r.Kind != HitEmpty
}

// VoxelQuery отвечает, что находится в вокселе.
// Вызывается на каждом шаге, поэтому должен быть дешёвым.
type VoxelQuery interface {
	VoxelAt(pos vec.Vec3) (Voxel, error)
}

// ProximityProvider перечисляет кандидатов рядом с началом луча
type ProximityProvider interface {
	Nearby(ctx context.Context, origin vec.Vec3Float, radius float64) ([]Candidate, error)
}

// BoundingVolumeSource строит хитбокс кандидата
type BoundingVolumeSource interface {
	BoxOf(id uint64) (physics.AABB, error)
}

// VoxelQueryFunc позволяет использовать функцию как VoxelQuery
type VoxelQueryFunc func(pos vec.Vec3) (Voxel, error)

func (f VoxelQueryFunc) VoxelAt(pos vec.Vec3) (Voxel, error) {
	return f(pos)
}
