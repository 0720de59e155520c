package entity

import (
	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
)

// Entity представляет базовую сущность в мире
type Entity struct {
	ID       uint64        `json:"id"`
	Type     EntityType    `json:"type"`
	Position vec.Vec3Float `json:"position"` // позиция ног (центр основания хитбокса)
	Size     Dimensions    `json:"size"`
	Yaw      float64       `json:"yaw"`   // градусы, 0 смотрит в +Z
	Pitch    float64       `json:"pitch"` // градусы, положительный смотрит вниз
	Active   bool          `json:"active"`
}

// NewEntity создаёт новую сущность со стандартным хитбоксом типа
func NewEntity(id uint64, entityType EntityType, position vec.Vec3Float) *Entity {
	return &Entity{
		ID:       id,
		Type:     entityType,
		Position: position,
		Size:     entityType.DefaultDimensions(),
		Active:   true,
	}
}

// Box возвращает хитбокс сущности в мировых координатах
func (e *Entity) Box() physics.AABB {
	return physics.EntityAABB(e.Position, e.Size.Width, e.Size.Height)
}

// ActorID нужен для исключения сущности из её собственного луча
func (e *Entity) ActorID() uint64 {
	return e.ID
}

// EyePosition - позиция глаз: ноги плюс высота глаз
func (e *Entity) EyePosition() vec.Vec3Float {
	return e.Position.Add(vec.Vec3Float{Y: e.Size.EyeHeight})
}

// LookDirection - единичный вектор взгляда по yaw/pitch
func (e *Entity) LookDirection() vec.Vec3Float {
	return vec.DirectionFromYawPitch(e.Yaw, e.Pitch)
}

// Clone возвращает копию, безопасную для чтения вне менеджера
func (e *Entity) Clone() *Entity {
	c := *e
	return &c
}
