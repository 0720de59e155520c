package physics

import (
	"fmt"
	"math"

	"github.com/annel0/raycast/internal/vec"
)

// AABB представляет ограничивающий параллелепипед, выровненный по осям.
// Инвариант: Min <= Max по каждой оси. Значение неизменяемо после создания.
type AABB struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// NewAABB создаёт параллелепипед по двум произвольным противоположным углам.
// Порядок углов не важен: границы нормализуются по каждой оси.
func NewAABB(a, b vec.Vec3Float) AABB {
	return NewAABBFromBounds(a.X, a.Y, a.Z, b.X, b.Y, b.Z)
}

// NewAABBFromBounds создаёт параллелепипед по шести координатам двух углов
func NewAABBFromBounds(x1, y1, z1, x2, y2, z2 float64) AABB {
	return AABB{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MinZ: math.Min(z1, z2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
		MaxZ: math.Max(z1, z2),
	}
}

// EntityAABB строит хитбокс сущности по позиции ног, ширине и высоте
func EntityAABB(feet vec.Vec3Float, width, height float64) AABB {
	half := width / 2
	return AABB{
		MinX: feet.X - half,
		MinY: feet.Y,
		MinZ: feet.Z - half,
		MaxX: feet.X + half,
		MaxY: feet.Y + height,
		MaxZ: feet.Z + half,
	}
}

// VoxelAABB возвращает единичный куб вокселя
func VoxelAABB(pos vec.Vec3) AABB {
	return NewAABB(pos.ToFloat(), pos.Add(vec.Vec3{X: 1, Y: 1, Z: 1}).ToFloat())
}

// SegmentBounds возвращает минимальный параллелепипед, содержащий отрезок
func SegmentBounds(from, to vec.Vec3Float) AABB {
	return NewAABB(from, to)
}

// Contains проверяет попадание точки во все три замкнутых интервала [min, max]
func (b AABB) Contains(p vec.Vec3Float) bool {
	return p.X >= b.MinX && p.X <= b.MaxX &&
		p.Y >= b.MinY && p.Y <= b.MaxY &&
		p.Z >= b.MinZ && p.Z <= b.MaxZ
}

// Intersects проверяет пересечение двух параллелепипедов (касание считается пересечением)
func (b AABB) Intersects(other AABB) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY &&
		b.MinZ <= other.MaxZ && b.MaxZ >= other.MinZ
}

// Expand расширяет параллелепипед на margin во все стороны
func (b AABB) Expand(margin float64) AABB {
	return AABB{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MinZ: b.MinZ - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
		MaxZ: b.MaxZ + margin,
	}
}

// Union возвращает наименьший параллелепипед, содержащий оба
func (b AABB) Union(other AABB) AABB {
	return AABB{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MinZ: math.Min(b.MinZ, other.MinZ),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
		MaxZ: math.Max(b.MaxZ, other.MaxZ),
	}
}

// Offset сдвигает параллелепипед на вектор
func (b AABB) Offset(d vec.Vec3Float) AABB {
	return AABB{
		MinX: b.MinX + d.X,
		MinY: b.MinY + d.Y,
		MinZ: b.MinZ + d.Z,
		MaxX: b.MaxX + d.X,
		MaxY: b.MaxY + d.Y,
		MaxZ: b.MaxZ + d.Z,
	}
}

// Min возвращает минимальный угол
func (b AABB) Min() vec.Vec3Float {
	return vec.Vec3Float{X: b.MinX, Y: b.MinY, Z: b.MinZ}
}

// Max возвращает максимальный угол
func (b AABB) Max() vec.Vec3Float {
	return vec.Vec3Float{X: b.MaxX, Y: b.MaxY, Z: b.MaxZ}
}

// Center возвращает центр параллелепипеда
func (b AABB) Center() vec.Vec3Float {
	return vec.Vec3Float{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
		Z: (b.MinZ + b.MaxZ) / 2,
	}
}

// IsFinite проверяет, что все границы конечны
func (b AABB) IsFinite() bool {
	return b.Min().IsFinite() && b.Max().IsFinite()
}

func (b AABB) String() string {
	return fmt.Sprintf("[%v - %v]", b.Min(), b.Max())
}
