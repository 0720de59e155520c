package raycast

import (
	"math"

	"github.com/annel0/raycast/internal/vec"
)

// voxelAt возвращает воксель выборки. Координата ровно на границе при движении
// в отрицательную сторону по этой оси относится к вокселю, в который луч входит.
func voxelAt(p, dir vec.Vec3Float) vec.Vec3 {
	return vec.Vec3{
		X: axisCell(p.X, dir.X),
		Y: axisCell(p.Y, dir.Y),
		Z: axisCell(p.Z, dir.Z),
	}
}

func axisCell(c, d float64) int {
	f := math.Floor(c)
	if f == c && d < 0 {
		return int(f) - 1
	}
	return int(f)
}

// entryFace определяет грань вокселя cur, через которую луч вошёл из prev.
// Если оба образца в одном вокселе, грань берётся по доминирующей оси направления.
func entryFace(prev, cur vec.Vec3, dir vec.Vec3Float) Face {
	d := cur.Sub(prev)
	if d == (vec.Vec3{}) {
		return faceFromDirection(dir)
	}

	ax, ay, az := abs(d.X), abs(d.Y), abs(d.Z)
	switch {
	case ay > ax && ay > az:
		return faceOnAxis(1, float64(d.Y))
	case ax > ay && ax > az:
		return faceOnAxis(0, float64(d.X))
	case az > ax && az > ay:
		return faceOnAxis(2, float64(d.Z))
	}

	// Диагональный переход: решает направление луча среди задействованных осей
	masked := vec.Vec3Float{}
	if d.X != 0 {
		masked.X = dir.X
	}
	if d.Y != 0 {
		masked.Y = dir.Y
	}
	if d.Z != 0 {
		masked.Z = dir.Z
	}
	return faceFromDirection(masked)
}

// faceFromDirection - грань входа для луча с направлением dir
func faceFromDirection(dir vec.Vec3Float) Face {
	ax, ay, az := math.Abs(dir.X), math.Abs(dir.Y), math.Abs(dir.Z)
	switch {
	case ax == 0 && ay == 0 && az == 0:
		return FaceNone
	case ay >= ax && ay >= az:
		return faceOnAxis(1, dir.Y)
	case ax >= az:
		return faceOnAxis(0, dir.X)
	default:
		return faceOnAxis(2, dir.Z)
	}
}

// faceOnAxis: движение в плюс по оси входит через грань со стороны минуса
func faceOnAxis(axis int, sign float64) Face {
	switch axis {
	case 0:
		if sign > 0 {
			return FaceWest
		}
		return FaceEast
	case 1:
		if sign > 0 {
			return FaceDown
		}
		return FaceUp
	default:
		if sign > 0 {
			return FaceNorth
		}
		return FaceSouth
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
