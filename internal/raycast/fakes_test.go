package raycast

import (
	"context"
	"sync"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
)

// fakeWorld - воксельный мир на карте со счётчиком обращений
type fakeWorld struct {
	mu     sync.Mutex
	voxels map[vec.Vec3]Voxel
	fail   map[vec.Vec3]error
	calls  int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		voxels: make(map[vec.Vec3]Voxel),
		fail:   make(map[vec.Vec3]error),
	}
}

func (w *fakeWorld) solid(x, y, z int) *fakeWorld {
	w.voxels[vec.Vec3{X: x, Y: y, Z: z}] = Voxel{Kind: VoxelSolid, ID: 1}
	return w
}

func (w *fakeWorld) liquid(x, y, z int) *fakeWorld {
	w.voxels[vec.Vec3{X: x, Y: y, Z: z}] = Voxel{Kind: VoxelLiquid, ID: 3}
	return w
}

func (w *fakeWorld) VoxelAt(pos vec.Vec3) (Voxel, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if err, ok := w.fail[pos]; ok {
		return Voxel{}, err
	}
	v := w.voxels[pos]
	v.Pos = pos
	return v, nil
}

func (w *fakeWorld) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// fakeEntities реализует ProximityProvider и BoundingVolumeSource
type fakeEntities struct {
	candidates   []Candidate
	boxes        map[uint64]physics.AABB
	nearbyErr    error
	boxErr       map[uint64]error
	nearbyCalls  int
	boxCalls     int
	lastRadius   float64
	// withinRadius отдаёт только кандидатов, чей хитбокс ближе radius,
	// как это делает пространственный индекс мира
	withinRadius bool
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		boxes:  make(map[uint64]physics.AABB),
		boxErr: make(map[uint64]error),
	}
}

func (f *fakeEntities) add(id uint64, ref vec.Vec3Float, box physics.AABB) *fakeEntities {
	f.candidates = append(f.candidates, Candidate{ID: id, Reference: ref})
	f.boxes[id] = box
	return f
}

func (f *fakeEntities) Nearby(ctx context.Context, origin vec.Vec3Float, radius float64) ([]Candidate, error) {
	f.nearbyCalls++
	f.lastRadius = radius
	if f.nearbyErr != nil {
		return nil, f.nearbyErr
	}
	out := make([]Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		if f.withinRadius && distanceSquaredToBox(origin, f.boxes[c.ID]) > radius*radius {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func distanceSquaredToBox(p vec.Vec3Float, b physics.AABB) float64 {
	axis := func(v, lo, hi float64) float64 {
		switch {
		case v < lo:
			return lo - v
		case v > hi:
			return v - hi
		}
		return 0
	}
	dx := axis(p.X, b.MinX, b.MaxX)
	dy := axis(p.Y, b.MinY, b.MaxY)
	dz := axis(p.Z, b.MinZ, b.MaxZ)
	return dx*dx + dy*dy + dz*dz
}

func (f *fakeEntities) BoxOf(id uint64) (physics.AABB, error) {
	f.boxCalls++
	if err, ok := f.boxErr[id]; ok {
		return physics.AABB{}, err
	}
	return f.boxes[id], nil
}

func down() vec.Vec3Float {
	return vec.Vec3Float{Y: -1}
}

func origin10() vec.Vec3Float {
	return vec.Vec3Float{X: 0, Y: 10, Z: 0}
}

// scenarioBox - хитбокс из сценария: (-0.5,6,-0.5)-(0.5,7,0.5)
func scenarioBox() physics.AABB {
	return physics.NewAABB(vec.Vec3Float{X: -0.5, Y: 6, Z: -0.5}, vec.Vec3Float{X: 0.5, Y: 7, Z: 0.5})
}
