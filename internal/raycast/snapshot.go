package raycast

import (
	"context"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
)

// snapshotEntry - кандидат с хитбоксом, зафиксированным на начало броска
type snapshotEntry struct {
	Candidate
	box physics.AABB
}

// snapshot собирает кандидатов один раз до начала обхода.
// Сущности, сдвинувшиеся во время броска, для него невидимы.
// Охват считается по последней выборке steps*advance: она может лежать
// почти на шаг дальше maxDistance.
func (m *Marcher) snapshot(ctx context.Context, req Request, steps int) ([]snapshotEntry, error) {
	reach := SampledReach(steps, req.Policy.Advance) + m.cfg.Margin
	radius := reach * req.Direction.Length()

	nearby, err := m.proximity.Nearby(ctx, req.Origin, radius)
	if err != nil {
		m.cfg.Metrics.queryFailure(SourceProximity)
		return nil, &QueryError{Source: SourceProximity, Position: req.Origin, Err: err}
	}

	prism := RayPrism(req.Origin, req.Direction, reach, m.cfg.Margin)

	entries := make([]snapshotEntry, 0, len(nearby))
	for _, c := range nearby {
		if excluded(req.Exclude, c.ID) {
			continue
		}

		box, err := m.bounds.BoxOf(c.ID)
		if err != nil {
			m.cfg.Metrics.queryFailure(SourceBounds)
			return nil, &QueryError{Source: SourceBounds, EntityID: c.ID, Err: err}
		}
		if !box.Intersects(prism) {
			continue
		}
		entries = append(entries, snapshotEntry{Candidate: c, box: box})
	}

	m.log.Trace("снимок кандидатов: %d из %d", len(entries), len(nearby))
	return entries, nil
}

// SampledReach возвращает дистанцию последней выборки броска
func SampledReach(steps int, advance float64) float64 {
	return advance * float64(steps)
}

// RayPrism возвращает AABB отрезка луча длиной reach, расширенный на margin
func RayPrism(origin, direction vec.Vec3Float, reach, margin float64) physics.AABB {
	end := origin.Add(direction.Mul(reach))
	return physics.SegmentBounds(origin, end).Expand(margin)
}

// closestCandidate выбирает среди хитбоксов, содержащих точку, кандидата
// с ближайшей опорной точкой. При равенстве выигрывает первый в снимке.
func closestCandidate(entries []snapshotEntry, cursor vec.Vec3Float) (int, bool) {
	best := -1
	bestDist := 0.0
	for i := range entries {
		if !entries[i].box.Contains(cursor) {
			continue
		}
		d := entries[i].Reference.DistanceSquaredTo(cursor)
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, best >= 0
}

func excluded(ids []uint64, id uint64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
