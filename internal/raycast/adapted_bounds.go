package raycast

import (
	"github.com/annel0/raycast/internal/physics"
)

// AdaptedBounds - BoundingVolumeSource для кандидатов, хитбоксы которых
// хранятся во внешних структурах (раскладка a..f или minX..maxZ).
// Раскладка читается адаптером один раз на тип.
type AdaptedBounds struct {
	Lookup  func(id uint64) (interface{}, error)
	Adapter *physics.BoxAdapter
}

// NewAdaptedBounds создаёт источник с собственным кешем раскладок
func NewAdaptedBounds(lookup func(id uint64) (interface{}, error)) *AdaptedBounds {
	return &AdaptedBounds{Lookup: lookup, Adapter: physics.NewBoxAdapter()}
}

func (b *AdaptedBounds) BoxOf(id uint64) (physics.AABB, error) {
	raw, err := b.Lookup(id)
	if err != nil {
		return physics.AABB{}, err
	}
	return b.Adapter.BoxOf(raw)
}
