package implementations

import (
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

// CactusBehavior - кактус высотой в два блока.
// Верхушка ставится, только если над кактусом свободно.
type CactusBehavior struct{ block.Base }

func NewCactusBehavior() *CactusBehavior {
	return &CactusBehavior{block.Base{BlockID: block.CactusBlockID, BlockName: "cactus", Mat: block.MaterialSolid}}
}

func (b *CactusBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	above := pos.Add(vec.Vec3{Y: 1})
	if api.GetBlockID(above) != block.AirBlockID {
		return
	}
	api.SetBlock(above, block.CactusBlockID)
}
