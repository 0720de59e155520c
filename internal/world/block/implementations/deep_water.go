package implementations

import (
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

// DeepWaterBehavior - вода ниже поверхности водоёма.
// Глубинная вода без воды над собой становится обычной водой.
type DeepWaterBehavior struct{ block.Base }

func NewDeepWaterBehavior() *DeepWaterBehavior {
	return &DeepWaterBehavior{block.Base{BlockID: block.DeepWaterBlockID, BlockName: "deep_water", Mat: block.MaterialLiquid}}
}

func (b *DeepWaterBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	above := api.GetBlockID(pos.Add(vec.Vec3{Y: 1}))
	if above != block.WaterBlockID && above != block.DeepWaterBlockID {
		api.SetBlock(pos, block.WaterBlockID)
	}
}
