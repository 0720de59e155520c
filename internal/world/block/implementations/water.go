package implementations

import "github.com/annel0/raycast/internal/world/block"

// WaterBehavior - вода у поверхности
type WaterBehavior struct{ block.Base }

func NewWaterBehavior() *WaterBehavior {
	return &WaterBehavior{block.Base{BlockID: block.WaterBlockID, BlockName: "water", Mat: block.MaterialLiquid}}
}

// LavaBehavior - жидкость в подземных карманах
type LavaBehavior struct{ block.Base }

func NewLavaBehavior() *LavaBehavior {
	return &LavaBehavior{block.Base{BlockID: block.LavaBlockID, BlockName: "lava", Mat: block.MaterialLiquid}}
}
