package implementations

import (
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

// GrassBehavior - верхний блок суши
type GrassBehavior struct{ block.Base }

func NewGrassBehavior() *GrassBehavior {
	return &GrassBehavior{block.Base{BlockID: block.GrassBlockID, BlockName: "grass", Mat: block.MaterialSolid}}
}

// OnPlace: трава под твёрдым блоком превращается в землю
func (b *GrassBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	above := pos.Add(vec.Vec3{Y: 1})
	if mat, _ := block.MaterialOf(api.GetBlockID(above)); mat == block.MaterialSolid {
		api.SetBlock(pos, block.DirtBlockID)
	}
}

// FlowerBehavior - декоративный блок. Не твёрдый физически,
// но луч останавливается на любом непустом блоке, кроме жидкостей.
type FlowerBehavior struct{ block.Base }

func NewFlowerBehavior() *FlowerBehavior {
	return &FlowerBehavior{block.Base{BlockID: block.FlowerBlockID, BlockName: "flower", Mat: block.MaterialSolid}}
}
