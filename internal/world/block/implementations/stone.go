package implementations

import "github.com/annel0/raycast/internal/world/block"

// StoneBehavior - основной материал подземных слоёв
type StoneBehavior struct{ block.Base }

func NewStoneBehavior() *StoneBehavior {
	return &StoneBehavior{block.Base{BlockID: block.StoneBlockID, BlockName: "stone", Mat: block.MaterialSolid}}
}
