package implementations

import "github.com/annel0/raycast/internal/world/block"

// DirtBehavior - слой земли под травой
type DirtBehavior struct{ block.Base }

func NewDirtBehavior() *DirtBehavior {
	return &DirtBehavior{block.Base{BlockID: block.DirtBlockID, BlockName: "dirt", Mat: block.MaterialSolid}}
}

// SandBehavior - берег у воды
type SandBehavior struct{ block.Base }

func NewSandBehavior() *SandBehavior {
	return &SandBehavior{block.Base{BlockID: block.SandBlockID, BlockName: "sand", Mat: block.MaterialSolid}}
}
