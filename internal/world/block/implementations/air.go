package implementations

import "github.com/annel0/raycast/internal/world/block"

// AirBehavior - пустой воксель
type AirBehavior struct{ block.Base }

func NewAirBehavior() *AirBehavior {
	return &AirBehavior{block.Base{BlockID: block.AirBlockID, BlockName: "air", Mat: block.MaterialAir}}
}
