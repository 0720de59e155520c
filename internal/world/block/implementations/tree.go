package implementations

import (
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

const treeTrunkHeight = 4

// TreeBehavior - ствол дерева; при установке вырастает ствол с кроной
type TreeBehavior struct{ block.Base }

func NewTreeBehavior() *TreeBehavior {
	return &TreeBehavior{block.Base{BlockID: block.TreeBlockID, BlockName: "tree", Mat: block.MaterialSolid}}
}

func (b *TreeBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	for dy := 1; dy < treeTrunkHeight; dy++ {
		p := pos.Add(vec.Vec3{Y: dy})
		if api.GetBlockID(p) != block.AirBlockID {
			return
		}
		api.SetBlock(p, block.TreeBlockID)
	}

	top := pos.Add(vec.Vec3{Y: treeTrunkHeight})
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 0; dy++ {
				p := top.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				if api.GetBlockID(p) == block.AirBlockID {
					api.SetBlock(p, block.LeavesBlockID)
				}
			}
		}
	}
}

// LeavesBehavior - крона дерева
type LeavesBehavior struct{ block.Base }

func NewLeavesBehavior() *LeavesBehavior {
	return &LeavesBehavior{block.Base{BlockID: block.LeavesBlockID, BlockName: "leaves", Mat: block.MaterialSolid}}
}
