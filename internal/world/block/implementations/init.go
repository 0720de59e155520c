package implementations

import "github.com/annel0/raycast/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	for _, b := range []block.BlockBehavior{
		NewAirBehavior(),
		NewStoneBehavior(),
		NewGrassBehavior(),
		NewWaterBehavior(),
		NewSandBehavior(),
		NewDirtBehavior(),
		NewDeepWaterBehavior(),
		NewLavaBehavior(),
		NewFlowerBehavior(),
		NewTreeBehavior(),
		NewCactusBehavior(),
		NewLeavesBehavior(),
	} {
		block.Register(b.ID(), b)
	}
}
