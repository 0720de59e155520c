package block

import "github.com/annel0/raycast/internal/vec"

// Material определяет, как блок ведёт себя для лучей и коллизий
type Material uint8

const (
	MaterialAir Material = iota
	MaterialSolid
	MaterialLiquid
)

func (m Material) String() string {
	switch m {
	case MaterialSolid:
		return "solid"
	case MaterialLiquid:
		return "liquid"
	default:
		return "air"
	}
}

// BlockBehavior определяет поведение блока
type BlockBehavior interface {
	ID() BlockID
	Name() string
	Material() Material
	// OnPlace вызывается после установки блока через API мира
	OnPlace(api BlockAPI, pos vec.Vec3)
}

// Base реализует BlockBehavior для блоков без особого поведения
type Base struct {
	BlockID   BlockID
	BlockName string
	Mat       Material
}

func (b *Base) ID() BlockID                        { return b.BlockID }
func (b *Base) Name() string                       { return b.BlockName }
func (b *Base) Material() Material                 { return b.Mat }
func (b *Base) OnPlace(api BlockAPI, pos vec.Vec3) {}
