package block

import "github.com/annel0/raycast/internal/vec"

// BlockAPI даёт поведению блока доступ к миру.
// SetBlock через этот интерфейс не вызывает OnPlace повторно.
type BlockAPI interface {
	// GetBlockID возвращает идентификатор блока в указанной позиции.
	GetBlockID(pos vec.Vec3) BlockID

	// SetBlock устанавливает блок в указанной позиции.
	SetBlock(pos vec.Vec3, id BlockID)
}
