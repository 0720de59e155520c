package block

import "sort"

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// MaterialOf возвращает материал блока; false для незарегистрированного ID
func MaterialOf(id BlockID) (Material, bool) {
	if id == AirBlockID {
		return MaterialAir, true
	}
	behavior, exists := registry[id]
	if !exists {
		return MaterialAir, false
	}
	return behavior.Material(), true
}

// All возвращает зарегистрированные поведения по возрастанию ID
func All() []BlockBehavior {
	out := make([]BlockBehavior, 0, len(registry))
	for _, b := range registry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ByName ищет блок по имени (как в API и конфигурации)
func ByName(name string) (BlockBehavior, bool) {
	for _, b := range registry {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID       BlockID = iota // 0
	StoneBlockID                    // 1
	GrassBlockID                    // 2
	WaterBlockID                    // 3
	SandBlockID                     // 4
	DirtBlockID                     // 5
	DeepWaterBlockID                // 6
	LavaBlockID                     // 7

	// Декоративные блоки (начиная с 100)
	FlowerBlockID BlockID = 100 // Цветок
	TreeBlockID   BlockID = 101 // Ствол дерева
	CactusBlockID BlockID = 102 // Кактус, растёт на два блока
	LeavesBlockID BlockID = 103 // Листва
)
