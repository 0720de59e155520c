package entity

import "strings"

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeNPC
	EntityTypeMonster
	EntityTypeItem
	EntityTypeProjectile
	EntityTypeAnimal
	EntityTypeVehicle
)

// Dimensions описывает хитбокс типа: ширина по XZ, высота и уровень глаз
type Dimensions struct {
	Width     float64
	Height    float64
	EyeHeight float64
}

var typeNames = map[EntityType]string{
	EntityTypePlayer:     "player",
	EntityTypeNPC:        "npc",
	EntityTypeMonster:    "monster",
	EntityTypeItem:       "item",
	EntityTypeProjectile: "projectile",
	EntityTypeAnimal:     "animal",
	EntityTypeVehicle:    "vehicle",
}

var typeDimensions = map[EntityType]Dimensions{
	EntityTypePlayer:     {Width: 0.6, Height: 1.8, EyeHeight: 1.62},
	EntityTypeNPC:        {Width: 0.6, Height: 1.95, EyeHeight: 1.62},
	EntityTypeMonster:    {Width: 0.6, Height: 1.95, EyeHeight: 1.74},
	EntityTypeItem:       {Width: 0.25, Height: 0.25, EyeHeight: 0.125},
	EntityTypeProjectile: {Width: 0.5, Height: 0.5, EyeHeight: 0.13},
	EntityTypeAnimal:     {Width: 0.9, Height: 1.4, EyeHeight: 1.3},
	EntityTypeVehicle:    {Width: 1.375, Height: 0.5625, EyeHeight: 0.5},
}

func (t EntityType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// DefaultDimensions возвращает стандартный хитбокс типа
func (t EntityType) DefaultDimensions() Dimensions {
	if d, ok := typeDimensions[t]; ok {
		return d
	}
	return Dimensions{Width: 0.8, Height: 0.8, EyeHeight: 0.4}
}

// ParseEntityType разбирает имя типа из API (регистр не важен)
func ParseEntityType(name string) (EntityType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}
