package world

import (
	"github.com/annel0/raycast/internal/util"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
	BiomeDeepWater
)

func (b BiomeType) String() string {
	switch b {
	case BiomeDesert:
		return "desert"
	case BiomeForest:
		return "forest"
	case BiomeMountains:
		return "mountains"
	case BiomeWater:
		return "water"
	case BiomeDeepWater:
		return "deep_water"
	default:
		return "plains"
	}
}

// Константы генерации
const (
	DeepWaterDepth = 4    // Глубже этого под уровнем моря - глубинная вода
	SoilDepth      = 3    // Толщина слоя земли/песка под поверхностью
	MountainOffset = 14   // Выше уровня моря на столько - горы
	DesertMax      = 0.35 // Значение шума биомов ниже - пустыня
	ForestMin      = 0.65 // Значение шума биомов выше - лес
	treeTrunk      = 4
)

// GeneratorConfig задаёт параметры ландшафта
type GeneratorConfig struct {
	Seed          int64   // Сид для генерации шума
	SeaLevel      int     // Уровень воды
	BaseHeight    int     // Средняя высота поверхности
	Amplitude     int     // Разброс высоты поверхности
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	CaveScale     float64 // Масштаб объёмного шума пещер
	CaveThreshold float64 // Порог шума, выше которого вырезается пещера
	LavaLevel     int     // Пещеры ниже этого уровня заполнены лавой
	ForestDensity float64 // Плотность деревьев на равнинах (от 0 до 1)
}

// DefaultGeneratorConfig возвращает параметры по умолчанию
func DefaultGeneratorConfig(seed int64) GeneratorConfig {
	return GeneratorConfig{
		Seed:          seed,
		SeaLevel:      62,
		BaseHeight:    64,
		Amplitude:     20,
		NoiseScale:    0.01,
		BiomeScale:    0.004,
		CaveScale:     0.08,
		CaveThreshold: 0.8,
		LavaLevel:     10,
		ForestDensity: 0.02,
	}
}

// WorldGenerator генерирует ландшафт мира по секциям.
// Результат зависит только от сида и координат, поэтому секцию можно
// безопасно выбросить из памяти и сгенерировать заново.
type WorldGenerator struct {
	cfg    GeneratorConfig
	height *util.Noise
	biome  *util.Noise
	caves  *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(cfg GeneratorConfig) *WorldGenerator {
	return &WorldGenerator{
		cfg:    cfg,
		height: util.NewNoise(cfg.Seed),
		biome:  util.NewNoise(cfg.Seed + 42),
		caves:  util.NewNoise(cfg.Seed + 1337),
	}
}

// Config возвращает параметры генератора
func (wg *WorldGenerator) Config() GeneratorConfig {
	return wg.cfg
}

// SurfaceHeight возвращает Y верхнего твёрдого блока колонки
func (wg *WorldGenerator) SurfaceHeight(x, z int) int {
	n := wg.height.Noise2D(float64(x)*wg.cfg.NoiseScale, float64(z)*wg.cfg.NoiseScale)
	return wg.cfg.BaseHeight + int((n-0.5)*2*float64(wg.cfg.Amplitude))
}

// Biome определяет биом колонки
func (wg *WorldGenerator) Biome(x, z int) BiomeType {
	return wg.columnAt(x, z).biome
}

func (wg *WorldGenerator) biomeFor(x, z, surface int) BiomeType {
	switch {
	case surface < wg.cfg.SeaLevel-DeepWaterDepth:
		return BiomeDeepWater
	case surface < wg.cfg.SeaLevel:
		return BiomeWater
	case surface > wg.cfg.SeaLevel+MountainOffset:
		return BiomeMountains
	}

	value := wg.biome.Noise2D(float64(x)*wg.cfg.BiomeScale, float64(z)*wg.cfg.BiomeScale)
	switch {
	case value < DesertMax:
		return BiomeDesert
	case value > ForestMin:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// column - высота и биом колонки, общие для всех секций по Y
type column struct {
	surface int
	biome   BiomeType
}

func (wg *WorldGenerator) columnAt(x, z int) column {
	surface := wg.SurfaceHeight(x, z)
	return column{surface: surface, biome: wg.biomeFor(x, z, surface)}
}

// GenerateChunk генерирует секцию по её координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec3) *Chunk {
	chunk := NewChunk(coords)
	origin := chunk.Origin()

	// Колонки секции и рамка в один блок вокруг неё: деревья соседей
	// могут задевать секцию листвой
	columns := make(map[vec.Vec2]column, (ChunkSize+2)*(ChunkSize+2))
	for x := -1; x <= ChunkSize; x++ {
		for z := -1; z <= ChunkSize; z++ {
			col := vec.Vec3{X: origin.X + x, Z: origin.Z + z}.Column()
			columns[col] = wg.columnAt(col.X, col.Z)
		}
	}

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			col := vec.Vec2{X: origin.X + x, Z: origin.Z + z}
			info := columns[col]
			for y := 0; y < ChunkSize; y++ {
				id := wg.blockAt(col.X, origin.Y+y, col.Z, info.surface, info.biome)
				chunk.setRaw(x, y, z, id)
			}
		}
	}

	for x := -1; x <= ChunkSize; x++ {
		for z := -1; z <= ChunkSize; z++ {
			col := vec.Vec2{X: origin.X + x, Z: origin.Z + z}
			wg.placeFeature(chunk, origin, col, columns[col])
		}
	}

	return chunk
}

// blockAt возвращает блок ландшафта без учёта деревьев
func (wg *WorldGenerator) blockAt(x, y, z, surface int, biome BiomeType) block.BlockID {
	if y > surface {
		switch {
		case y > wg.cfg.SeaLevel:
			return block.AirBlockID
		case y <= wg.cfg.SeaLevel-DeepWaterDepth:
			return block.DeepWaterBlockID
		default:
			return block.WaterBlockID
		}
	}

	if y < surface-SoilDepth && wg.isCave(x, y, z) {
		if y <= wg.cfg.LavaLevel {
			return block.LavaBlockID
		}
		return block.AirBlockID
	}

	if y == surface {
		return wg.topBlock(biome)
	}
	if y >= surface-SoilDepth {
		return wg.soilBlock(biome)
	}
	return block.StoneBlockID
}

func (wg *WorldGenerator) isCave(x, y, z int) bool {
	s := wg.cfg.CaveScale
	return wg.caves.Noise3D(float64(x)*s, float64(y)*s, float64(z)*s) > wg.cfg.CaveThreshold
}

// topBlock возвращает блок поверхности для указанного биома
func (wg *WorldGenerator) topBlock(biome BiomeType) block.BlockID {
	switch biome {
	case BiomeDesert, BiomeWater, BiomeDeepWater:
		return block.SandBlockID
	case BiomeMountains:
		return block.StoneBlockID
	default:
		return block.GrassBlockID
	}
}

// soilBlock возвращает блок подповерхностного слоя
func (wg *WorldGenerator) soilBlock(biome BiomeType) block.BlockID {
	switch biome {
	case BiomeDesert, BiomeWater, BiomeDeepWater:
		return block.SandBlockID
	case BiomeMountains:
		return block.StoneBlockID
	default:
		return block.DirtBlockID
	}
}

// placeFeature ставит дерево или кактус колонки, обрезая по границам секции
func (wg *WorldGenerator) placeFeature(chunk *Chunk, origin vec.Vec3, col vec.Vec2, info column) {
	roll := columnRoll(wg.cfg.Seed, col.X, col.Z)

	// Локальные координаты колонки и основания объекта
	lx, lz := col.X-origin.X, col.Z-origin.Z
	base := info.surface + 1 - origin.Y

	switch biome := info.biome; {
	case biome == BiomeForest && roll < 0.15, biome == BiomePlains && roll < wg.cfg.ForestDensity:
		if base > ChunkSize || base+treeTrunk+1 < 0 {
			return
		}
		for dy := treeTrunk; dy <= treeTrunk+1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					wg.placeIfAir(chunk, lx+dx, base+dy, lz+dz, block.LeavesBlockID)
				}
			}
		}
		for dy := 0; dy < treeTrunk; dy++ {
			chunk.setRaw(lx, base+dy, lz, block.TreeBlockID)
		}
	case biome == BiomeDesert && roll < 0.02:
		chunk.setRaw(lx, base, lz, block.CactusBlockID)
		chunk.setRaw(lx, base+1, lz, block.CactusBlockID)
	}
}

func (wg *WorldGenerator) placeIfAir(chunk *Chunk, x, y, z int, id block.BlockID) {
	if x < 0 || y < 0 || z < 0 || x >= ChunkSize || y >= ChunkSize || z >= ChunkSize {
		return
	}
	if chunk.Blocks[x][y][z] == block.AirBlockID {
		chunk.Blocks[x][y][z] = id
	}
}

// columnRoll возвращает детерминированное число [0, 1) для колонки
func columnRoll(seed int64, x, z int) float64 {
	h := uint64(seed) ^ uint64(int64(x))*0x9E3779B97F4A7C15 ^ uint64(int64(z))*0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}
