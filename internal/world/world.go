package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
	"github.com/annel0/raycast/internal/world/entity"
)

var (
	// ErrChunkNotFound возвращает ChunkStore, если секция ещё не сохранялась
	ErrChunkNotFound = errors.New("чанк не найден")
	// ErrUnknownBlock - в секции лежит незарегистрированный ID блока
	ErrUnknownBlock = errors.New("неизвестный блок")
	// ErrOutOfBounds - позиция вне допустимой высоты мира
	ErrOutOfBounds = errors.New("позиция вне границ мира")
)

// ChunkStore сохраняет и загружает секции
type ChunkStore interface {
	LoadChunk(ctx context.Context, coords vec.Vec3) (*Chunk, error)
	SaveChunk(ctx context.Context, chunk *Chunk) error
}

// ChangeHandler получает координаты секций, изменённых одной операцией
type ChangeHandler func(ctx context.Context, chunks []vec.Vec3)

// Config задаёт параметры мира
type Config struct {
	MinY             int // нижняя граница (включительно)
	MaxY             int // верхняя граница (исключительно)
	ChunkCacheSize   int // сколько секций держать в памяти
	AutoSaveInterval time.Duration
	LoadTimeout      time.Duration
	Generator        GeneratorConfig
	Logger           *logging.Logger
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig(seed int64) Config {
	return Config{
		MinY:             0,
		MaxY:             256,
		ChunkCacheSize:   4096,
		AutoSaveInterval: 5 * time.Minute,
		LoadTimeout:      2 * time.Second,
		Generator:        DefaultGeneratorConfig(seed),
	}
}

// WorldManager хранит воксели и сущности мира.
// Реализует VoxelQuery, ProximityProvider и BoundingVolumeSource для лучей.
type WorldManager struct {
	cfg       Config
	generator *WorldGenerator
	store     ChunkStore
	chunks    map[vec.Vec3]*Chunk
	mu        sync.RWMutex
	editMu    sync.Mutex // сериализует изменения блоков вместе с OnPlace
	entities  *entity.EntityManager
	index     *SpatialIndex
	handlers  []ChangeHandler
	logger    *logging.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewWorldManager создаёт мир; store может быть nil (только генерация)
func NewWorldManager(cfg Config, store ChunkStore) *WorldManager {
	if cfg.MaxY <= cfg.MinY {
		cfg.MinY, cfg.MaxY = 0, 256
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorldManager{
		cfg:        cfg,
		generator:  NewWorldGenerator(cfg.Generator),
		store:      store,
		chunks:     make(map[vec.Vec3]*Chunk),
		entities:   entity.NewEntityManager(),
		index:      NewSpatialIndex(ChunkSize),
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Generator возвращает генератор ландшафта
func (wm *WorldManager) Generator() *WorldGenerator {
	return wm.generator
}

// OnChange регистрирует обработчик изменений блоков
func (wm *WorldManager) OnChange(h ChangeHandler) {
	wm.mu.Lock()
	wm.handlers = append(wm.handlers, h)
	wm.mu.Unlock()
}

// Run запускает автосохранение до отмены контекста или Stop
func (wm *WorldManager) Run(parentCtx context.Context) {
	if wm.cfg.AutoSaveInterval <= 0 || wm.store == nil {
		return
	}
	go wm.autoSaveLoop(parentCtx)
}

func (wm *WorldManager) autoSaveLoop(parentCtx context.Context) {
	ticker := time.NewTicker(wm.cfg.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-parentCtx.Done():
			return
		case <-wm.ctx.Done():
			return
		case <-ticker.C:
			if n, err := wm.SaveWorld(parentCtx); err != nil {
				wm.logger.Error("Автосохранение: %v", err)
			} else if n > 0 {
				wm.logger.Debug("Автосохранение: записано чанков %d", n)
			}
		}
	}
}

// Stop останавливает фоновые задачи
func (wm *WorldManager) Stop() {
	wm.cancelFunc()
}

// InBounds сообщает, лежит ли высота в пределах мира
func (wm *WorldManager) InBounds(y int) bool {
	return y >= wm.cfg.MinY && y < wm.cfg.MaxY
}

// GetChunk возвращает секцию, загружая или генерируя её при необходимости
func (wm *WorldManager) GetChunk(coords vec.Vec3) (*Chunk, error) {
	wm.mu.RLock()
	chunk, ok := wm.chunks[coords]
	wm.mu.RUnlock()
	if ok {
		return chunk, nil
	}

	chunk, err := wm.loadChunk(coords)
	if err != nil {
		return nil, err
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()
	// Другая горутина могла загрузить ту же секцию
	if existing, ok := wm.chunks[coords]; ok {
		return existing, nil
	}
	wm.chunks[coords] = chunk
	wm.evictLocked(coords)
	return chunk, nil
}

func (wm *WorldManager) loadChunk(coords vec.Vec3) (*Chunk, error) {
	if wm.store != nil {
		ctx, cancel := context.WithTimeout(wm.ctx, wm.cfg.LoadTimeout)
		defer cancel()

		chunk, err := wm.store.LoadChunk(ctx, coords)
		switch {
		case err == nil:
			return chunk, nil
		case !errors.Is(err, ErrChunkNotFound):
			return nil, fmt.Errorf("загрузка чанка %s: %w", coords, err)
		}
	}
	return wm.generator.GenerateChunk(coords), nil
}

// evictLocked выгружает сохранённые секции сверх лимита кэша
func (wm *WorldManager) evictLocked(keep vec.Vec3) {
	if wm.cfg.ChunkCacheSize <= 0 {
		return
	}
	for coords, chunk := range wm.chunks {
		if len(wm.chunks) <= wm.cfg.ChunkCacheSize {
			return
		}
		if coords == keep || chunk.IsDirty() {
			continue
		}
		delete(wm.chunks, coords)
	}
}

// InvalidateChunk выбрасывает секцию из памяти, чтобы следующий запрос
// перечитал её из хранилища. Секции с несохранёнными изменениями остаются.
func (wm *WorldManager) InvalidateChunk(coords vec.Vec3) bool {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	chunk, ok := wm.chunks[coords]
	if !ok {
		return false
	}
	if chunk.IsDirty() {
		wm.logger.Warn("Чанк %s изменён локально, инвалидация пропущена", coords)
		return false
	}
	delete(wm.chunks, coords)
	return true
}

// GetBlock возвращает ID блока; вне высоты мира всегда воздух
func (wm *WorldManager) GetBlock(pos vec.Vec3) (block.BlockID, error) {
	if !wm.InBounds(pos.Y) {
		return block.AirBlockID, nil
	}
	chunk, err := wm.GetChunk(pos.ToChunkCoords())
	if err != nil {
		return block.AirBlockID, err
	}
	return chunk.GetBlock(pos.LocalInChunk()), nil
}

// VoxelAt отвечает лучу, что находится в вокселе
func (wm *WorldManager) VoxelAt(pos vec.Vec3) (raycast.Voxel, error) {
	id, err := wm.GetBlock(pos)
	if err != nil {
		return raycast.Voxel{Pos: pos}, err
	}
	material, ok := block.MaterialOf(id)
	if !ok {
		return raycast.Voxel{Pos: pos, ID: uint32(id)}, fmt.Errorf("%w: %d в %s", ErrUnknownBlock, id, pos)
	}

	v := raycast.Voxel{Pos: pos, ID: uint32(id)}
	switch material {
	case block.MaterialSolid:
		v.Kind = raycast.VoxelSolid
	case block.MaterialLiquid:
		v.Kind = raycast.VoxelLiquid
	default:
		v.Kind = raycast.VoxelEmpty
	}
	return v, nil
}

// SetBlock ставит блок, вызывает его OnPlace, сохраняет затронутые секции
// и уведомляет обработчики изменений.
func (wm *WorldManager) SetBlock(ctx context.Context, pos vec.Vec3, id block.BlockID) error {
	if !wm.InBounds(pos.Y) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, pos)
	}
	if id != block.AirBlockID && !block.IsValidBlockID(id) {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}

	wm.editMu.Lock()
	defer wm.editMu.Unlock()

	api := &worldBlockAPI{wm: wm, touched: make(map[vec.Vec3]struct{})}
	if err := api.set(pos, id); err != nil {
		return err
	}
	if behavior, ok := block.Get(id); ok {
		behavior.OnPlace(api, pos)
	}
	if api.err != nil {
		return api.err
	}

	touched := make([]vec.Vec3, 0, len(api.touched))
	for coords := range api.touched {
		touched = append(touched, coords)
		if err := wm.saveChunk(ctx, coords); err != nil {
			return err
		}
	}

	wm.mu.RLock()
	handlers := append([]ChangeHandler(nil), wm.handlers...)
	wm.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, touched)
	}
	return nil
}

func (wm *WorldManager) saveChunk(ctx context.Context, coords vec.Vec3) error {
	if wm.store == nil {
		return nil
	}
	wm.mu.RLock()
	chunk, ok := wm.chunks[coords]
	wm.mu.RUnlock()
	if !ok || !chunk.IsDirty() {
		return nil
	}
	if err := wm.store.SaveChunk(ctx, chunk); err != nil {
		return fmt.Errorf("сохранение чанка %s: %w", coords, err)
	}
	chunk.MarkClean()
	return nil
}

// SaveWorld сохраняет все изменённые секции и возвращает их количество
func (wm *WorldManager) SaveWorld(ctx context.Context) (int, error) {
	wm.mu.RLock()
	dirty := make([]vec.Vec3, 0)
	for coords, chunk := range wm.chunks {
		if chunk.IsDirty() {
			dirty = append(dirty, coords)
		}
	}
	wm.mu.RUnlock()

	saved := 0
	for _, coords := range dirty {
		if err := wm.saveChunk(ctx, coords); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// LoadedChunks возвращает количество секций в памяти
func (wm *WorldManager) LoadedChunks() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.chunks)
}

// worldBlockAPI передаётся в OnPlace; изменения через него не вызывают
// OnPlace повторно. Первая ошибка запоминается.
type worldBlockAPI struct {
	wm      *WorldManager
	touched map[vec.Vec3]struct{}
	err     error
}

func (a *worldBlockAPI) GetBlockID(pos vec.Vec3) block.BlockID {
	id, err := a.wm.GetBlock(pos)
	if err != nil && a.err == nil {
		a.err = err
	}
	return id
}

func (a *worldBlockAPI) SetBlock(pos vec.Vec3, id block.BlockID) {
	if !a.wm.InBounds(pos.Y) {
		return
	}
	if err := a.set(pos, id); err != nil && a.err == nil {
		a.err = err
	}
}

func (a *worldBlockAPI) set(pos vec.Vec3, id block.BlockID) error {
	coords := pos.ToChunkCoords()
	chunk, err := a.wm.GetChunk(coords)
	if err != nil {
		return err
	}
	chunk.SetBlock(pos.LocalInChunk(), id)
	a.touched[coords] = struct{}{}
	return nil
}
