package raycast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/vec"
)

// Mode выбирает, что проверяется на каждом шаге
type Mode uint8

const (
	ModeBlocks Mode = iota
	ModeEntities
	ModeCombined
)

func (m Mode) String() string {
	switch m {
	case ModeBlocks:
		return "blocks"
	case ModeEntities:
		return "entities"
	case ModeCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// ParseMode разбирает имя режима; пустая строка означает combined
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocks", "block":
		return ModeBlocks, nil
	case "entities", "entity":
		return ModeEntities, nil
	case "", "combined", "all":
		return ModeCombined, nil
	default:
		return 0, invalidArgument("unknown cast mode %q", s)
	}
}

// Request описывает один бросок луча.
// Direction не нормализуется: шаг равен Direction * Policy.Advance,
// поэтому вызывающий код передаёт единичный вектор.
type Request struct {
	Origin        vec.Vec3Float
	Direction     vec.Vec3Float
	MaxDistance   float64
	IgnoreLiquids bool
	Policy        StepPolicy
	Exclude       []uint64 // кандидаты, которые не участвуют в броске (сам бросающий)
}

const (
	defaultMaxSteps         = 100_000
	defaultMargin           = 0.5
	defaultCancelCheckEvery = 256

	// stepEpsilon - допуск при сравнении накопленной дистанции наблюдателя с интервалом
	stepEpsilon = 1e-9
	// stepRelEpsilon - относительный допуск частного maxDistance/advance
	// (0.3/0.1 = 2.9999999999999996, 1.1/0.1 = 11.000000000000002)
	stepRelEpsilon = 1e-12
)

// Config - настройки Marcher
type Config struct {
	MaxSteps         int     // верхняя граница шагов одного броска
	Margin           float64 // запас для выборки кандидатов и фильтра по призме
	CancelCheckEvery int     // как часто (в шагах) проверять отмену контекста
	Logger           *logging.Logger
	Metrics          *Metrics
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxSteps:         defaultMaxSteps,
		Margin:           defaultMargin,
		CancelCheckEvery: defaultCancelCheckEvery,
	}
}

// Marcher - движок пошагового броска луча.
// Состояние броска локально для вызова, поэтому один Marcher можно
// использовать из нескольких горутин, если коллабораторы потокобезопасны.
type Marcher struct {
	voxels    VoxelQuery
	proximity ProximityProvider
	bounds    BoundingVolumeSource
	cfg       Config
	log       *logging.Logger
}

// NewMarcher создаёт движок. proximity и bounds могут быть nil,
// тогда доступен только режим ModeBlocks.
func NewMarcher(voxels VoxelQuery, proximity ProximityProvider, bounds BoundingVolumeSource, cfg Config) *Marcher {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.Margin < 0 || math.IsNaN(cfg.Margin) {
		cfg.Margin = defaultMargin
	}
	if cfg.CancelCheckEvery <= 0 {
		cfg.CancelCheckEvery = defaultCancelCheckEvery
	}

	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	return &Marcher{
		voxels:    voxels,
		proximity: proximity,
		bounds:    bounds,
		cfg:       cfg,
		log:       log,
	}
}

// Config возвращает действующие настройки
func (m *Marcher) Config() Config {
	return m.cfg
}

// CastBlocks ищет первый твёрдый воксель (и жидкость, если IgnoreLiquids=false)
func (m *Marcher) CastBlocks(ctx context.Context, req Request) (HitResult, error) {
	return m.Cast(ctx, ModeBlocks, req)
}

// CastEntities ищет ближайшую сущность. Твёрдый блок на пути заканчивает бросок
// результатом EMPTY с Occluded=true.
func (m *Marcher) CastEntities(ctx context.Context, req Request) (HitResult, error) {
	return m.Cast(ctx, ModeEntities, req)
}

// CastCombined ищет первое препятствие любого типа.
// Если на одном шаге найдены и блок, и сущность, побеждает блок.
func (m *Marcher) CastCombined(ctx context.Context, req Request) (HitResult, error) {
	return m.Cast(ctx, ModeCombined, req)
}

// Cast выполняет бросок в заданном режиме
func (m *Marcher) Cast(ctx context.Context, mode Mode, req Request) (HitResult, error) {
	return m.march(ctx, mode, req, nil)
}

// stepHook вызывается для каждой выборки до проверки препятствий
type stepHook func(step int, pos vec.Vec3Float, traveled float64)

func (m *Marcher) march(ctx context.Context, mode Mode, req Request, hook stepHook) (res HitResult, err error) {
	started := time.Now()
	defer func() {
		m.cfg.Metrics.observe(mode, res, err, started)
	}()

	steps, err := m.validate(mode, req)
	if err != nil {
		m.log.Debug("бросок отклонён: %v", err)
		return HitResult{}, err
	}

	origin, dir := req.Origin, req.Direction
	lastVoxel := Voxel{Pos: voxelAt(origin, dir)}
	res = HitResult{Kind: HitEmpty, Voxel: lastVoxel, Position: origin}
	if steps == 0 {
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return HitResult{}, err
	}

	var candidates []snapshotEntry
	if mode != ModeBlocks {
		candidates, err = m.snapshot(ctx, req, steps)
		if err != nil {
			return HitResult{}, err
		}
	}

	advance := req.Policy.Advance
	for k := 1; k <= steps; k++ {
		if k%m.cfg.CancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return HitResult{}, err
			}
		}

		traveled := advance * float64(k)
		cursor := origin.Add(dir.Mul(traveled))
		if hook != nil {
			hook(k, cursor, traveled)
		}

		pos := voxelAt(cursor, dir)
		voxel, qerr := m.voxels.VoxelAt(pos)
		if qerr != nil {
			m.cfg.Metrics.queryFailure(SourceVoxel)
			m.log.Debug("VoxelQuery %v: %v", pos, qerr)
			return HitResult{}, &QueryError{Source: SourceVoxel, Step: k, Position: cursor, Err: qerr}
		}
		voxel.Pos = pos

		res.Voxel = voxel
		res.Position = cursor
		res.Traveled = traveled
		res.Steps = k

		if voxel.stops(req.IgnoreLiquids) {
			if mode == ModeEntities {
				res.Occluded = true
				return res, nil
			}
			res.Kind = HitBlock
			res.Face = entryFace(lastVoxel.Pos, pos, dir)
			return res, nil
		}

		if mode != ModeBlocks {
			if idx, ok := closestCandidate(candidates, cursor); ok {
				res.Kind = HitEntity
				res.EntityID = candidates[idx].ID
				return res, nil
			}
		}

		lastVoxel = voxel
	}

	return res, nil
}

// validate проверяет запрос до любых обращений к коллабораторам и возвращает число шагов
func (m *Marcher) validate(mode Mode, req Request) (int, error) {
	if mode > ModeCombined {
		return 0, invalidArgument("unknown cast mode %d", mode)
	}
	if !req.Origin.IsFinite() {
		return 0, invalidArgument("origin is not finite: %v", req.Origin)
	}
	if !req.Direction.IsFinite() || req.Direction.IsZero() {
		return 0, invalidArgument("direction must be finite and non-zero: %v", req.Direction)
	}
	if math.IsNaN(req.MaxDistance) || math.IsInf(req.MaxDistance, 0) || req.MaxDistance < 0 {
		return 0, invalidArgument("max distance must be finite and non-negative, got %v", req.MaxDistance)
	}
	if err := req.Policy.Validate(); err != nil {
		return 0, err
	}
	if m.voxels == nil {
		return 0, invalidArgument("voxel query is not configured")
	}
	if mode != ModeBlocks && (m.proximity == nil || m.bounds == nil) {
		return 0, invalidArgument("%s cast requires proximity provider and bounding volume source", mode)
	}

	if req.MaxDistance == 0 {
		return 0, nil
	}

	if q := req.MaxDistance / req.Policy.Advance; q > float64(math.MaxInt32) {
		return 0, invalidArgument("max distance %v with advance %v needs more than %d steps",
			req.MaxDistance, req.Policy.Advance, m.cfg.MaxSteps)
	}
	steps := StepCount(req.MaxDistance, req.Policy.Advance)
	if steps > m.cfg.MaxSteps {
		return 0, invalidArgument("max distance %v with advance %v needs %d steps, limit is %d",
			req.MaxDistance, req.Policy.Advance, steps, m.cfg.MaxSteps)
	}
	return steps, nil
}

// StepCount возвращает число выборок для дистанции: ceil(maxDistance/advance)
// с относительным допуском на ошибку округления частного.
func StepCount(maxDistance, advance float64) int {
	if maxDistance <= 0 || advance <= 0 {
		return 0
	}
	q := maxDistance / advance
	n := int(math.Ceil(q - q*stepRelEpsilon))
	if n < 1 {
		n = 1
	}
	return n
}

// String нужен для логов и ответов API
func (r Request) String() string {
	return fmt.Sprintf("origin=%v dir=%v max=%g liquids_ignored=%t policy=%v",
		r.Origin, r.Direction, r.MaxDistance, r.IgnoreLiquids, r.Policy)
}
