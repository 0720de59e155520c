package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/raycast/internal/config"
	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/storage"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world"
	_ "github.com/annel0/raycast/internal/world/block/implementations"
)

func main() {
	var (
		configPath    = flag.String("config", "", "YAML конфигурация (сид, пресеты, параметры луча)")
		dataPath      = flag.String("data", "", "каталог badger с сохранёнными секциями; пусто - только генерация")
		originFlag    = flag.String("origin", "0.5,80.5,0.5", "начало луча: x,y,z")
		dirFlag       = flag.String("dir", "", "направление: x,y,z (взаимоисключающее с -yaw/-pitch)")
		yaw           = flag.Float64("yaw", 0, "yaw в градусах, 0 смотрит на +Z")
		pitch         = flag.Float64("pitch", 0, "pitch в градусах, положительный смотрит вниз")
		maxDistance   = flag.Float64("max", 32, "максимальная дистанция")
		modeFlag      = flag.String("mode", "blocks", "режим: blocks, entities, combined")
		policyFlag    = flag.String("policy", "", "пресет шага (по умолчанию из конфигурации)")
		ignoreLiquids = flag.Bool("ignore-liquids", false, "пропускать жидкости")
		trace         = flag.Float64("trace", -1, "интервал отчёта о выборках; < 0 - без трассировки")
	)
	flag.Parse()

	logging.Configure(logging.Options{ConsoleLevel: logging.WARN, FileLevel: logging.WARN})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	origin, err := parseVec(*originFlag)
	if err != nil {
		log.Fatalf("❌ Неверный -origin: %v", err)
	}
	direction := vec.DirectionFromYawPitch(*yaw, *pitch)
	if *dirFlag != "" {
		d, err := parseVec(*dirFlag)
		if err != nil {
			log.Fatalf("❌ Неверный -dir: %v", err)
		}
		direction = d.Normalized()
	}

	mode, err := raycast.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	policies := raycast.DefaultPolicies()
	if err := policies.Merge(cfg.Raycast.Policies); err != nil {
		log.Fatalf("❌ Пресеты шага: %v", err)
	}
	policyName := *policyFlag
	if policyName == "" {
		policyName = cfg.Raycast.DefaultPolicy
	}
	policy, ok := policies.Lookup(policyName)
	if !ok {
		log.Fatalf("❌ Неизвестный пресет %q, доступны: %s", policyName, strings.Join(policies.Names(), ", "))
	}

	var store world.ChunkStore
	if *dataPath != "" {
		cs, err := storage.NewChunkStorage(*dataPath)
		if err != nil {
			log.Fatalf("❌ Открытие хранилища: %v", err)
		}
		defer cs.Close()
		store = cs
	}

	worldCfg := world.DefaultConfig(cfg.World.Seed)
	worldCfg.MinY = cfg.World.MinY
	worldCfg.MaxY = cfg.World.MaxY
	worldCfg.Generator.SeaLevel = cfg.World.SeaLevel
	w := world.NewWorldManager(worldCfg, store)
	defer w.Stop()

	marcher := raycast.NewMarcher(w, w, w, raycast.Config{
		MaxSteps:         cfg.Raycast.MaxSteps,
		Margin:           cfg.Raycast.Margin,
		CancelCheckEvery: cfg.Raycast.CancelCheckEvery,
	})

	req := raycast.Request{
		Origin:        origin,
		Direction:     direction,
		MaxDistance:   *maxDistance,
		IgnoreLiquids: *ignoreLiquids,
		Policy:        policy,
	}

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var res raycast.HitResult
	if *trace >= 0 {
		res, err = marcher.CastWithStepObserver(ctx, mode, req, *trace, func(ev raycast.StepEvent) {
			fmt.Printf("шаг %5d  %s  пройдено %.3f\n", ev.Step, ev.Position, ev.Traveled)
		}, nil)
	} else {
		res, err = marcher.Cast(ctx, mode, req)
	}
	if err != nil {
		log.Fatalf("❌ Бросок не выполнен: %v", err)
	}

	if err := enc.Encode(map[string]interface{}{
		"request":  req.String(),
		"mode":     mode.String(),
		"result":   res.Kind.String(),
		"voxel":    res.Voxel.Pos,
		"kind":     res.Voxel.Kind.String(),
		"face":     res.Face.String(),
		"entity":   res.EntityID,
		"position": res.Position,
		"traveled": res.Traveled,
		"steps":    res.Steps,
		"occluded": res.Occluded,
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// parseVec разбирает строку "x,y,z"
func parseVec(s string) (vec.Vec3Float, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3Float{}, fmt.Errorf("ожидается x,y,z, получено %q", s)
	}
	var out [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vec.Vec3Float{}, fmt.Errorf("компонента %d: %w", i, err)
		}
		out[i] = v
	}
	return vec.Vec3Float{X: out[0], Y: out[1], Z: out[2]}, nil
}
