package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/raycast/internal/api"
	"github.com/annel0/raycast/internal/cache"
	"github.com/annel0/raycast/internal/config"
	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/observability"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/world"
	_ "github.com/annel0/raycast/internal/world/block/implementations"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $RAYCAST_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func setupLogging(lc config.LoggingConfig) error {
	console, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	file, err := logging.ParseLevel(lc.FileLevel)
	if err != nil {
		return err
	}
	logging.Configure(logging.Options{
		ConsoleLevel: console,
		FileLevel:    file,
		FileOutput:   lc.FileOutput,
		Dir:          lc.Dir,
		JSONConsole:  lc.JSON,
	})

	levels := make(map[string]logging.LogLevel, len(lc.Components))
	for component, name := range lc.Components {
		level, err := logging.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
		levels[component] = level
	}
	logging.GetLoggerManager().SetComponentLevels(levels)

	return logging.InitDefaultLogger("server")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nodeID := cfg.Server.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	logging.Info("🎯 Запуск сервиса лучей, узел %s", nodeID)

	var cl closers
	defer cl.closeAll()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.TelemetryOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			NodeID:      nodeID,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("инициализация телеметрии: %w", err)
		}
		cl.add(func() error {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(sctx)
		})
		logging.Info("📡 OTLP трассировка включена: %s", cfg.Telemetry.Endpoint)
	}

	// === ХРАНИЛИЩА ===
	var rdb *redis.Client
	if needsRedis(cfg) {
		client, err := newRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		rdb = client
		cl.add(rdb.Close)
	}

	chunkStore, err := buildChunkStore(cfg, rdb, &cl)
	if err != nil {
		return fmt.Errorf("хранилище секций: %w", err)
	}
	entityRepo, err := buildEntityRepo(ctx, cfg, rdb, &cl)
	if err != nil {
		return fmt.Errorf("хранилище сущностей: %w", err)
	}
	logging.Info("💾 Секции: %s, сущности: %s", cfg.Storage.Backend, cfg.Entities.Backend)

	// === МИР ===
	worldCfg := world.DefaultConfig(cfg.World.Seed)
	worldCfg.MinY = cfg.World.MinY
	worldCfg.MaxY = cfg.World.MaxY
	worldCfg.ChunkCacheSize = cfg.World.ChunkCacheSize
	worldCfg.AutoSaveInterval = cfg.World.AutoSaveInterval
	worldCfg.Generator.SeaLevel = cfg.World.SeaLevel
	worldCfg.Logger = logging.GetComponentLogger(logging.ComponentWorld)

	w := world.NewWorldManager(worldCfg, chunkStore)
	w.Run(ctx)

	restored, err := restoreEntities(ctx, entityRepo, w)
	if err != nil {
		return fmt.Errorf("восстановление сущностей: %w", err)
	}
	logging.Info("🌍 Мир готов: сид %d, восстановлено сущностей: %d", cfg.World.Seed, restored)

	// === СИНХРОНИЗАЦИЯ СЕКЦИЙ ===
	invalidator, err := buildInvalidator(cfg, nodeID, &cl)
	if err != nil {
		return fmt.Errorf("invalidator: %w", err)
	}
	chunkSync := cache.NewChunkSync(w, invalidator, logging.GetComponentLogger(logging.ComponentCache))
	if err := chunkSync.Start(ctx); err != nil {
		return fmt.Errorf("подписка на инвалидации: %w", err)
	}
	w.OnChange(chunkSync.Publish)

	// === ЛУЧИ ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policies := raycast.DefaultPolicies()
	if err := policies.Merge(cfg.Raycast.Policies); err != nil {
		return fmt.Errorf("пресеты шага: %w", err)
	}

	marcher := raycast.NewMarcher(w, w, w, raycast.Config{
		MaxSteps:         cfg.Raycast.MaxSteps,
		Margin:           cfg.Raycast.Margin,
		CancelCheckEvery: cfg.Raycast.CancelCheckEvery,
		Logger:           logging.GetComponentLogger(logging.ComponentRaycast),
		Metrics:          raycast.NewMetrics("raycast", registry),
	})

	// === HTTP ===
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	rest := api.NewRestServer(api.Config{
		Port:          restPort,
		World:         w,
		Marcher:       marcher,
		Policies:      policies,
		EntityRepo:    entityRepo,
		Logger:        logging.GetComponentLogger(logging.ComponentAPI),
		Service:       "raycast_api",
		DefaultPolicy: cfg.Raycast.DefaultPolicy,
		MaxDistance:   cfg.Raycast.MaxDistance,
		CastTimeout:   cfg.Server.CastTimeout,
		AllowOrigins:  cfg.Server.AllowOrigins,
		StatsSources: map[string]api.StatsSource{
			"storage":      storageStats(cfg.Storage.Backend, chunkStore),
			"invalidation": invalidationStats(invalidator),
		},
		Registerer:    registry,
		Gatherer:      registry,
	})

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- rest.Start() }()
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("сервер метрик: %w", err)
		}
	}()

	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case runErr = <-errCh:
		logging.Error("❌ HTTP сервер остановился: %v", runErr)
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}

	w.Stop()
	if saved, err := w.SaveWorld(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка сохранения мира: %v", err)
	} else {
		logging.Info("💾 Сохранено секций: %d", saved)
	}

	logging.Info("👋 Сервис остановлен")
	return runErr
}
