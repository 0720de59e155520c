package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/raycast/internal/api"
	"github.com/annel0/raycast/internal/cache"
	"github.com/annel0/raycast/internal/config"
	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/storage"
	"github.com/annel0/raycast/internal/world"
)

// closers собирает функции освобождения ресурсов в порядке создания
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

// closeAll закрывает ресурсы в обратном порядке
func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logging.Warn("Ошибка освобождения ресурса: %v", err)
		}
	}
}

func needsRedis(cfg *config.Config) bool {
	switch cfg.Storage.Backend {
	case "redis", "tiered":
		return true
	}
	return cfg.Entities.Backend == "redis"
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	return storage.NewRedisClient(ctx, &storage.RedisConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Storage.CacheTTL,
	})
}

// buildChunkStore выбирает хранилище секций по storage.backend
func buildChunkStore(cfg *config.Config, rdb redis.UniversalClient, cl *closers) (world.ChunkStore, error) {
	log := logging.GetComponentLogger(logging.ComponentStorage)

	switch cfg.Storage.Backend {
	case "memory":
		cs, err := storage.NewInMemoryChunkStorage()
		if err != nil {
			return nil, err
		}
		cl.add(cs.Close)
		return cs, nil

	case "badger":
		cs, err := storage.NewChunkStorage(cfg.Storage.DataPath)
		if err != nil {
			return nil, err
		}
		cl.add(cs.Close)
		return cs, nil

	case "redis":
		// Только Redis: записи без TTL, иначе правки мира пропадут
		return storage.NewRedisChunkStore(rdb, cfg.Redis.KeyPrefix, 0), nil

	case "tiered":
		cold, err := storage.NewChunkStorage(cfg.Storage.DataPath)
		if err != nil {
			return nil, err
		}
		cl.add(cold.Close)
		hot := storage.NewRedisChunkStore(rdb, cfg.Redis.KeyPrefix, cfg.Storage.CacheTTL)
		return storage.NewTieredChunkStore(hot, cold, log), nil

	default:
		return nil, fmt.Errorf("неизвестный storage.backend: %q", cfg.Storage.Backend)
	}
}

// buildEntityRepo выбирает хранилище сущностей по entities.backend
func buildEntityRepo(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, cl *closers) (storage.EntityRepo, error) {
	switch cfg.Entities.Backend {
	case "memory", "":
		return storage.NewMemoryEntityRepo(), nil
	case "redis":
		return storage.NewRedisEntityRepo(rdb, cfg.Redis.KeyPrefix), nil
	case "maria":
		repo, err := storage.NewMariaEntityRepo(ctx, cfg.Entities.DSN)
		if err != nil {
			return nil, err
		}
		cl.add(repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("неизвестный entities.backend: %q", cfg.Entities.Backend)
	}
}

// buildInvalidator возвращает NATS invalidator или локальную шину для одного узла
func buildInvalidator(cfg *config.Config, nodeID string, cl *closers) (cache.CacheInvalidator, error) {
	if !cfg.NATS.Enabled {
		inv := cache.NewLocalInvalidator(cache.NewLocalBus())
		cl.add(inv.Close)
		return inv, nil
	}

	inv, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{
		NATSURL: cfg.NATS.URL,
		Subject: cfg.NATS.Subject,
	}, nodeID, logging.GetComponentLogger(logging.ComponentCache))
	if err != nil {
		return nil, err
	}
	cl.add(func() error {
		if err := inv.Flush(2 * time.Second); err != nil {
			logging.Warn("NATS flush: %v", err)
		}
		return inv.Close()
	})
	return inv, nil
}

// storageStats описывает хранилище секций для /api/stats
func storageStats(backend string, store world.ChunkStore) api.StatsSource {
	return func() interface{} {
		out := map[string]interface{}{"backend": backend}
		switch s := store.(type) {
		case *storage.TieredChunkStore:
			out["hot_hit_ratio"] = s.HitRatio()
		case *storage.ChunkStorage:
			if n, err := s.CountChunks(); err == nil {
				out["chunks"] = n
			}
		}
		return out
	}
}

// invalidationStats отдаёт счётчики NATS, если шина их ведёт
func invalidationStats(inv cache.CacheInvalidator) api.StatsSource {
	return func() interface{} {
		if m, ok := inv.(interface{ GetMetrics() map[string]interface{} }); ok {
			return m.GetMetrics()
		}
		return map[string]interface{}{"transport": "local"}
	}
}

// restoreEntities возвращает в мир сущности, сохранённые до перезапуска
func restoreEntities(ctx context.Context, repo storage.EntityRepo, w *world.WorldManager) (int, error) {
	entities, err := repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, e := range entities {
		if err := w.AddEntity(e); err != nil {
			logging.Warn("Сущность %d не восстановлена: %v", e.ID, err)
			continue
		}
		restored++
	}
	return restored, nil
}
