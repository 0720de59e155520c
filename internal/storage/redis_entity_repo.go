package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/raycast/internal/world/entity"
)

// RedisEntityRepo хранит сущности в Redis как JSON.
// Множество <prefix>entities содержит ID всех сохранённых сущностей.
type RedisEntityRepo struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisEntityRepo оборачивает готовый клиент
func NewRedisEntityRepo(client redis.UniversalClient, keyPrefix string) *RedisEntityRepo {
	return &RedisEntityRepo{client: client, keyPrefix: keyPrefix}
}

func (r *RedisEntityRepo) entityKey(id uint64) string {
	return r.keyPrefix + "entity:" + strconv.FormatUint(id, 10)
}

func (r *RedisEntityRepo) indexKey() string {
	return r.keyPrefix + "entities"
}

// Save сохраняет сущность
func (r *RedisEntityRepo) Save(ctx context.Context, e *entity.Entity) error {
	return r.BatchSave(ctx, []*entity.Entity{e})
}

// BatchSave сохраняет сущности одной транзакцией
func (r *RedisEntityRepo) BatchSave(ctx context.Context, entities []*entity.Entity) error {
	payloads := make(map[uint64][]byte, len(entities))
	for _, e := range entities {
		if err := validateEntity(e); err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("ошибка сериализации сущности %d: %w", e.ID, err)
		}
		payloads[e.ID] = data
	}
	if len(payloads) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, data := range payloads {
			pipe.Set(ctx, r.entityKey(id), data, 0)
			pipe.SAdd(ctx, r.indexKey(), strconv.FormatUint(id, 10))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения сущностей в Redis: %w", err)
	}
	return nil
}

// Load загружает сущность по ID
func (r *RedisEntityRepo) Load(ctx context.Context, id uint64) (*entity.Entity, bool, error) {
	if id == 0 {
		return nil, false, fmt.Errorf("недействительный ID сущности: %d", id)
	}

	data, err := r.client.Get(ctx, r.entityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки сущности %d: %w", id, err)
	}

	var e entity.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("ошибка разбора сущности %d: %w", id, err)
	}
	return &e, true, nil
}

// LoadAll получает все сущности пайплайном
func (r *RedisEntityRepo) LoadAll(ctx context.Context) ([]*entity.Entity, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка сущностей: %w", err)
	}
	if len(ids) == 0 {
		return []*entity.Entity{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, raw := range ids {
		cmds[i] = pipe.Get(ctx, r.keyPrefix+"entity:"+raw)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("ошибка загрузки сущностей: %w", err)
	}

	result := make([]*entity.Entity, 0, len(cmds))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue // запись удалена между SMEMBERS и GET
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки сущности %s: %w", ids[i], err)
		}
		var e entity.Entity
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("ошибка разбора сущности %s: %w", ids[i], err)
		}
		result = append(result, &e)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete удаляет сущность и её запись в индексе
func (r *RedisEntityRepo) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("недействительный ID сущности: %d", id)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.entityKey(id))
		pipe.SRem(ctx, r.indexKey(), strconv.FormatUint(id, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления сущности %d: %w", id, err)
	}
	return nil
}
