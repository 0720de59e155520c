package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей (0 - без истечения)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "raycast:",
	}
}

// NewRedisClient создаёт клиент и проверяет подключение
func NewRedisClient(ctx context.Context, config *RedisConfig) (*redis.Client, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", config.Addr, err)
	}
	return client, nil
}

// RedisChunkStore хранит сжатые секции в Redis; удобно, когда несколько
// узлов обслуживают один мир
type RedisChunkStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisChunkStore оборачивает готовый клиент
func NewRedisChunkStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisChunkStore {
	return &RedisChunkStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// SaveChunk сохраняет секцию целиком
func (s *RedisChunkStore) SaveChunk(ctx context.Context, chunk *world.Chunk) error {
	data, err := EncodeChunk(chunk)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, chunkKey(s.keyPrefix, chunk.Coords), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи чанка %s в Redis: %w", chunk.Coords, err)
	}
	return nil
}

// LoadChunk загружает секцию; world.ErrChunkNotFound, если ключа нет
func (s *RedisChunkStore) LoadChunk(ctx context.Context, coords vec.Vec3) (*world.Chunk, error) {
	data, err := s.client.Get(ctx, chunkKey(s.keyPrefix, coords)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения чанка %s из Redis: %w", coords, err)
	}
	return DecodeChunk(coords, data)
}

// DeleteChunk удаляет секцию
func (s *RedisChunkStore) DeleteChunk(ctx context.Context, coords vec.Vec3) error {
	return s.client.Del(ctx, chunkKey(s.keyPrefix, coords)).Err()
}
