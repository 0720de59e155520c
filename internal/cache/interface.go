package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/raycast/internal/vec"
)

// CacheInvalidator управляет инвалидацией секций между узлами через Pub/Sub.
type CacheInvalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации.
	PublishInvalidation(ctx context.Context, key string) error

	// SubscribeInvalidations подписывается на уведомления об инвалидации.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации.
type InvalidationHandler func(key string) error

// Ошибки кеша
var (
	ErrInvalidKey        = NewCacheError("invalid key")
	ErrAlreadySubscribed = NewCacheError("already subscribed")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

const chunkKeyPrefix = "chunk:"

// ChunkKey возвращает ключ инвалидации секции
func ChunkKey(coords vec.Vec3) string {
	return fmt.Sprintf("%s%d:%d:%d", chunkKeyPrefix, coords.X, coords.Y, coords.Z)
}

// ParseChunkKey разбирает ключ вида chunk:x:y:z
func ParseChunkKey(key string) (vec.Vec3, error) {
	if !strings.HasPrefix(key, chunkKeyPrefix) {
		return vec.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	parts := strings.Split(strings.TrimPrefix(key, chunkKeyPrefix), ":")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var coords [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
		}
		coords[i] = v
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// IsInvalidKey сообщает, что ошибка вызвана неверным ключом
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}
