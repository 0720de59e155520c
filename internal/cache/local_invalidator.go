package cache

import (
	"context"
	"sync"
)

// LocalBus связывает LocalInvalidator в пределах одного процесса.
// Используется, когда NATS не настроен, и в тестах.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[*LocalInvalidator]InvalidationHandler
}

// NewLocalBus создаёт пустую шину
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[*LocalInvalidator]InvalidationHandler)}
}

// LocalInvalidator реализует CacheInvalidator поверх LocalBus.
// Отправитель не получает собственные сообщения.
type LocalInvalidator struct {
	bus *LocalBus
}

// NewLocalInvalidator подключает узел к шине
func NewLocalInvalidator(bus *LocalBus) *LocalInvalidator {
	return &LocalInvalidator{bus: bus}
}

// PublishInvalidation синхронно вызывает обработчики остальных узлов
func (l *LocalInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.bus.mu.RLock()
	handlers := make([]InvalidationHandler, 0, len(l.bus.subs))
	for node, h := range l.bus.subs {
		if node != l {
			handlers = append(handlers, h)
		}
	}
	l.bus.mu.RUnlock()

	for _, h := range handlers {
		if err := h(key); err != nil {
			return err
		}
	}
	return nil
}

// SubscribeInvalidations регистрирует обработчик до отмены ctx или Close
func (l *LocalInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	l.bus.mu.Lock()
	if _, exists := l.bus.subs[l]; exists {
		l.bus.mu.Unlock()
		return ErrAlreadySubscribed
	}
	l.bus.subs[l] = handler
	l.bus.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.Close()
	}()
	return nil
}

// Close отписывает узел от шины
func (l *LocalInvalidator) Close() error {
	l.bus.mu.Lock()
	delete(l.bus.subs, l)
	l.bus.mu.Unlock()
	return nil
}
