package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/annel0/raycast/internal/logging"
)

// NATSInvalidator реализует CacheInvalidator используя NATS Pub/Sub.
// Узлы, обслуживающие один мир, сбрасывают изменённые секции друг у друга.
//
// Особенности:
// - Автоматическое переподключение при сбоях
// - Дедупликация сообщений
// - Собственные сообщения узла игнорируются
type NATSInvalidator struct {
	conn    *nats.Conn
	ownConn bool
	config  InvalidatorConfig
	nodeID  string
	logger  *logging.Logger

	subMu        sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	dedupe   *dedupeWindow

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL        string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	DedupeWindow   time.Duration `yaml:"dedupe_window"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

func (c *InvalidatorConfig) applyDefaults() {
	if c.Subject == "" {
		c.Subject = "raycast.chunks.invalidate"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.DedupeWindow == 0 {
		c.DedupeWindow = 500 * time.Millisecond
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 5 * time.Second
	}
}

// InvalidationMessage представляет сообщение об инвалидации.
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NewNATSInvalidator подключается к NATS и создаёт invalidator.
func NewNATSInvalidator(config InvalidatorConfig, nodeID string, logger *logging.Logger) (*NATSInvalidator, error) {
	config.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	opts := []nats.Option{
		nats.Name("raycast-" + nodeID),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := NewNATSInvalidatorWithConn(conn, config, nodeID, logger)
	n.ownConn = true
	logger.Info("NATS invalidator initialized: %s (subject: %s)", config.NATSURL, config.Subject)
	return n, nil
}

// NewNATSInvalidatorWithConn использует уже открытое соединение; Close его не закрывает.
func NewNATSInvalidatorWithConn(conn *nats.Conn, config InvalidatorConfig, nodeID string, logger *logging.Logger) *NATSInvalidator {
	config.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	n := &NATSInvalidator{
		conn:   conn,
		config: config,
		nodeID: nodeID,
		logger: logger,
		stopCh: make(chan struct{}),
		dedupe: newDedupeWindow(config.DedupeWindow),
	}
	n.startDedupeCleanup()
	return n
}

// PublishInvalidation отправляет уведомление об инвалидации ключа.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.dedupe.seen(key) {
		n.logger.Trace("Skipping duplicate invalidation for key: %s", key)
		return nil
	}

	data, err := json.Marshal(InvalidationMessage{
		Key:       key,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.config.Subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	n.dedupe.record(key)
	atomic.AddInt64(&n.publishedCount, 1)
	n.logger.Debug("Published invalidation for key: %s", key)
	return nil
}

// SubscribeInvalidations подписывается на уведомления об инвалидации.
// Подписка снимается при отмене ctx или Close.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription != nil {
		return ErrAlreadySubscribed
	}
	n.handler = handler

	sub, err := n.conn.Subscribe(n.config.Subject, n.handleInvalidationMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()

	n.logger.Info("Subscribed to chunk invalidations on subject: %s", n.config.Subject)
	return nil
}

// Flush дожидается отправки опубликованных сообщений
func (n *NATSInvalidator) Flush(timeout time.Duration) error {
	return n.conn.FlushTimeout(timeout)
}

// Close останавливает подписку и закрывает собственное соединение.
func (n *NATSInvalidator) Close() error {
	n.stopOnce.Do(func() { close(n.stopCh) })
	n.wg.Wait()

	if n.ownConn {
		n.conn.Close()
	}
	n.logger.Info("NATS invalidator closed")
	return nil
}

// GetMetrics возвращает метрики invalidator.
func (n *NATSInvalidator) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"published_count": atomic.LoadInt64(&n.publishedCount),
		"received_count":  atomic.LoadInt64(&n.receivedCount),
		"errors_count":    atomic.LoadInt64(&n.errorsCount),
		"connected":       n.conn.IsConnected(),
	}
}

func (n *NATSInvalidator) handleInvalidationMessage(msg *nats.Msg) {
	atomic.AddInt64(&n.receivedCount, 1)

	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}

	if m.NodeID == n.nodeID {
		return
	}

	n.subMu.Lock()
	handler := n.handler
	n.subMu.Unlock()
	if handler == nil {
		return
	}

	if err := handler(m.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Error("Invalidation handler failed for key %s: %v", m.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil {
		n.logger.Error("Failed to unsubscribe from invalidations: %v", err)
	}
	n.subscription = nil
}

// startDedupeCleanup запускает периодическую очистку дедупликации.
func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ticker := time.NewTicker(n.config.DedupeWindow * 4)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n.dedupe.cleanup()
			case <-n.stopCh:
				return
			}
		}
	}()
}

// dedupeWindow подавляет повторные публикации ключа в пределах окна
type dedupeWindow struct {
	window time.Duration
	mu     sync.Mutex
	keys   map[string]time.Time
	now    func() time.Time
}

func newDedupeWindow(window time.Duration) *dedupeWindow {
	return &dedupeWindow{window: window, keys: make(map[string]time.Time), now: time.Now}
}

func (d *dedupeWindow) seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, ok := d.keys[key]
	return ok && d.now().Sub(last) < d.window
}

func (d *dedupeWindow) record(key string) {
	d.mu.Lock()
	d.keys[key] = d.now()
	d.mu.Unlock()
}

func (d *dedupeWindow) cleanup() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, ts := range d.keys {
		if now.Sub(ts) > d.window {
			delete(d.keys, key)
		}
	}
	return len(d.keys)
}
