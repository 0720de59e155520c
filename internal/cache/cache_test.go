package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/vec"
)

func TestChunkKeyRoundTrip(t *testing.T) {
	coords := vec.Vec3{X: -4, Y: 7, Z: 123}
	key := ChunkKey(coords)
	assert.Equal(t, "chunk:-4:7:123", key)

	parsed, err := ParseChunkKey(key)
	require.NoError(t, err)
	assert.Equal(t, coords, parsed)
}

func TestParseChunkKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "chunk:1:2", "block:1:2:3", "chunk:a:2:3"} {
		_, err := ParseChunkKey(key)
		assert.True(t, IsInvalidKey(err), "ключ %q должен быть отклонён", key)
	}
}

type fakeWorld struct {
	mu          sync.Mutex
	invalidated []vec.Vec3
}

func (w *fakeWorld) InvalidateChunk(coords vec.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.invalidated = append(w.invalidated, coords)
	return true
}

func TestChunkSyncBetweenNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewLocalBus()
	worldA, worldB := &fakeWorld{}, &fakeWorld{}
	syncA := NewChunkSync(worldA, NewLocalInvalidator(bus), nil)
	syncB := NewChunkSync(worldB, NewLocalInvalidator(bus), nil)
	require.NoError(t, syncA.Start(ctx))
	require.NoError(t, syncB.Start(ctx))

	syncA.Publish(ctx, []vec.Vec3{{X: 1}, {Y: 2}})

	assert.Equal(t, []vec.Vec3{{X: 1}, {Y: 2}}, worldB.invalidated)
	assert.Empty(t, worldA.invalidated, "узел не обрабатывает свои сообщения")
}

func TestLocalInvalidatorDoubleSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inv := NewLocalInvalidator(NewLocalBus())
	handler := func(string) error { return nil }
	require.NoError(t, inv.SubscribeInvalidations(ctx, handler))
	assert.ErrorIs(t, inv.SubscribeInvalidations(ctx, handler), ErrAlreadySubscribed)

	require.NoError(t, inv.Close())
	assert.NoError(t, inv.SubscribeInvalidations(ctx, handler), "после Close можно подписаться снова")
}

func TestDedupeWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	d := newDedupeWindow(time.Second)
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	d.record("k")
	assert.True(t, d.seen("k"))

	now = now.Add(2 * time.Second)
	assert.False(t, d.seen("k"), "окно истекло")
	assert.Equal(t, 0, d.cleanup())
}
