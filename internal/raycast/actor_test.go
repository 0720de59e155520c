package raycast

import (
	"context"
	"testing"

	"github.com/annel0/raycast/internal/physics"
	"github.com/annel0/raycast/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testActor struct {
	id   uint64
	eye  vec.Vec3Float
	look vec.Vec3Float
}

func (a testActor) ActorID() uint64              { return a.id }
func (a testActor) EyePosition() vec.Vec3Float   { return a.eye }
func (a testActor) LookDirection() vec.Vec3Float { return a.look }

func TestActorRequestExcludesSelf(t *testing.T) {
	actor := testActor{id: 42, eye: origin10(), look: vec.Vec3Float{Y: -3}}

	req := ActorRequest(actor, 5, true, PreciseBlock)
	assert.Equal(t, origin10(), req.Origin)
	assert.InDelta(t, 1.0, req.Direction.Length(), 1e-12, "направление нормализуется")
	assert.Equal(t, []uint64{42}, req.Exclude)
	assert.True(t, req.IgnoreLiquids)

	// Собственный хитбокс актёра вокруг глаз не должен перехватывать луч
	entities := newFakeEntities().
		add(42, origin10(), physics.NewAABBFromBounds(-0.3, 8.4, -0.3, 0.3, 10.2, 0.3)).
		add(7, vec.Vec3Float{Y: 6.5}, scenarioBox())
	m := newTestMarcher(newFakeWorld(), entities)

	res, err := m.CastEntities(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.EntityID)
}
