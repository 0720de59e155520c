package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkCoordsNegative(t *testing.T) {
	v := Vec3{X: -1, Y: 17, Z: -16}
	assert.Equal(t, Vec3{X: -1, Y: 1, Z: -1}, v.ToChunkCoords())
	assert.Equal(t, Vec3{X: 15, Y: 1, Z: 0}, v.LocalInChunk())
	assert.Equal(t, Vec2{X: -1, Z: -16}, v.Column())
}

func TestFloorNegative(t *testing.T) {
	assert.Equal(t, Vec3{X: -1, Y: 0, Z: -3}, Vec3Float{X: -0.5, Y: 0.99, Z: -2.0001}.Floor())
	assert.Equal(t, Vec3{X: 2, Y: -2, Z: 0}, Vec3Float{X: 2, Y: -2, Z: 0}.Floor())
}

func TestNormalized(t *testing.T) {
	n := Vec3Float{X: 3, Y: 0, Z: 4}.Normalized()
	assert.InDelta(t, 1.0, n.Length(), 1e-12)
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.Equal(t, Vec3Float{}, Vec3Float{}.Normalized(), "нулевой вектор остаётся нулевым")
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Vec3Float{X: 1, Y: -2, Z: 3}.IsFinite())
	assert.False(t, Vec3Float{X: math.NaN()}.IsFinite())
	assert.False(t, Vec3Float{Z: math.Inf(-1)}.IsFinite())
}

func TestDirectionFromYawPitch(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float64
		want       Vec3Float
	}{
		{"yaw 0 смотрит на +Z", 0, 0, Vec3Float{Z: 1}},
		{"yaw 90 смотрит на -X", 90, 0, Vec3Float{X: -1}},
		{"yaw -90 смотрит на +X", -90, 0, Vec3Float{X: 1}},
		{"pitch 90 смотрит вниз", 0, 90, Vec3Float{Y: -1}},
		{"pitch -90 смотрит вверх", 45, -90, Vec3Float{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DirectionFromYawPitch(tt.yaw, tt.pitch)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-9)
			assert.InDelta(t, 1.0, got.Length(), 1e-9)
		})
	}
}

func TestDistances(t *testing.T) {
	assert.Equal(t, 14, Vec3{X: 1, Y: 2, Z: 3}.DistanceSquaredTo(Vec3{}))
	a := Vec3Float{X: 1, Y: 1, Z: 1}
	b := Vec3Float{X: 4, Y: 5, Z: 1}
	assert.Equal(t, 25.0, a.DistanceSquaredTo(b))
	assert.Equal(t, 5.0, a.DistanceTo(b))
	assert.Equal(t, Vec3{X: 2, Y: 2, Z: 2}, Vec3{X: 1, Y: 1, Z: 1}.Add(Vec3{X: 1, Y: 1, Z: 1}))
}
