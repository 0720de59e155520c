package raycast

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/raycast/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue достаёт значение счётчика с заданными метками из регистра
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMarcherMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics("test", reg)

	world := newFakeWorld().solid(0, 4, 0)
	world.fail[vec.Vec3{X: 5, Y: 10}] = errors.New("boom")

	cfg := DefaultConfig()
	cfg.Metrics = metrics
	m := NewMarcher(world, nil, nil, cfg)

	_, _ = m.CastBlocks(context.Background(), Request{Origin: origin10(), Direction: down(), MaxDistance: 5, Policy: PreciseBlock})
	_, _ = m.CastBlocks(context.Background(), Request{Origin: origin10(), Direction: down(), MaxDistance: 1, Policy: PreciseBlock})
	_, _ = m.CastBlocks(context.Background(), Request{Origin: origin10(), Direction: vec.Vec3Float{X: 1}, MaxDistance: 10, Policy: PreciseBlock})

	casts := "test_raycast_casts_total"
	assert.Equal(t, 1.0, counterValue(t, reg, casts, map[string]string{"mode": "blocks", "result": "BLOCK"}))
	assert.Equal(t, 1.0, counterValue(t, reg, casts, map[string]string{"mode": "blocks", "result": "EMPTY"}))
	assert.Equal(t, 1.0, counterValue(t, reg, casts, map[string]string{"mode": "blocks", "result": "error"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_raycast_query_failures_total", map[string]string{"source": "voxel"}))
}
