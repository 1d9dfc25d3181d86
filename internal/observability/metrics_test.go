package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/evolution"
)

func TestSimMetrics_FollowEngineNotifications(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewSimMetrics(reg)
	require.NoError(t, err)

	m.TickCompleted(evolution.TickInfo{Generation: 2, Nests: 4, LiveAgents: 9, Wall: time.Millisecond})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.nests))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generation))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.liveAgents))

	m.GenerationEnded(evolution.GenerationRecord{Generation: 2, Fitness: 4, Restored: 12})
	m.GenerationEnded(evolution.GenerationRecord{Generation: 3, Fitness: 1, Restored: 3})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generationsEnd))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastFitness))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.restoredBlocks))

	m.RunCompleted(evolution.Summary{BestFitness: 4})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.bestFitness))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.liveAgents))

	assert.Equal(t, 1, testutil.CollectAndCount(m.tickDuration))
}

func TestSimMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSimMetrics(reg)
	require.NoError(t, err)

	_, err = NewSimMetrics(reg)
	assert.Error(t, err)
}

func TestInitTelemetry_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), config.TelemetryConfig{Enabled: false, ServiceName: "antsim"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
