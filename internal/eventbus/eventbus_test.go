package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/evolution"
	"github.com/annel0/antsim/internal/vec"
)

// collector собирает доставленные события
type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.EventType)
	}
	return out
}

func TestMemoryBus_DeliversInOrderWithFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	all, nests := &collector{}, &collector{}

	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{TypeNestPlaced}}, nests.handle)
	require.NoError(t, err)

	for _, typ := range []string{TypeAgentSpawned, TypeNestPlaced, TypeGenerationEnded} {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: typ}))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{TypeAgentSpawned, TypeNestPlaced, TypeGenerationEnded}, all.types())
	assert.Equal(t, []string{TypeNestPlaced}, nests.types())

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(4), stats.Consumed)
	assert.Equal(t, 0, stats.InFlight)
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
		once.Do(func() { close(started) })
		<-release
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "a"}))
	<-started
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "b"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "c", Priority: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = bus.Publish(ctx, &Envelope{EventType: "d", Priority: 9})
	assert.ErrorIs(t, err, context.DeadlineExceeded, "Высокий приоритет ждёт места в буфере")

	close(release)
	require.NoError(t, bus.Close())

	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Dropped)
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "Повторный Close безопасен")

	err := bus.Publish(context.Background(), &Envelope{EventType: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	c := &collector{}
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x"}))
	require.NoError(t, bus.Close())

	assert.Empty(t, c.types())
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		codec, err := NewCodec("antsim", compress)
		require.NoError(t, err)

		in := NestPlacedEvent{QueenID: 7, Pos: vec.Vec3{X: 1, Y: 2, Z: 3}}
		ev, err := codec.Envelope(TypeNestPlaced, priorityNest, "run-1", in)
		require.NoError(t, err)

		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "antsim", ev.Source)
		assert.Equal(t, "run-1", ev.CorrelationID)
		if compress {
			assert.Equal(t, EncodingZstdJSON, ev.Metadata["encoding"])
		} else {
			assert.Equal(t, EncodingJSON, ev.Metadata["encoding"])
		}

		var out NestPlacedEvent
		require.NoError(t, codec.Decode(ev, &out))
		assert.Equal(t, in, out)
		codec.Close()
	}
}

func TestSimPublisher_PublishesSimulationEvents(t *testing.T) {
	bus := NewMemoryBus(64)
	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	codec, err := NewCodec("antsim", true)
	require.NoError(t, err)
	defer codec.Close()

	p := NewSimPublisher(bus, codec, "run-42")
	queen := colony.Agent{ID: 1, Role: colony.RoleQueen, DNA: colony.DefaultQueenDNA(), Alive: true}

	p.ChunkDirty(vec.Vec3{X: 1})
	p.AgentSpawned(queen)
	p.NestPlaced(queen, vec.Vec3{X: 4, Y: 3, Z: 4})
	p.AgentDied(queen)
	p.GenerationEnded(evolution.GenerationRecord{Generation: 2, Fitness: 5})
	p.RunCompleted(evolution.Summary{RunID: "run-42", BestFitness: 5, BestGeneration: 2})
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{
		TypeChunkDirty, TypeAgentSpawned, TypeNestPlaced, TypeAgentDied, TypeGenerationEnded, TypeRunCompleted,
	}, c.types())
	assert.Equal(t, uint64(0), p.Failures())

	var rec evolution.GenerationRecord
	require.NoError(t, codec.Decode(c.events[4], &rec))
	assert.Equal(t, 2, rec.Generation)
	assert.Equal(t, 5.0, rec.Fitness)

	var ag AgentEvent
	require.NoError(t, codec.Decode(c.events[1], &ag))
	assert.Equal(t, "queen", ag.Role)
	for _, ev := range c.events {
		assert.Equal(t, "run-42", ev.CorrelationID)
	}
}

func TestSimPublisher_CountsFailures(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())

	codec, err := NewCodec("antsim", false)
	require.NoError(t, err)
	defer codec.Close()

	p := NewSimPublisher(bus, codec, "run")
	p.ChunkDirty(vec.Vec3{})
	assert.Equal(t, uint64(1), p.Failures())
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()

	me, err := NewMetricsExporter(bus, reg)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "y"}))
	require.NoError(t, bus.Close())

	me.Collect()
	me.Collect()
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published), "Повторный сбор не удваивает счётчик")

	_, err = NewMetricsExporter(bus, reg)
	assert.Error(t, err, "Повторная регистрация в том же реестре запрещена")
	me.Stop()
}

func TestNew_Backends(t *testing.T) {
	bus, err := New(config.EventBusConfig{Backend: "memory", Buffer: 8})
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = New(config.EventBusConfig{Backend: "kafka"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
