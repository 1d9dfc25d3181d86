package eventbus

import (
	"context"
	"sync/atomic"

	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/evolution"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/vec"
)

// SimPublisher переводит уведомления мира, колонии и движка эволюции в события шины.
// Реализует world.ChunkListener, colony.Observer и evolution.Listener.
type SimPublisher struct {
	evolution.NopListener

	bus   EventBus
	codec *Codec
	runID string
	log   *logging.Logger

	failures atomic.Uint64
}

// NewSimPublisher создаёт издателя; runID становится CorrelationID всех событий
func NewSimPublisher(bus EventBus, codec *Codec, runID string) *SimPublisher {
	return &SimPublisher{
		bus:   bus,
		codec: codec,
		runID: runID,
		log:   logging.GetComponentLogger("eventbus"),
	}
}

// SetRunID меняет CorrelationID (ID прогона известен только после создания движка)
func (p *SimPublisher) SetRunID(runID string) {
	p.runID = runID
}

// Failures возвращает число событий, которые не удалось опубликовать
func (p *SimPublisher) Failures() uint64 {
	return p.failures.Load()
}

func (p *SimPublisher) publish(eventType string, priority int, payload any) {
	ev, err := p.codec.Envelope(eventType, priority, p.runID, payload)
	if err == nil {
		err = p.bus.Publish(context.Background(), ev)
	}
	if err != nil {
		p.failures.Add(1)
		p.log.Warn("Failed to publish %s: %v", eventType, err)
	}
}

// ChunkDirty world.ChunkListener
func (p *SimPublisher) ChunkDirty(chunk vec.Vec3) {
	p.publish(TypeChunkDirty, priorityChunk, ChunkDirtyEvent{Chunk: chunk})
}

// AgentSpawned colony.Observer
func (p *SimPublisher) AgentSpawned(a colony.Agent) {
	p.publish(TypeAgentSpawned, priorityAgent, agentEvent(a))
}

// AgentDied colony.Observer
func (p *SimPublisher) AgentDied(a colony.Agent) {
	p.publish(TypeAgentDied, priorityAgent, agentEvent(a))
}

// AgentDespawned colony.Observer
func (p *SimPublisher) AgentDespawned(a colony.Agent) {
	p.publish(TypeAgentDespawned, priorityAgent, agentEvent(a))
}

// NestPlaced colony.Observer
func (p *SimPublisher) NestPlaced(queen colony.Agent, pos vec.Vec3) {
	p.publish(TypeNestPlaced, priorityNest, NestPlacedEvent{QueenID: queen.ID, Pos: pos})
}

// GenerationEnded evolution.Listener
func (p *SimPublisher) GenerationEnded(rec evolution.GenerationRecord) {
	p.publish(TypeGenerationEnded, priorityGeneration, rec)
}

// RunCompleted evolution.Listener
func (p *SimPublisher) RunCompleted(s evolution.Summary) {
	p.publish(TypeRunCompleted, priorityRun, s)
}
