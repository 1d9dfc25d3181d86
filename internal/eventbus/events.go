package eventbus

import (
	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/vec"
)

// Типы событий симуляции
const (
	TypeChunkDirty      = "ChunkDirty"
	TypeAgentSpawned    = "AgentSpawned"
	TypeAgentDied       = "AgentDied"
	TypeAgentDespawned  = "AgentDespawned"
	TypeNestPlaced      = "NestPlaced"
	TypeGenerationEnded = "GenerationEnded"
	TypeRunCompleted    = "RunCompleted"
)

// Приоритеты: при переполнении буфера события ниже 5 отбрасываются
const (
	priorityChunk      = 1
	priorityAgent      = 3
	priorityNest       = 5
	priorityGeneration = 8
	priorityRun        = 9
)

// ChunkDirtyEvent чанк нужно перерисовать
type ChunkDirtyEvent struct {
	Chunk vec.Vec3 `json:"chunk"`
}

// AgentEvent жизненный цикл муравья
type AgentEvent struct {
	ID           uint64     `json:"id"`
	Role         string     `json:"role"`
	Pos          vec.Vec3   `json:"pos"`
	Health       float64    `json:"health"`
	DNA          colony.DNA `json:"dna"`
	SurvivalTime float64    `json:"survival_time,omitempty"`
}

// NestPlacedEvent королева построила гнездо
type NestPlacedEvent struct {
	QueenID uint64   `json:"queen_id"`
	Pos     vec.Vec3 `json:"pos"`
}

func agentEvent(a colony.Agent) AgentEvent {
	return AgentEvent{
		ID:           a.ID,
		Role:         a.Role.String(),
		Pos:          a.Pos,
		Health:       a.Health,
		DNA:          a.DNA,
		SurvivalTime: a.SurvivalTime,
	}
}
