package colony

import (
	"github.com/annel0/antsim/internal/vec"
)

// Role роль муравья в колонии
type Role uint8

const (
	RoleWorker Role = iota
	RoleQueen
)

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleQueen:
		return "queen"
	default:
		return "unknown"
	}
}

// Agent изменяемое состояние одного муравья. Хранится в арене колонии и
// адресуется по ID; ID монотонно растёт и задаёт порядок обработки в тике.
type Agent struct {
	ID     uint64   `json:"id"`
	Role   Role     `json:"role"`
	Pos    vec.Vec3 `json:"pos"`
	Health float64  `json:"health"`

	MaxHealth    float64 `json:"max_health"`
	BirthTime    float64 `json:"birth_time"`
	ActionTimer  float64 `json:"-"`
	NestTimer    float64 `json:"-"` // только королева
	DNA          DNA     `json:"dna"`
	Alive        bool    `json:"alive"`
	SurvivalTime float64 `json:"survival_time"`
}

// IsQueen возвращает true для королевы
func (a *Agent) IsQueen() bool {
	return a.Role == RoleQueen
}

// AddHealth изменяет здоровье и зажимает его в [0, MaxHealth]
func (a *Agent) AddHealth(delta float64) {
	a.Health = clampf(a.Health+delta, 0, a.MaxHealth)
}

// Snapshot возвращает копию состояния муравья
func (a *Agent) Snapshot() Agent {
	return *a
}
