package colony

import (
	"math/rand"
	"sync"

	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/vec"
	"github.com/annel0/antsim/internal/world"
)

// Spawner возможность создавать и удалять муравьёв, которую использует движок эволюции
type Spawner interface {
	SpawnQueen(pos vec.Vec3, dna DNA) *Agent
	SpawnWorker(pos vec.Vec3, dna DNA) *Agent
	DespawnAll() int
	Live(role Role) []Agent
}

// Observer получает уведомления о жизненном цикле муравьёв (визуализация, шина событий).
// Вызывается из цикла тиков под блокировкой колонии: реализация не должна блокироваться
// и не должна вызывать методы Colony.
type Observer interface {
	AgentSpawned(a Agent)
	AgentDied(a Agent)
	AgentDespawned(a Agent)
	NestPlaced(queen Agent, pos vec.Vec3)
}

// NopObserver пустая реализация Observer для встраивания
type NopObserver struct{}

func (NopObserver) AgentSpawned(Agent) {}
func (NopObserver) AgentDied(Agent) {}
func (NopObserver) AgentDespawned(Agent) {}
func (NopObserver) NestPlaced(Agent, vec.Vec3) {}

// Stats счётчики действий колонии с момента создания
type Stats struct {
	Spawned uint64 `json:"spawned"`
	Deaths  uint64 `json:"deaths"`
	Eaten   uint64 `json:"eaten"`
	Dug     uint64 `json:"dug"`
	Moves   uint64 `json:"moves"`
	Nests   uint64 `json:"nests"`
}

// Colony арена муравьёв. Агенты хранятся в порядке возрастания ID,
// ID выдаются монотонно и никогда не переиспользуются.
type Colony struct {
	grid     *world.Grid
	cfg      config.AgentConfig
	rng      *rand.Rand
	index    *SpatialIndex
	observer Observer
	log      *logging.Logger

	agents []*Agent
	byID   map[uint64]*Agent
	nextID uint64
	clock  float64 // симулированное время в секундах
	stats  Stats

	mu sync.RWMutex
}

// New создаёт пустую колонию поверх мира
func New(grid *world.Grid, cfg config.AgentConfig, rng *rand.Rand) *Colony {
	return &Colony{
		grid:     grid,
		cfg:      cfg,
		rng:      rng,
		index:    NewSpatialIndex(),
		observer: NopObserver{},
		log:      logging.GetColonyLogger(),
		byID:     make(map[uint64]*Agent),
		nextID:   1,
	}
}

// SetObserver подключает получателя событий жизненного цикла
func (c *Colony) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o == nil {
		o = NopObserver{}
	}
	c.observer = o
}

// Now возвращает текущее симулированное время
func (c *Colony) Now() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clock
}

// Stats возвращает копию счётчиков действий
func (c *Colony) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// SpawnQueen создаёт королеву. ДНК приводится к ограничениям королевы.
func (c *Colony) SpawnQueen(pos vec.Vec3, dna DNA) *Agent {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.spawn(RoleQueen, pos, dna.ForQueen())
	a.NestTimer = c.cfg.NestBuildInterval
	c.log.Info("👑 Queen spawned at (%d,%d,%d) with %s", pos.X, pos.Y, pos.Z, a.DNA)
	return a
}

// SpawnWorker создаёт рабочего муравья. Пустая ДНК заменяется случайной.
func (c *Colony) SpawnWorker(pos vec.Vec3, dna DNA) *Agent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dna.IsZero() {
		dna = RandomDNA(c.rng)
	}
	return c.spawn(RoleWorker, pos, dna)
}

func (c *Colony) spawn(role Role, pos vec.Vec3, dna DNA) *Agent {
	dna = dna.Clamp()
	a := &Agent{
		ID:          c.nextID,
		Role:        role,
		Pos:         pos,
		Health:      c.cfg.MaxHealth,
		MaxHealth:   c.cfg.MaxHealth,
		BirthTime:   c.clock,
		ActionTimer: c.rng.Float64() * dna.ActionInterval,
		DNA:         dna,
		Alive:       true,
	}
	c.nextID++

	c.agents = append(c.agents, a)
	c.byID[a.ID] = a
	c.index.Insert(a.ID, pos)
	c.stats.Spawned++

	c.observer.AgentSpawned(*a)
	return a
}

// DespawnAll удаляет всех муравьёв и возвращает их количество
func (c *Colony) DespawnAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, a := range c.agents {
		if !a.Alive {
			continue
		}
		a.Alive = false
		a.SurvivalTime = c.clock - a.BirthTime
		c.observer.AgentDespawned(*a)
		n++
	}

	c.agents = nil
	c.byID = make(map[uint64]*Agent)
	c.index.Clear()
	return n
}

// Live возвращает снимки живых муравьёв роли role в порядке ID
func (c *Colony) Live(role Role) []Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Agent, 0, len(c.agents))
	for _, a := range c.agents {
		if a.Alive && a.Role == role {
			out = append(out, *a)
		}
	}
	return out
}

// Population возвращает число живых муравьёв
func (c *Colony) Population() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Get возвращает муравья по ID
func (c *Colony) Get(id uint64) (*Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[id]
	return a, ok
}

// Tick продвигает симуляцию на dt секунд. Муравьи обрабатываются по возрастанию ID.
func (c *Colony) Tick(dt float64) {
	if dt <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock += dt
	for _, a := range c.agents {
		if a.Alive {
			c.updateAgent(a, dt)
		}
	}
	c.compact()
}

// compact убирает мёртвых муравьёв из арены с сохранением порядка
func (c *Colony) compact() {
	live := c.agents[:0]
	for _, a := range c.agents {
		if a.Alive {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(c.agents); i++ {
		c.agents[i] = nil
	}
	c.agents = live
}
