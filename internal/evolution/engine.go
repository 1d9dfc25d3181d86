package evolution

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/vec"
	"github.com/annel0/antsim/internal/world"
)

var (
	// ErrNoSpawner движок создан без колонии
	ErrNoSpawner = errors.New("evolution: spawner is required")
	// ErrNoGrid движок создан без мира
	ErrNoGrid = errors.New("evolution: grid is required")
)

// Погрешность сравнения накопленного времени поколения
const timeEpsilon = 1e-9

// State состояние движка эволюции
type State int

const (
	StateInitializing State = iota
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Host колония, в которой движок запускает поколения
type Host interface {
	colony.Spawner
	Tick(dt float64)
}

// FitnessFunc оценивает только что завершившееся поколение
type FitnessFunc func() float64

// GenerationRecord итог одного поколения
type GenerationRecord struct {
	Generation int        `json:"generation"`
	Fitness    float64    `json:"fitness"`
	DNA        colony.DNA `json:"dna"`
	Survivors  int        `json:"survivors"`
	Restored   int        `json:"restored_blocks"`
	Mulch      int        `json:"regenerated_mulch"`
	WallTime   float64    `json:"wall_seconds"`
}

// Summary итог прогона
type Summary struct {
	RunID          string             `json:"run_id"`
	State          string             `json:"state"`
	Generations    []GenerationRecord `json:"generations"`
	BestDNA        colony.DNA         `json:"best_dna"`
	BestFitness    float64            `json:"best_fitness"`
	BestGeneration int                `json:"best_generation"`
}

// Status мгновенный снимок движка для API статуса
type Status struct {
	RunID          string  `json:"run_id"`
	State          string  `json:"state"`
	Generation     int     `json:"generation"`
	MaxGenerations int     `json:"max_generations"`
	Elapsed        float64 `json:"generation_elapsed_seconds"`
	Duration       float64 `json:"generation_duration_seconds"`
	Nests          int     `json:"nests"`
	Queens         int     `json:"queens"`
	Workers        int     `json:"workers"`
	BestFitness    float64 `json:"best_fitness"`
	BestGeneration int     `json:"best_generation"`
}

// Option настраивает Engine
type Option func(*Engine)

// WithListener добавляет получателя уведомлений
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithFitness подменяет оценку поколения (по умолчанию счётчик гнёзд мира)
func WithFitness(f FitnessFunc) Option {
	return func(e *Engine) {
		if f != nil {
			e.fitness = f
		}
	}
}

// WithTracer задаёт OpenTelemetry tracer для спанов поколений
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Engine проводит поколения: спавнит колонию с ДНК популяции, тикает её
// GenerationDuration секунд, оценивает и эволюционирует популяцию.
type Engine struct {
	cfg    config.EvolutionConfig
	agents config.AgentConfig
	grid   *world.Grid
	host   Host
	rng    *rand.Rand

	fitness   FitnessFunc
	listeners []Listener
	tracer    trace.Tracer
	log       *logging.Logger
	runID     string

	ctx  context.Context
	span trace.Span

	state      State
	generation int
	elapsed    float64
	genStarted time.Time
	population []Individual
	history    []GenerationRecord

	best           Individual
	bestGeneration int

	mu sync.RWMutex
}

// New создаёт движок в состоянии Initializing со случайной популяцией
func New(cfg *config.Config, grid *world.Grid, host Host, rng *rand.Rand, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, ErrNoSpawner
	}
	if grid == nil {
		return nil, ErrNoGrid
	}
	if cfg == nil {
		return nil, fmt.Errorf("evolution: %w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("evolution: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.World.Seed))
	}

	e := &Engine{
		cfg:        cfg.Evolution,
		agents:     cfg.Agents,
		grid:       grid,
		host:       host,
		rng:        rng,
		tracer:     otel.Tracer("antsim/evolution"),
		log:        logging.GetEvolutionLogger(),
		runID:      uuid.NewString(),
		ctx:        context.Background(),
		state:      StateInitializing,
		generation: 1,
	}
	e.fitness = func() float64 { return float64(e.grid.NestCount()) }

	for _, opt := range opts {
		opt(e)
	}

	e.population = RandomPopulation(e.rng, e.cfg.PopulationSize)
	e.log.Info("🧬 Evolution run %s: population=%d generations=%d duration=%.0fs",
		e.runID, e.cfg.PopulationSize, e.cfg.MaxGenerations, e.cfg.GenerationDuration)
	return e, nil
}

// RunID возвращает идентификатор прогона
func (e *Engine) RunID() string { return e.runID }

// State возвращает текущее состояние
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Generation возвращает номер текущего поколения (с 1)
func (e *Engine) Generation() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// Population возвращает копию текущей популяции
func (e *Engine) Population() []Individual {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Individual, len(e.population))
	copy(out, e.population)
	return out
}

// Step выполняет один тик. Первый вызов спавнит первое поколение.
// В состоянии Complete ничего не делает.
func (e *Engine) Step(dt float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateComplete:
		return e.state
	case StateInitializing:
		e.beginGeneration()
		e.state = StateRunning
	case StateRunning:
	}

	start := time.Now()
	e.host.Tick(dt)
	e.grid.FlushDirty()
	e.elapsed += dt

	if len(e.listeners) > 0 {
		info := TickInfo{
			Generation: e.generation,
			Elapsed:    e.elapsed,
			Nests:      e.grid.NestCount(),
			LiveAgents: e.liveAgents(),
			Wall:       time.Since(start),
		}
		for _, l := range e.listeners {
			l.TickCompleted(info)
		}
	}

	if e.elapsed+timeEpsilon >= e.cfg.GenerationDuration {
		e.endGeneration()
	}
	return e.state
}

// Run тикает симуляцию до завершения или отмены контекста.
// Отмена проверяется между тиками.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			if e.span != nil {
				e.span.SetStatus(codes.Error, "cancelled")
				e.span.End()
				e.span = nil
			}
			e.mu.Unlock()
			e.log.Warn("⏹️ Evolution run %s cancelled at generation %d", e.runID, e.Generation())
			return e.Summary(), ctx.Err()
		default:
		}

		if e.Step(e.cfg.TickSeconds) == StateComplete {
			return e.Summary(), nil
		}
	}
}

// Summary возвращает историю поколений и лучшую ДНК
func (e *Engine) Summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary()
}

func (e *Engine) summary() Summary {
	history := make([]GenerationRecord, len(e.history))
	copy(history, e.history)
	return Summary{
		RunID:          e.runID,
		State:          e.state.String(),
		Generations:    history,
		BestDNA:        e.best.DNA,
		BestFitness:    e.best.Fitness,
		BestGeneration: e.bestGeneration,
	}
}

// Status возвращает мгновенный снимок состояния
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		RunID:          e.runID,
		State:          e.state.String(),
		Generation:     e.generation,
		MaxGenerations: e.cfg.MaxGenerations,
		Elapsed:        e.elapsed,
		Duration:       e.cfg.GenerationDuration,
		Nests:          e.grid.NestCount(),
		Queens:         len(e.host.Live(colony.RoleQueen)),
		Workers:        len(e.host.Live(colony.RoleWorker)),
		BestFitness:    e.best.Fitness,
		BestGeneration: e.bestGeneration,
	}
}

func (e *Engine) liveAgents() int {
	return len(e.host.Live(colony.RoleQueen)) + len(e.host.Live(colony.RoleWorker))
}

// beginGeneration пересоздаёт колонию с ДНК population[0]
func (e *Engine) beginGeneration() {
	e.host.DespawnAll()
	e.elapsed = 0
	e.genStarted = time.Now()

	dna := e.population[0].DNA
	sx, _, sz := e.grid.Dimensions()
	cx, cz := sx/2, sz/2

	queenPos := vec.Vec3{X: cx, Y: e.grid.SurfaceHeight(cx, cz) + 1, Z: cz}
	e.host.SpawnQueen(queenPos, dna)

	spread := e.agents.SpawnSpread
	for i := 0; i < e.agents.NumberOfWorkers; i++ {
		x := clamp(cx+e.rng.Intn(2*spread+1)-spread, 1, sx-2)
		z := clamp(cz+e.rng.Intn(2*spread+1)-spread, 1, sz-2)
		e.host.SpawnWorker(vec.Vec3{X: x, Y: e.grid.SurfaceHeight(x, z) + 1, Z: z}, dna)
	}

	_, e.span = e.tracer.Start(e.ctx, "evolution.generation",
		trace.WithAttributes(
			attribute.String("run.id", e.runID),
			attribute.Int("generation", e.generation),
			attribute.String("dna", dna.String()),
		))

	e.log.Info("🐜 Generation %d/%d started: %d workers, %s",
		e.generation, e.cfg.MaxGenerations, e.agents.NumberOfWorkers, dna)
}

// endGeneration оценивает поколение и либо завершает прогон, либо готовит следующее
func (e *Engine) endGeneration() {
	fitness := e.fitness()
	e.population[0].Fitness = fitness
	e.population[0].Evaluated = true

	rec := GenerationRecord{
		Generation: e.generation,
		Fitness:    fitness,
		DNA:        e.population[0].DNA,
		Survivors:  e.liveAgents(),
		WallTime:   time.Since(e.genStarted).Seconds(),
	}

	if len(e.history) == 0 || fitness > e.best.Fitness {
		e.best = e.population[0]
		e.bestGeneration = e.generation
		e.log.Info("🏆 New best fitness %.0f at generation %d: %s", fitness, e.generation, rec.DNA)
	}

	last := e.generation >= e.cfg.MaxGenerations
	if !last {
		e.grid.ResetNestCount()
		rec.Restored = e.grid.RestoreTerrain()
		rec.Mulch = e.grid.RegenerateMulch()
		e.grid.FlushDirty()
		e.population = Evolve(e.rng, e.population, Params{
			Size:           e.cfg.PopulationSize,
			EliteCount:     e.cfg.EliteCount,
			TournamentSize: e.cfg.TournamentSize,
			MutationRate:   e.cfg.MutationRate,
		})
	}
	e.history = append(e.history, rec)

	if e.span != nil {
		e.span.SetAttributes(
			attribute.Float64("fitness", fitness),
			attribute.Int("survivors", rec.Survivors),
			attribute.Int("restored_blocks", rec.Restored),
		)
		e.span.End()
		e.span = nil
	}

	e.log.Info("✅ Generation %d complete: fitness=%.0f survivors=%d restored=%d mulch=%d best=%.0f (gen %d)",
		rec.Generation, fitness, rec.Survivors, rec.Restored, rec.Mulch, e.best.Fitness, e.bestGeneration)
	for _, l := range e.listeners {
		l.GenerationEnded(rec)
	}

	if last {
		e.state = StateComplete
		e.host.DespawnAll()
		s := e.summary()
		e.log.Info("🏁 Evolution complete: best fitness %.0f first reached at generation %d with %s",
			s.BestFitness, s.BestGeneration, s.BestDNA)
		for _, l := range e.listeners {
			l.RunCompleted(s)
		}
		return
	}

	e.generation++
	e.beginGeneration()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
