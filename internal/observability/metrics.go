package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/antsim/internal/evolution"
)

// SimMetrics Prometheus-метрики симуляции. Обновляются через evolution.Listener.
//
// Метрики:
// * antsim_nests: гнёзда текущего поколения
// * antsim_generation: номер текущего поколения
// * antsim_live_agents: живые муравьи
// * antsim_best_fitness: лучшая оценка за прогон
// * antsim_generation_fitness: оценка последнего завершённого поколения
// * antsim_tick_duration_seconds: реальное время обработки тика
// * antsim_generations_total: завершённые поколения
type SimMetrics struct {
	nests          prometheus.Gauge
	generation     prometheus.Gauge
	liveAgents     prometheus.Gauge
	bestFitness    prometheus.Gauge
	lastFitness    prometheus.Gauge
	tickDuration   prometheus.Histogram
	generationsEnd prometheus.Counter
	restoredBlocks prometheus.Counter
}

var _ evolution.Listener = (*SimMetrics)(nil)

// NewSimMetrics создаёт метрики и регистрирует их в reg
func NewSimMetrics(reg prometheus.Registerer) (*SimMetrics, error) {
	m := &SimMetrics{
		nests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "antsim",
			Name:      "nests",
			Help:      "Количество гнёзд, построенных в текущем поколении.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "antsim",
			Name:      "generation",
			Help:      "Номер текущего поколения.",
		}),
		liveAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "antsim",
			Name:      "live_agents",
			Help:      "Количество живых муравьёв, включая королеву.",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "antsim",
			Name:      "best_fitness",
			Help:      "Лучшая оценка поколения за прогон.",
		}),
		lastFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "antsim",
			Name:      "generation_fitness",
			Help:      "Оценка последнего завершённого поколения.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "antsim",
			Name:      "tick_duration_seconds",
			Help:      "Реальное время обработки одного тика симуляции.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		generationsEnd: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "antsim",
			Name:      "generations_total",
			Help:      "Число завершённых поколений.",
		}),
		restoredBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "antsim",
			Name:      "restored_blocks_total",
			Help:      "Блоки, восстановленные между поколениями.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.nests, m.generation, m.liveAgents, m.bestFitness,
		m.lastFitness, m.tickDuration, m.generationsEnd, m.restoredBlocks,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TickCompleted evolution.Listener
func (m *SimMetrics) TickCompleted(t evolution.TickInfo) {
	m.nests.Set(float64(t.Nests))
	m.generation.Set(float64(t.Generation))
	m.liveAgents.Set(float64(t.LiveAgents))
	m.tickDuration.Observe(t.Wall.Seconds())
}

// GenerationEnded evolution.Listener
func (m *SimMetrics) GenerationEnded(rec evolution.GenerationRecord) {
	m.generationsEnd.Inc()
	m.lastFitness.Set(rec.Fitness)
	m.restoredBlocks.Add(float64(rec.Restored))
}

// RunCompleted evolution.Listener
func (m *SimMetrics) RunCompleted(s evolution.Summary) {
	m.bestFitness.Set(s.BestFitness)
	m.liveAgents.Set(0)
}
