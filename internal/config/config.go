package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig возвращается Validate для недопустимых значений
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации симуляции.
// Значения задаются один раз при старте и дальше не меняются.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Agents    AgentConfig     `yaml:"agents"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LogLevel  string          `yaml:"log_level"`
	LogDir    string          `yaml:"log_dir"`
}

// WorldConfig описывает размеры мира и параметры генерации
type WorldConfig struct {
	Seed                int64 `yaml:"seed"`
	Diameter            int   `yaml:"diameter_chunks"` // чанков по X и Z
	Height              int   `yaml:"height_chunks"`   // чанков по Y
	ChunkDiameter       int   `yaml:"chunk_diameter"`  // блоков в чанке по каждой оси
	AcidicRegions       int   `yaml:"acidic_regions"`
	AcidicRegionRadius  int   `yaml:"acidic_region_radius"`
	ContainerSpheres    int   `yaml:"container_spheres"`
	ContainerSphereSize int   `yaml:"container_sphere_radius"`
}

type EvolutionConfig struct {
	PopulationSize     int     `yaml:"population_size"`
	GenerationDuration float64 `yaml:"generation_duration_seconds"`
	MutationRate       float64 `yaml:"mutation_rate"`
	EliteCount         int     `yaml:"elite_count"`
	MaxGenerations     int     `yaml:"max_generations"`
	TickSeconds        float64 `yaml:"tick_seconds"` // длительность одного тика симуляции
	TournamentSize     int     `yaml:"tournament_size"`
}

// AgentConfig содержит настройки муравьёв
type AgentConfig struct {
	NumberOfWorkers   int     `yaml:"number_of_workers"`
	MaxHealth         float64 `yaml:"max_health"`
	DecayPerSecond    float64 `yaml:"decay_per_second"`
	MaxStepHeight     int     `yaml:"max_step_height"`
	EatRestore        float64 `yaml:"eat_restore"`
	NestBuildInterval float64 `yaml:"nest_build_interval_seconds"`
	SpawnSpread       int     `yaml:"spawn_spread"`
}

type EventBusConfig struct {
	Backend   string `yaml:"backend"` // "memory" или "jetstream"
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
	Compress  bool   `yaml:"use_zstd_compression"`
}

type ServerConfig struct {
	Enabled  bool `yaml:"enabled"`
	HTTPPort int  `yaml:"http_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:                1337,
			Diameter:            16,
			Height:              4,
			ChunkDiameter:       8,
			AcidicRegions:       10,
			AcidicRegionRadius:  5,
			ContainerSpheres:    5,
			ContainerSphereSize: 20,
		},
		Evolution: EvolutionConfig{
			PopulationSize:     10,
			GenerationDuration: 60,
			MutationRate:       0.15,
			EliteCount:         2,
			MaxGenerations:     5,
			TickSeconds:        0.05,
			TournamentSize:     3,
		},
		Agents: AgentConfig{
			NumberOfWorkers:   10,
			MaxHealth:         100,
			DecayPerSecond:    1,
			MaxStepHeight:     2,
			EatRestore:        40,
			NestBuildInterval: 3,
			SpawnSpread:       5,
		},
		EventBus: EventBusConfig{
			Backend:   "memory",
			Stream:    "ANTSIM",
			Retention: 24,
			Buffer:    4096,
		},
		Server: ServerConfig{
			Enabled: false,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "antsim",
		},
		LogLevel: "info",
		LogDir:   "logs",
	}
}

// GetHTTPPort возвращает порт HTTP статуса с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "ANTSIM_HTTP_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV ANTSIM_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ANTSIM_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	w := c.World
	switch {
	case w.Diameter <= 0 || w.Height <= 0 || w.ChunkDiameter <= 0:
		return fmt.Errorf("%w: world dimensions must be positive", ErrInvalidConfig)
	case w.BlocksX() < 3 || w.BlocksY() < 3:
		return fmt.Errorf("%w: world is too small to have an interior", ErrInvalidConfig)
	case w.AcidicRegions < 0 || w.ContainerSpheres < 0:
		return fmt.Errorf("%w: region counts must not be negative", ErrInvalidConfig)
	case w.AcidicRegionRadius < 0 || w.ContainerSphereSize < 0:
		return fmt.Errorf("%w: region radii must not be negative", ErrInvalidConfig)
	}

	e := c.Evolution
	switch {
	case e.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be positive", ErrInvalidConfig)
	case e.EliteCount < 0 || e.EliteCount > e.PopulationSize:
		return fmt.Errorf("%w: elite_count must be within [0, population_size]", ErrInvalidConfig)
	case e.MaxGenerations <= 0:
		return fmt.Errorf("%w: max_generations must be positive", ErrInvalidConfig)
	case e.GenerationDuration <= 0 || e.TickSeconds <= 0:
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	case e.MutationRate < 0 || e.MutationRate > 1:
		return fmt.Errorf("%w: mutation_rate must be within [0,1]", ErrInvalidConfig)
	case e.TournamentSize <= 0:
		return fmt.Errorf("%w: tournament_size must be positive", ErrInvalidConfig)
	}

	a := c.Agents
	switch {
	case a.NumberOfWorkers < 0:
		return fmt.Errorf("%w: number_of_workers must not be negative", ErrInvalidConfig)
	case a.MaxHealth <= 0:
		return fmt.Errorf("%w: max_health must be positive", ErrInvalidConfig)
	case a.DecayPerSecond < 0 || a.MaxStepHeight < 0 || a.SpawnSpread < 0:
		return fmt.Errorf("%w: agent tunables must not be negative", ErrInvalidConfig)
	case a.NestBuildInterval <= 0:
		return fmt.Errorf("%w: nest_build_interval_seconds must be positive", ErrInvalidConfig)
	}

	if c.EventBus.Backend != "memory" && c.EventBus.Backend != "jetstream" {
		return fmt.Errorf("%w: unknown eventbus backend %q", ErrInvalidConfig, c.EventBus.Backend)
	}

	return nil
}

// BlocksX возвращает размер мира в блоках по X (и Z)
func (w WorldConfig) BlocksX() int { return w.Diameter * w.ChunkDiameter }

// BlocksY возвращает высоту мира в блоках
func (w WorldConfig) BlocksY() int { return w.Height * w.ChunkDiameter }
