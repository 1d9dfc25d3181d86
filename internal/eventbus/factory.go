package eventbus

import (
	"fmt"
	"time"

	"github.com/annel0/antsim/internal/config"
)

// New создаёт шину по конфигурации: in-memory или NATS JetStream
func New(cfg config.EventBusConfig) (EventBus, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBus(cfg.Buffer), nil
	case "jetstream":
		bus, err := NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("eventbus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("eventbus: %w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}
