package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/antsim/internal/api"
	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/eventbus"
	"github.com/annel0/antsim/internal/evolution"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/observability"
	"github.com/annel0/antsim/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ANTSIM_CONFIG или встроенные значения)")
	seed := flag.Int64("seed", 0, "переопределить сид мира (0 оставляет значение из конфигурации)")
	serve := flag.Bool("serve", false, "включить HTTP сервер статуса независимо от конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *serve {
		cfg.Server.Enabled = true
	}

	logging.SetLogDir(cfg.LogDir)
	if err := logging.InitDefaultLogger("antsim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		logging.Error("❌ Симуляция завершилась с ошибкой: %v", err)
		logging.GetLoggerManager().CloseAll()
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logging.Info("🐜 Запуск симуляции колонии: seed=%d, поколений=%d, длительность=%.1fс",
		cfg.World.Seed, cfg.Evolution.MaxGenerations, cfg.Evolution.GenerationDuration)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	// === ШИНА СОБЫТИЙ И МЕТРИКИ ===
	bus, err := eventbus.New(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	exporter, err := eventbus.NewMetricsExporter(bus, reg)
	if err != nil {
		return err
	}
	exporter.Start()
	defer exporter.Stop()

	simMetrics, err := observability.NewSimMetrics(reg)
	if err != nil {
		return err
	}

	codec, err := eventbus.NewCodec("antsim", cfg.EventBus.Compress)
	if err != nil {
		return err
	}
	defer codec.Close()
	publisher := eventbus.NewSimPublisher(bus, codec, "")

	// === МИР И КОЛОНИЯ ===
	gen := world.NewWorldGenerator(cfg.World)
	grid := gen.Generate()
	grid.SetListener(publisher)

	// Один ГСЧ на весь прогон: генерация, спавн и эволюция
	rng := gen.Rand()
	col := colony.New(grid, cfg.Agents, rng)
	col.SetObserver(publisher)

	engine, err := evolution.New(cfg, grid, col, rng,
		evolution.WithListener(simMetrics),
		evolution.WithListener(publisher),
	)
	if err != nil {
		return err
	}
	publisher.SetRunID(engine.RunID())
	logging.Info("🧬 Прогон %s готов (bus=%s)", engine.RunID(), cfg.EventBus.Backend)

	// === HTTP СТАТУС ===
	if cfg.Server.Enabled {
		srv, err := api.NewStatusServer(api.Config{
			Port:     cfg.Server.GetHTTPPort(),
			Engine:   engine,
			Agents:   col,
			World:    grid,
			Registry: reg,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(); err != nil {
				logging.Error("❌ Ошибка HTTP сервера статуса: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logging.Warn("Ошибка остановки HTTP сервера: %v", err)
			}
		}()
	}

	summary, err := engine.Run(ctx)
	report(summary)
	if publisher.Failures() > 0 {
		logging.Warn("⚠️ Не удалось опубликовать %d событий", publisher.Failures())
	}

	if err != nil {
		if ctx.Err() != nil {
			logging.Info("🛑 Получен сигнал завершения, прогон прерван на поколении %d", engine.Generation())
			return nil
		}
		return err
	}
	return nil
}

func report(s evolution.Summary) {
	for _, rec := range s.Generations {
		logging.Info("📊 Поколение %d: фитнес=%.0f, выжило=%d, восстановлено=%d, ДНК=%s",
			rec.Generation, rec.Fitness, rec.Survivors, rec.Restored, rec.DNA)
	}
	if len(s.Generations) == 0 {
		logging.Info("Ни одно поколение не завершено")
		return
	}
	logging.Info("🏆 Лучшее поколение %d: фитнес=%.0f, ДНК=%s", s.BestGeneration, s.BestFitness, s.BestDNA)
}
