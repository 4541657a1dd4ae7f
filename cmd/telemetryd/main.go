package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/mutker/telemetryd/internal/config"
	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/feed"
	"codeberg.org/mutker/telemetryd/internal/logger"
	"codeberg.org/mutker/telemetryd/internal/pid"
	"codeberg.org/mutker/telemetryd/internal/session"
	"codeberg.org/mutker/telemetryd/internal/simulator"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
	"github.com/dustin/go-humanize"
)

const shutdownTimeout = 5 * time.Second

var (
	cfg     *config.Config
	manager *session.Manager
	hub     *feed.Hub
)

func main() {
	var err error
	cfg, err = config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LoggerOptions(logger.IsService())); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	phase, err := cfg.MissionPhase()
	if err != nil {
		logger.FatalWithCode(errors.New().Wrap(errors.ErrInvalidConfig, err)).Msg("invalid mission phase")
	}

	if err := pid.Write(cfg.PIDFile); err != nil {
		logger.Fatal().Err(err).Str("pid_file", cfg.PIDFile).Msg("failed to acquire pid file")
	}
	defer removePIDFile()

	manager, err = session.New(session.Config{
		HistorySize: cfg.HistorySize,
		LogSize:     cfg.LogSize,
		StaleAfter:  cfg.StaleAfter,
		Phase:       phase,
	}, time.Now().UnixMilli())
	if err != nil {
		logger.ErrorWithCode(errors.New().Wrap(errors.ErrInitFailed, err)).Msg("failed to start session")
		return
	}
	hub = feed.NewHub(logger.Default().With("feed"))

	logger.Info().
		Str("session_id", manager.ID()).
		Str("phase", phase.String()).
		Bool("simulate", cfg.Simulate).
		Str("listen", cfg.Listen).
		Msg("Telemetry session started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	server := startFeed(cancel)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tickLoop(ctx)
	}()

	if cfg.Simulate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			produceLoop(ctx, simulator.New(time.Now().UnixNano(), nil))
		}()
	} else {
		logger.Warn().Msg("Simulator disabled and no transport attached, waiting for shutdown")
	}

	<-ctx.Done()
	wg.Wait()
	cleanup(server)
}

// tickLoop drives staleness detection and the mission clock.
func tickLoop(ctx context.Context) {
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if manager.Tick(now.UnixMilli()) {
				snap := manager.Snapshot()
				lastUpdate := time.UnixMilli(snap.Connection.LastUpdate)
				logger.Warn().
					Str("last_update", telemetry.FormatClockTime(snap.Connection.LastUpdate)).
					Str("since", humanize.RelTime(lastUpdate, now, "ago", "from now")).
					Msg("Telemetry link lost")
				hub.PublishStale(snap)
				continue
			}
			hub.Publish(manager.Snapshot())
		}
	}
}

// produceLoop stands in for the radio link, submitting one simulated sample
// per interval.
func produceLoop(ctx context.Context, gen *simulator.Generator) {
	ticker := time.NewTicker(cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := submit(gen); err != nil {
				logger.ErrorWithCode(errors.New().Wrap(errors.ErrSubmitCycle, err)).Msg("sample rejected")
				continue
			}
			hub.Publish(manager.Snapshot())
			logStatus()
		}
	}
}

func submit(gen *simulator.Generator) error {
	sample, err := telemetry.DeriveUnits(gen.Next())
	if err != nil {
		return err
	}
	if err := manager.SetSignalStrength(gen.SignalStrength()); err != nil {
		return err
	}
	return manager.SubmitSample(sample)
}

func startFeed(cancel context.CancelFunc) *http.Server {
	if cfg.Listen == "" {
		logger.Info().Msg("Feed server disabled")
		return nil
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           feed.NewServer(manager, hub).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Listen).Msg("Feed server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorWithCode(errors.New().Wrap(errors.ErrServeFeed, err)).Msg("feed server stopped")
			cancel()
		}
	}()

	return server
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.ErrorWithCode(errors.New().Wrap(errors.ErrShutdownFailed, err)).Msg("failed to stop feed server")
		}
	}

	logger.Info().
		Str("mission_elapsed", telemetry.FormatDuration(manager.MissionDuration())).
		Int("history_samples", len(manager.History())).
		Msg("Exiting...")
}

func removePIDFile() {
	if err := pid.Remove(cfg.PIDFile); err != nil {
		logger.Error().Err(err).Msg("failed to remove pid file")
	}
}

func logStatus() {
	snap := manager.Snapshot()
	if snap.Current == nil {
		return
	}
	s := snap.Current

	logger.Debug().
		Str("time", telemetry.FormatClockTime(s.Timestamp)).
		Float64("altitude_m", s.Barometer.AltitudeM).
		Float64("altitude_ft", s.Barometer.AltitudeFt).
		Float64("velocity", s.Barometer.VerticalVelocityMps).
		Float64("pressure", s.Barometer.PressureHpa).
		Float64("temperature_c", s.Climate.TemperatureC).
		Float64("temperature_f", s.TemperatureF()).
		Float64("humidity", s.Climate.HumidityPct).
		Float64("pitch", s.Orientation.PitchDeg).
		Float64("roll", s.Orientation.RollDeg).
		Float64("yaw", s.Orientation.YawDeg).
		Bool("connected", snap.Connection.Connected).
		Str("phase", snap.Mission.Phase.String()).
		Str("mission_elapsed", telemetry.FormatDuration(snap.MissionDuration())).
		Int("history", len(snap.History)).
		Int("log", len(snap.Logs)).
		Msg("")
}
