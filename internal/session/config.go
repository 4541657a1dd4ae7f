package session

import (
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
)

const (
	defaultHistorySize = 100
	defaultLogSize     = 50
	defaultStaleAfter  = 5 * time.Second
)

type Config struct {
	HistorySize int
	LogSize     int
	StaleAfter  time.Duration
	Phase       telemetry.Phase
}

func DefaultConfig() Config {
	return Config{
		HistorySize: defaultHistorySize,
		LogSize:     defaultLogSize,
		StaleAfter:  defaultStaleAfter,
		Phase:       telemetry.PhaseAscent,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.HistorySize <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int
		}{"history_size", c.HistorySize})
	}
	if c.LogSize <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int
		}{"log_size", c.LogSize})
	}
	if c.StaleAfter <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value time.Duration
		}{"stale_after", c.StaleAfter})
	}
	if !c.Phase.IsValid() {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(telemetry.ErrInvalidPhase, c.Phase))
	}

	return nil
}
