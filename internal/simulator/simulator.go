// Package simulator produces synthetic CanSat-style readings so the daemon
// can run without a radio link attached.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"codeberg.org/mutker/telemetryd/internal/telemetry"
)

const (
	baseAltitude    = 1000.0
	seaLevelHpa     = 1013.25
	hpaPerMeter     = 0.12
	baseTemperature = 25.0
	baseHumidity    = 60.0
	baseSignal      = 85
)

type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns a Generator seeded with seed. now defaults to time.Now.
func New(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
}

// Next returns a reading stamped with the current time. Altitude follows a
// slow sine around 1000 m with noise; orientation wobbles and yaw spins.
func (g *Generator) Next() telemetry.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	t := float64(ts)

	altitude := math.Max(0, baseAltitude+math.Sin(t/10000)*500+g.rng.Float64()*100)

	return telemetry.Reading{
		Timestamp:           ts,
		PressureHpa:         seaLevelHpa - altitude*hpaPerMeter,
		AltitudeM:           altitude,
		VerticalVelocityMps: math.Sin(t/5000)*50 + g.rng.Float64()*10,
		TemperatureC:        baseTemperature + math.Sin(t/20000)*10 + g.rng.Float64()*2,
		HumidityPct:         baseHumidity + math.Sin(t/15000)*20 + g.rng.Float64()*5,
		PitchDeg:            math.Sin(t/3000)*30 + g.rng.Float64()*5,
		RollDeg:             math.Cos(t/4000)*25 + g.rng.Float64()*5,
		YawDeg:              math.Mod(t/100, 360),
	}
}

// SignalStrength returns a link quality percentage jittering around 85.
func (g *Generator) SignalStrength() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	pct := baseSignal + g.rng.Intn(11) - 5
	return min(max(pct, 0), 100)
}
