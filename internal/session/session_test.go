package session_test

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/session"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000_000)

func sampleAt(t *testing.T, ts int64) telemetry.Sample {
	t.Helper()

	s, err := telemetry.DeriveUnits(telemetry.Reading{
		Timestamp:           ts,
		PressureHpa:         1013.25 - float64(ts-t0)/1000,
		AltitudeM:           float64(ts-t0) / 100,
		VerticalVelocityMps: 2.5,
		TemperatureC:        21,
		HumidityPct:         40,
		PitchDeg:            1,
		RollDeg:             -2,
		YawDeg:              float64(ts % 720),
	})
	require.NoError(t, err)
	return s
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()

	m, err := session.New(session.DefaultConfig(), t0, session.WithSessionID("test"))
	require.NoError(t, err)
	return m
}

func TestNewInitialState(t *testing.T) {
	m := newManager(t)
	snap := m.Snapshot()

	assert.Equal(t, "test", snap.SessionID)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Logs)
	assert.True(t, snap.Connection.Connected)
	assert.Equal(t, t0, snap.Connection.LastUpdate)
	assert.Nil(t, snap.Connection.SignalStrength)
	assert.True(t, snap.Mission.Launched)
	require.NotNil(t, snap.Mission.LaunchTime)
	assert.Equal(t, t0, *snap.Mission.LaunchTime)
	assert.Equal(t, t0, snap.Mission.CurrentTime)
	assert.Equal(t, telemetry.PhaseAscent, snap.Mission.Phase)
	assert.Zero(t, m.MissionDuration())
}

func TestNewDefaultsToRandomSessionID(t *testing.T) {
	a, err := session.New(session.DefaultConfig(), t0)
	require.NoError(t, err)
	b, err := session.New(session.DefaultConfig(), t0)
	require.NoError(t, err)

	assert.Len(t, a.ID(), 36)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*session.Config){
		"history": func(c *session.Config) { c.HistorySize = 0 },
		"log":     func(c *session.Config) { c.LogSize = -1 },
		"stale":   func(c *session.Config) { c.StaleAfter = 0 },
		"phase":   func(c *session.Config) { c.Phase = "orbit" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := session.DefaultConfig()
			mutate(&cfg)

			_, err := session.New(cfg, t0)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, session.ErrInvalidConfig))
		})
	}
}

func TestHistoryIsBounded(t *testing.T) {
	m := newManager(t)

	const n = 250
	submitted := make([]telemetry.Sample, 0, n)
	for i := 0; i < n; i++ {
		s := sampleAt(t, t0+int64(i)*1000)
		require.NoError(t, m.SubmitSample(s))
		submitted = append(submitted, s)
	}

	history := m.History()
	require.Len(t, history, 100)
	assert.Equal(t, submitted[n-100:], history)
}

func TestLogIsBoundedNewestFirst(t *testing.T) {
	m := newManager(t)

	const n = 120
	var last telemetry.Sample
	for i := 0; i < n; i++ {
		last = sampleAt(t, t0+int64(i)*1000)
		require.NoError(t, m.SubmitSample(last))
	}

	logs := m.Logs()
	require.Len(t, logs, 50)
	assert.Equal(t, last.Timestamp, logs[0].Timestamp)
	assert.Equal(t, last, logs[0].Sample)
	for i := 1; i < len(logs); i++ {
		assert.Equal(t, logs[i-1].Timestamp-1000, logs[i].Timestamp)
	}
	assert.Equal(t, t0+int64(n-50)*1000, logs[49].Timestamp)
}

func TestStoredSamplesKeepUnitConsistency(t *testing.T) {
	m := newManager(t)
	for i := 0; i < 30; i++ {
		require.NoError(t, m.SubmitSample(sampleAt(t, t0+int64(i)*997)))
	}

	snap := m.Snapshot()
	for _, s := range snap.History {
		assert.InDelta(t, s.Barometer.AltitudeM*3.28084, s.Barometer.AltitudeFt, 1e-9)
	}
	for _, e := range snap.Logs {
		assert.InDelta(t, e.Sample.Barometer.AltitudeM*3.28084, e.Sample.Barometer.AltitudeFt, 1e-9)
	}
}

func TestSubmitRejectsInconsistentSample(t *testing.T) {
	m := newManager(t)

	s := sampleAt(t, t0+1000)
	s.Barometer.AltitudeFt += 1
	err := m.SubmitSample(s)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrInvalidSample))

	snap := m.Snapshot()
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Logs)
}

func TestStaleness(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.SubmitSample(sampleAt(t, t0)))

	assert.False(t, m.Tick(t0+4999))
	assert.True(t, m.Connection().Connected)

	assert.False(t, m.Tick(t0+5000))
	assert.True(t, m.Connection().Connected)

	assert.True(t, m.Tick(t0+5001))
	assert.False(t, m.Connection().Connected)

	// only the transitioning tick reports
	assert.False(t, m.Tick(t0+9000))
	assert.False(t, m.Connection().Connected)

	// history and current survive the disconnect
	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, t0, current.Timestamp)
	assert.Len(t, m.History(), 1)
}

func TestTickWithoutSamplesStaysConnected(t *testing.T) {
	m := newManager(t)

	assert.False(t, m.Tick(t0+60_000))
	assert.True(t, m.Connection().Connected)
}

func TestReconnection(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.SubmitSample(sampleAt(t, t0)))
	require.True(t, m.Tick(t0+6000))
	require.False(t, m.Connection().Connected)

	require.NoError(t, m.SubmitSample(sampleAt(t, t0+7000)))
	conn := m.Connection()
	assert.True(t, conn.Connected)
	assert.Equal(t, t0+7000, conn.LastUpdate)
}

func TestSubmitKeepsSignalStrength(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.SetSignalStrength(85))
	require.NoError(t, m.SubmitSample(sampleAt(t, t0)))

	conn := m.Connection()
	require.NotNil(t, conn.SignalStrength)
	assert.Equal(t, 85, *conn.SignalStrength)

	err := m.SetSignalStrength(101)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrInvalidSignalStrength))
	assert.Error(t, m.SetSignalStrength(-1))
	assert.Equal(t, 85, *m.Connection().SignalStrength)
}

func TestMissionClockIsMonotonic(t *testing.T) {
	m := newManager(t)

	ticks := []int64{t0 + 1000, t0 + 5000, t0 + 3000, t0 + 5000, t0 - 10_000, t0 + 8000, t0 + 7999}
	previous := m.Mission().CurrentTime
	for _, now := range ticks {
		m.Tick(now)
		current := m.Mission().CurrentTime
		assert.GreaterOrEqual(t, current, previous, "tick %d", now)
		previous = current
	}

	assert.Equal(t, t0+8000, previous)
	assert.Equal(t, 8*time.Second, m.MissionDuration())
	assert.Equal(t, int64(8000), m.Snapshot().MissionDurationMs)
}

func TestTickIsIdempotent(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.SubmitSample(sampleAt(t, t0)))

	m.Tick(t0 + 7000)
	first := m.Snapshot()
	m.Tick(t0 + 7000)
	m.Tick(t0 + 7000)
	assert.Equal(t, first, m.Snapshot())
}

func TestSetPhase(t *testing.T) {
	m := newManager(t)

	require.NoError(t, m.SetPhase(telemetry.PhaseDescent))
	assert.Equal(t, telemetry.PhaseDescent, m.Mission().Phase)

	err := m.SetPhase("orbit")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrInvalidPhase))
	assert.Equal(t, telemetry.PhaseDescent, m.Mission().Phase)
}

func TestSnapshotIsIsolated(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.SetSignalStrength(70))
	require.NoError(t, m.SubmitSample(sampleAt(t, t0)))

	snap := m.Snapshot()
	snap.Current.Barometer.AltitudeM = 9999
	snap.History[0].Climate.TemperatureC = -99
	snap.Logs[0].RawText = ""
	*snap.Connection.SignalStrength = 1
	*snap.Mission.LaunchTime = 0

	fresh := m.Snapshot()
	assert.Equal(t, sampleAt(t, t0), *fresh.Current)
	assert.Equal(t, 21.0, fresh.History[0].Climate.TemperatureC)
	assert.NotEmpty(t, fresh.Logs[0].RawText)
	assert.Equal(t, 70, *fresh.Connection.SignalStrength)
	assert.Equal(t, t0, *fresh.Mission.LaunchTime)
}

func TestScenario(t *testing.T) {
	m := newManager(t)

	for i := int64(0); i < 3; i++ {
		require.NoError(t, m.SubmitSample(sampleAt(t, t0+i*1000)))
		m.Tick(t0 + i*1000)
	}
	last := t0 + 2000

	snap := m.Snapshot()
	assert.Len(t, snap.History, 3)
	assert.Len(t, snap.Logs, 3)
	assert.Equal(t, last, snap.Logs[0].Timestamp)
	assert.True(t, snap.Connection.Connected)

	m.Tick(last + 6000)
	assert.False(t, m.Connection().Connected)

	require.NoError(t, m.SubmitSample(sampleAt(t, last+7000)))
	snap = m.Snapshot()
	assert.True(t, snap.Connection.Connected)
	assert.Len(t, snap.History, 4)
}

func TestConcurrentReadersSeeConsistentState(t *testing.T) {
	m := newManager(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 500; i++ {
			s, _ := telemetry.DeriveUnits(telemetry.Reading{Timestamp: t0 + i, AltitudeM: float64(i)})
			_ = m.SubmitSample(s)
			m.Tick(t0 + i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := m.Snapshot()
			if snap.Current == nil {
				continue
			}
			assert.Equal(t, snap.Current.Timestamp, snap.Connection.LastUpdate)
			assert.Equal(t, *snap.Current, snap.History[len(snap.History)-1])
			assert.Equal(t, snap.Current.Timestamp, snap.Logs[0].Timestamp)
		}
	}()
	wg.Wait()

	assert.Len(t, m.History(), 100)
	assert.Len(t, m.Logs(), 50)
}
