// Package session keeps the live telemetry state for one ground-station
// session: the current sample, bounded history and log buffers, link health
// and the mission clock.
//
// Manager does no scheduling of its own. A producer calls SubmitSample for
// every reading and a separate driver calls Tick on a fixed cadence.
package session

import (
	"sync"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/logger"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
	"github.com/google/uuid"
)

// Snapshot is a point-in-time copy of the session state. Nothing in it
// aliases Manager memory.
type Snapshot struct {
	SessionID         string                     `json:"session_id"`
	Current           *telemetry.Sample          `json:"current"`
	History           []telemetry.Sample         `json:"history"`
	Logs              []telemetry.LogEntry       `json:"logs"`
	Connection        telemetry.ConnectionStatus `json:"connection"`
	Mission           telemetry.MissionStatus    `json:"mission"`
	MissionDurationMs int64                      `json:"mission_duration_ms"`
}

// MissionDuration returns the elapsed mission time captured in the snapshot.
func (s Snapshot) MissionDuration() time.Duration {
	return time.Duration(s.MissionDurationMs) * time.Millisecond
}

type sessionState struct {
	current    *telemetry.Sample
	history    *window[telemetry.Sample]
	logs       *window[telemetry.LogEntry]
	connection telemetry.ConnectionStatus
	mission    telemetry.MissionStatus
}

type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	id    string
	log   logger.Logger
	state sessionState
}

type Option func(*Manager)

// WithLogger replaces the default component logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSessionID sets the session identifier instead of a random UUID.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		m.id = id
	}
}

// New starts a session at now (Unix ms). The mission counts as launched at
// now and the link starts out connected.
func New(cfg Config, now int64, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	launch := now
	m := &Manager{
		cfg: cfg,
		id:  uuid.NewString(),
		log: logger.Default().With("session"),
		state: sessionState{
			history: newWindow[telemetry.Sample](cfg.HistorySize),
			logs:    newWindow[telemetry.LogEntry](cfg.LogSize),
			connection: telemetry.ConnectionStatus{
				Connected:  true,
				LastUpdate: now,
			},
			mission: telemetry.MissionStatus{
				Launched:    true,
				LaunchTime:  &launch,
				CurrentTime: now,
				Phase:       cfg.Phase,
			},
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.log.Debug().
		Str("session_id", m.id).
		Int("history_size", cfg.HistorySize).
		Int("log_size", cfg.LogSize).
		Dur("stale_after", cfg.StaleAfter).
		Msg("Session started")

	return m, nil
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.id
}

// SubmitSample records s as the current sample, appends it to the history,
// prepends its log entry and marks the link connected. The only error is a
// validation failure, in which case the state is left untouched.
func (m *Manager) SubmitSample(s telemetry.Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}

	entry, err := telemetry.NewLogEntry(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	current := s
	m.state.current = &current
	m.state.history.push(s)
	m.state.logs.pushFront(entry)
	reconnected := !m.state.connection.Connected
	m.state.connection.Connected = true
	m.state.connection.LastUpdate = s.Timestamp
	historyLen := m.state.history.len()
	m.mu.Unlock()

	if reconnected {
		m.log.Info().
			Int64("timestamp", s.Timestamp).
			Msg("Telemetry link restored")
	}

	m.log.Debug().
		Int64("timestamp", s.Timestamp).
		Float64("altitude_m", s.Barometer.AltitudeM).
		Int("history", historyLen).
		Msg("Sample accepted")

	return nil
}

// Tick advances the mission clock to now (never backwards) and marks the
// link disconnected once the current sample is older than StaleAfter. It
// reports whether this call made the link go stale. Repeating a Tick with the
// same now changes nothing.
func (m *Manager) Tick(now int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now > m.state.mission.CurrentTime {
		m.state.mission.CurrentTime = now
	}

	if m.state.current == nil || !m.state.connection.Connected {
		return false
	}

	if now-m.state.current.Timestamp > m.cfg.StaleAfter.Milliseconds() {
		m.state.connection.Connected = false
		return true
	}

	return false
}

// MissionDuration returns the elapsed time since launch, or zero before launch.
func (m *Manager) MissionDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.mission.Elapsed()
}

// SetPhase records a manually reported mission phase.
func (m *Manager) SetPhase(p telemetry.Phase) error {
	if !p.IsValid() {
		return errors.New().WithData(telemetry.ErrInvalidPhase, p)
	}

	m.mu.Lock()
	previous := m.state.mission.Phase
	m.state.mission.Phase = p
	m.mu.Unlock()

	if previous != p {
		m.log.Info().
			Str("from", previous.String()).
			Str("to", p.String()).
			Msg("Mission phase changed")
	}

	return nil
}

// SetSignalStrength records the link quality reported by the transport.
func (m *Manager) SetSignalStrength(pct int) error {
	if pct < 0 || pct > 100 {
		return errors.New().WithData(ErrInvalidSignalStrength, pct)
	}

	m.mu.Lock()
	m.state.connection.SignalStrength = &pct
	m.mu.Unlock()

	return nil
}

// Snapshot returns a deep copy of the session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		SessionID:         m.id,
		History:           m.state.history.snapshot(),
		Logs:              m.state.logs.snapshot(),
		Connection:        m.state.connection,
		Mission:           m.state.mission,
		MissionDurationMs: m.state.mission.Elapsed().Milliseconds(),
	}

	if m.state.current != nil {
		current := *m.state.current
		snap.Current = &current
	}
	if p := m.state.connection.SignalStrength; p != nil {
		strength := *p
		snap.Connection.SignalStrength = &strength
	}
	if p := m.state.mission.LaunchTime; p != nil {
		launch := *p
		snap.Mission.LaunchTime = &launch
	}

	return snap
}

// Current returns a copy of the latest sample, if any.
func (m *Manager) Current() (telemetry.Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.current == nil {
		return telemetry.Sample{}, false
	}
	return *m.state.current, true
}

// History returns the retained samples, oldest first.
func (m *Manager) History() []telemetry.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.history.snapshot()
}

// Logs returns the retained log entries, newest first.
func (m *Manager) Logs() []telemetry.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.logs.snapshot()
}

// Connection returns the current link status.
func (m *Manager) Connection() telemetry.ConnectionStatus {
	return m.Snapshot().Connection
}

// Mission returns the current mission status.
func (m *Manager) Mission() telemetry.MissionStatus {
	return m.Snapshot().Mission
}
