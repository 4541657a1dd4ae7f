package telemetry

import (
	"encoding/json"
	"fmt"

	"codeberg.org/mutker/telemetryd/internal/errors"
)

// LogEntry is the per-sample audit record shown in the telemetry log.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Sample    Sample `json:"data"`
	RawText   string `json:"raw_message"`
}

// NewLogEntry builds the log record for s. Samples sharing a timestamp get
// the same ID.
func NewLogEntry(s Sample) (LogEntry, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return LogEntry{}, errors.New().Wrap(ErrEncodeSample, err)
	}

	return LogEntry{
		ID:        fmt.Sprintf("log-%d", s.Timestamp),
		Timestamp: s.Timestamp,
		Sample:    s,
		RawText:   string(raw),
	}, nil
}

// Summary is the one-line digest shown next to each log entry.
func (e LogEntry) Summary() string {
	return fmt.Sprintf("ALT: %.1fm | VEL: %.1fm/s | TEMP: %.1f°C",
		e.Sample.Barometer.AltitudeM,
		e.Sample.Barometer.VerticalVelocityMps,
		e.Sample.Climate.TemperatureC)
}
