package session

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var csvHeader = []string{
	"timestamp",
	"altitude_m",
	"altitude_ft",
	"velocity",
	"pressure",
	"temperature",
	"humidity",
	"pitch",
	"roll",
	"yaw",
}

// ExportHistory renders the history buffer as CSV. An empty history yields
// only the header row.
func (m *Manager) ExportHistory() []byte {
	var buf bytes.Buffer
	// writes into a bytes.Buffer cannot fail
	_ = WriteCSV(&buf, m.History())
	return buf.Bytes()
}

// WriteHistoryCSV streams the history buffer as CSV to w.
func (m *Manager) WriteHistoryCSV(w io.Writer) error {
	return WriteCSV(w, m.History())
}

// WriteCSV writes samples in order with a fixed column layout. Timestamps are
// ISO-8601 UTC with millisecond precision; floats use the shortest
// representation that round-trips, printed the way a browser prints numbers.
func WriteCSV(w io.Writer, samples []telemetry.Sample) error {
	errFactory := errors.New()
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	row := make([]string, len(csvHeader))
	for _, s := range samples {
		row[0] = time.UnixMilli(s.Timestamp).UTC().Format(isoMillis)
		row[1] = formatFloat(s.Barometer.AltitudeM)
		row[2] = formatFloat(s.Barometer.AltitudeFt)
		row[3] = formatFloat(s.Barometer.VerticalVelocityMps)
		row[4] = formatFloat(s.Barometer.PressureHpa)
		row[5] = formatFloat(s.Climate.TemperatureC)
		row[6] = formatFloat(s.Climate.HumidityPct)
		row[7] = formatFloat(s.Orientation.PitchDeg)
		row[8] = formatFloat(s.Orientation.RollDeg)
		row[9] = formatFloat(s.Orientation.YawDeg)

		if err := cw.Write(row); err != nil {
			return errFactory.Wrap(ErrExportFailed, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	return nil
}

// ExportFilename is the download name suggested to consumers.
func ExportFilename(now time.Time) string {
	return "telemetry-" + now.UTC().Format("2006-01-02") + ".csv"
}

// formatFloat follows JavaScript number-to-string rules: no negative zero,
// exponent form below 1e-6 and from 1e21 up, plain decimals otherwise.
func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}

	if abs := math.Abs(v); abs < 1e-6 || abs >= 1e21 {
		// Go pads the exponent to two digits: 1e-07 -> 1e-7
		mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}
