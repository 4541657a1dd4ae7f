package telemetry

import "math"

const altitudeTolerance = 1e-9

// Validate checks a Sample that may not have come from DeriveUnits: every
// field must be finite, AltitudeFt must match AltitudeM and yaw must be
// normalized.
func (s Sample) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"pressure", s.Barometer.PressureHpa},
		{"altitude_m", s.Barometer.AltitudeM},
		{"altitude_ft", s.Barometer.AltitudeFt},
		{"velocity", s.Barometer.VerticalVelocityMps},
		{"temperature", s.Climate.TemperatureC},
		{"humidity", s.Climate.HumidityPct},
		{"pitch", s.Orientation.PitchDeg},
		{"roll", s.Orientation.RollDeg},
		{"yaw", s.Orientation.YawDeg},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return invalid(f.name, f.value, "value is not finite")
		}
	}

	want := MetersToFeet(s.Barometer.AltitudeM)
	if math.Abs(s.Barometer.AltitudeFt-want) > altitudeTolerance*math.Max(1, math.Abs(want)) {
		return invalid("altitude_ft", s.Barometer.AltitudeFt, "does not match altitude_m")
	}

	if yaw := s.Orientation.YawDeg; yaw < 0 || yaw >= 360 {
		return invalid("yaw", yaw, "outside [0, 360)")
	}

	return nil
}
