package telemetry

import "math"

// DeriveUnits builds a Sample from a raw reading. It fills AltitudeFt from
// AltitudeM, wraps yaw into [0, 360) and rejects non-finite values, raw or
// derived.
func DeriveUnits(r Reading) (Sample, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"pressure", r.PressureHpa},
		{"altitude_m", r.AltitudeM},
		{"velocity", r.VerticalVelocityMps},
		{"temperature", r.TemperatureC},
		{"humidity", r.HumidityPct},
		{"pitch", r.PitchDeg},
		{"roll", r.RollDeg},
		{"yaw", r.YawDeg},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return Sample{}, invalid(f.name, f.value, "value is not finite")
		}
	}

	s := Sample{
		Timestamp: r.Timestamp,
		Barometer: Barometer{
			PressureHpa:         r.PressureHpa,
			AltitudeM:           r.AltitudeM,
			AltitudeFt:          MetersToFeet(r.AltitudeM),
			VerticalVelocityMps: r.VerticalVelocityMps,
		},
		Climate: Climate{
			TemperatureC: r.TemperatureC,
			HumidityPct:  r.HumidityPct,
		},
		Orientation: Orientation{
			PitchDeg: r.PitchDeg,
			RollDeg:  r.RollDeg,
			YawDeg:   NormalizeYaw(r.YawDeg),
		},
	}
	// a finite altitude_m can still overflow once converted
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}

	return s, nil
}

// MetersToFeet converts meters to feet.
func MetersToFeet(m float64) float64 {
	return m * FeetPerMeter
}

// NormalizeYaw wraps an angle in degrees into [0, 360).
func NormalizeYaw(deg float64) float64 {
	yaw := math.Mod(deg, 360)
	if yaw < 0 {
		yaw += 360
	}
	// -tiny + 360 rounds to 360
	if yaw >= 360 {
		yaw = 0
	}
	return yaw
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
