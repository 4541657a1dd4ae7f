package telemetry

import "time"

// FeetPerMeter converts barometric altitude to feet.
const FeetPerMeter = 3.28084

// Sample is one validated telemetry reading. Values are treated as immutable
// once built by DeriveUnits.
type Sample struct {
	Timestamp   int64       `json:"timestamp"` // Unix milliseconds, producer assigned
	Barometer   Barometer   `json:"bmp280"`
	Climate     Climate     `json:"dht22"`
	Orientation Orientation `json:"mpu6050"`
}

// Barometer holds pressure sensor readings and their derived quantities.
type Barometer struct {
	PressureHpa         float64 `json:"pressure"`
	AltitudeM           float64 `json:"altitude_m"`
	AltitudeFt          float64 `json:"altitude_ft"`
	VerticalVelocityMps float64 `json:"velocity"`
}

type Climate struct {
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
}

// Orientation in degrees. Yaw is kept in [0, 360).
type Orientation struct {
	PitchDeg float64 `json:"pitch"`
	RollDeg  float64 `json:"roll"`
	YawDeg   float64 `json:"yaw"`
}

// Reading is a raw, already-parsed reading as handed over by a producer.
type Reading struct {
	Timestamp           int64
	PressureHpa         float64
	AltitudeM           float64
	VerticalVelocityMps float64
	TemperatureC        float64
	HumidityPct         float64
	PitchDeg            float64
	RollDeg             float64
	YawDeg              float64
}

// TemperatureF returns the temperature in degrees Fahrenheit.
func (s Sample) TemperatureF() float64 {
	return s.Climate.TemperatureC*9/5 + 32
}

// ConnectionStatus is the link health derived from sample arrival.
type ConnectionStatus struct {
	Connected      bool  `json:"connected"`
	LastUpdate     int64 `json:"last_update"`
	SignalStrength *int  `json:"signal_strength,omitempty"` // percent, 0-100
}

// MissionStatus tracks launch state and the mission clock.
type MissionStatus struct {
	Launched    bool   `json:"launched"`
	LaunchTime  *int64 `json:"launch_time,omitempty"`
	CurrentTime int64  `json:"current_time"`
	Phase       Phase  `json:"phase"`
}

// Elapsed returns CurrentTime - LaunchTime, or zero before launch.
func (m MissionStatus) Elapsed() time.Duration {
	if !m.Launched || m.LaunchTime == nil {
		return 0
	}
	elapsed := m.CurrentTime - *m.LaunchTime
	if elapsed < 0 {
		return 0
	}
	return time.Duration(elapsed) * time.Millisecond
}
