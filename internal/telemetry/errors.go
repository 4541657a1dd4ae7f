package telemetry

import "codeberg.org/mutker/telemetryd/internal/errors"

const (
	ErrInvalidSample = errors.ErrorCode("telemetry_invalid_sample")
	ErrInvalidPhase  = errors.ErrorCode("telemetry_invalid_phase")
	ErrEncodeSample  = errors.ErrorCode("telemetry_encode_sample_failed")
)

// ValidationError describes the first field of a sample that failed validation.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field string, value float64, reason string) error {
	return errors.New().Wrap(ErrInvalidSample, &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	})
}
