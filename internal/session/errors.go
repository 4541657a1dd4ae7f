package session

import "codeberg.org/mutker/telemetryd/internal/errors"

const (
	ErrInvalidConfig         = errors.ErrorCode("session_invalid_config")
	ErrInvalidSignalStrength = errors.ErrorCode("session_invalid_signal_strength")
	ErrExportFailed          = errors.ErrorCode("session_export_failed")
)
