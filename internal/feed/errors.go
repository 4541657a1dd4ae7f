package feed

import "codeberg.org/mutker/telemetryd/internal/errors"

const (
	ErrEncodeMessage = errors.ErrorCode("feed_encode_message_failed")
	ErrUpgrade       = errors.ErrorCode("feed_websocket_upgrade_failed")
)
