package telemetry

import (
	"fmt"
	"time"
)

// FormatDuration renders d as zero-padded HH:MM:SS, dropping sub-second
// precision. Negative durations render as 00:00:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// FormatClockTime renders a Unix millisecond timestamp as local 24-hour time.
func FormatClockTime(ts int64) string {
	return time.UnixMilli(ts).Format("15:04:05")
}
