// Package dlutil has small helpers shared by download progress
// reporting.
package dlutil

import (
	"fmt"
	"time"
)

// GetSpeed returns the average transfer speed in bytes per second since
// start. Returns 0 until measurable time has elapsed.
func GetSpeed(downloaded int64, start time.Time) float64 {
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(downloaded) / elapsed
}

// FormatSize formats a byte count for humans.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ShouldUpdateProgress throttles progress writes: report again only
// when at least one whole percent has been gained since the last
// reported percentage.
func ShouldUpdateProgress(downloaded, total int64, lastPercent int) bool {
	if total <= 0 {
		return false
	}
	percent := int((downloaded * 100) / total)
	return percent > lastPercent
}
