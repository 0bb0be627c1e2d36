// Package humanize formats byte counts for the demo CLI's event printer and
// TUI. Adapted from the teacher's internal/utils.ConvertBytesToHumanReadable:
// same binary-unit table, rewritten to also handle the engine's "total
// unknown" sentinel (-1) that shows up in update events before a Task's
// size is known (spec.md section 4.2, 6).
package humanize

import (
	"fmt"
	"math"
)

// Bytes renders n as a human-readable binary size, or "?" when n is
// negative (the engine's "unknown total" sentinel).
func Bytes(n int64) string {
	if n < 0 {
		return "?"
	}
	if n == 0 {
		return "0 B"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	exp := int(math.Log(float64(n)) / math.Log(unit))
	prefix := "KMGTPE"[exp-1]
	return fmt.Sprintf("%.1f %ciB", float64(n)/math.Pow(unit, float64(exp)), prefix)
}
