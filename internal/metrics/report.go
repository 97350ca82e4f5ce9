package metrics

import (
	"fmt"
	"io"
	"math"
	"strings"
)

var byteUnits = []string{"bytes", "KB", "MB", "GB", "TB"}

const separator = "-----------------------------------------------------------------------------"

// FormatBytes renders n with a 1024-based unit, escalating up to TB.
func FormatBytes(n float64) string {
	unit := 0
	for n >= 1024 && unit < len(byteUnits)-1 {
		n /= 1024
		unit++
	}
	return fmt.Sprintf("%3.2f %s", n, byteUnits[unit])
}

// WriteReport renders the summary as the human readable end-of-run report.
func WriteReport(w io.Writer, s Summary) error {
	var buf strings.Builder
	buf.WriteString("\n\n\n")
	fmt.Fprintf(&buf, "Execution time: %.3fs (Samples: %d)\n", s.Elapsed.Seconds(), s.Samples)
	fmt.Fprintf(&buf, "Peak CPU Use: %.2f%% | Avg CPU Use: %.2f%%\n", s.CpuPct.Peak, s.CpuPct.Mean)
	fmt.Fprintf(&buf, "Peak RAM Use: %s | Avg RAM Use: %s\n", FormatBytes(s.MemBytes.Peak), FormatBytes(math.Floor(s.MemBytes.Mean)))
	fmt.Fprintf(&buf, "Peak Threads: %d | Avg Threads: %d\n", int64(s.Threads.Peak), int64(math.Floor(s.Threads.Mean)))
	fmt.Fprintf(&buf, "Peak IO Read: %s | Avg IO Read: %s\n", FormatBytes(s.ReadBytes.Peak), FormatBytes(math.Floor(s.ReadBytes.Mean)))
	fmt.Fprintf(&buf, "Peak IO Write: %s | Avg IO Write: %s\n", FormatBytes(s.WriteBytes.Peak), FormatBytes(math.Floor(s.WriteBytes.Mean)))
	buf.WriteString(separator)
	buf.WriteString("\n\n\n")

	_, err := io.WriteString(w, buf.String())
	return err
}
