package metrics

import (
	"errors"
	"time"

	"github.com/montanaflynn/stats"
)

// Summarize computes peak and mean for every metric of the series. An empty
// series yields a zero-valued Summary carrying only the elapsed time.
func Summarize(samples []Sample, elapsed time.Duration) (Summary, error) {
	if elapsed < 0 {
		elapsed = 0
	}
	summary := Summary{
		Elapsed: elapsed,
		Samples: len(samples),
	}

	cpuPct := make(stats.Float64Data, 0, len(samples))
	memBytes := make(stats.Float64Data, 0, len(samples))
	threads := make(stats.Float64Data, 0, len(samples))
	readBytes := make(stats.Float64Data, 0, len(samples))
	writeBytes := make(stats.Float64Data, 0, len(samples))
	for _, s := range samples {
		cpuPct = append(cpuPct, s.CpuPct)
		memBytes = append(memBytes, float64(s.MemBytes))
		threads = append(threads, float64(s.Threads))
		readBytes = append(readBytes, float64(s.ReadBytes))
		writeBytes = append(writeBytes, float64(s.WriteBytes))
	}

	var err error
	if summary.CpuPct, err = stat(cpuPct); err != nil {
		return Summary{}, err
	}
	if summary.MemBytes, err = stat(memBytes); err != nil {
		return Summary{}, err
	}
	if summary.Threads, err = stat(threads); err != nil {
		return Summary{}, err
	}
	if summary.ReadBytes, err = stat(readBytes); err != nil {
		return Summary{}, err
	}
	if summary.WriteBytes, err = stat(writeBytes); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func stat(data stats.Float64Data) (Stat, error) {
	peak, err := stats.Max(data)
	if errors.Is(err, stats.ErrEmptyInput) {
		return Stat{}, nil
	}
	if err != nil {
		return Stat{}, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return Stat{}, err
	}
	return Stat{Peak: peak, Mean: mean}, nil
}
