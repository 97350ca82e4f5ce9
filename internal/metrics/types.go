package metrics

import "time"

// Sample is one poll-tick snapshot of the monitored process.
type Sample struct {
	Time       time.Time `json:"time"`
	CpuPct     float64   `json:"cpu_pct"` // normalized by logical core count
	MemBytes   uint64    `json:"mem_bytes"`
	Threads    int32     `json:"threads"`
	ReadBytes  uint64    `json:"read_bytes"`  // cumulative
	WriteBytes uint64    `json:"write_bytes"` // cumulative
}

// Stat holds the peak and arithmetic mean of one metric.
type Stat struct {
	Peak float64 `json:"peak"`
	Mean float64 `json:"mean"`
}

type Summary struct {
	Elapsed    time.Duration `json:"elapsed"`
	Samples    int           `json:"samples"`
	CpuPct     Stat          `json:"cpu_pct"`
	MemBytes   Stat          `json:"mem_bytes"`
	Threads    Stat          `json:"threads"`
	ReadBytes  Stat          `json:"read_bytes"`
	WriteBytes Stat          `json:"write_bytes"`
}
