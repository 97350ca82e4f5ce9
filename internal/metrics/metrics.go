package metrics

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessCollector reads resource metrics for a single process.
type ProcessCollector struct {
	mu       sync.Mutex
	proc     *process.Process
	numCores int
}

// NewProcessCollector attaches to the process with the given pid.
func NewProcessCollector(ctx context.Context, pid int32) (*ProcessCollector, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("error attaching to process %d: %w", pid, err)
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}
	return &ProcessCollector{
		proc:     p,
		numCores: cores,
	}, nil
}

func (pc *ProcessCollector) Pid() int32 {
	return pc.proc.Pid
}

// Sample reads the current metrics. The first call only establishes the CPU
// baseline and reports 0% CPU.
func (pc *ProcessCollector) Sample(ctx context.Context) (Sample, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := time.Now()

	// Percent(0) measures since the previous call
	cpuPct, err := pc.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return Sample{}, fmt.Errorf("error getting CPU usage: %w", err)
	}

	memInfo, err := pc.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("error getting memory usage: %w", err)
	}

	threads, err := pc.proc.NumThreadsWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("error getting thread count: %w", err)
	}

	ioStats, err := pc.proc.IOCountersWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("error getting IO counters: %w", err)
	}

	readBytes, writeBytes := ioBytes(ioStats, runtime.GOOS)
	return Sample{
		Time:       now,
		CpuPct:     cpuPct / float64(pc.numCores),
		MemBytes:   memInfo.RSS,
		Threads:    threads,
		ReadBytes:  readBytes,
		WriteBytes: writeBytes,
	}, nil
}

// ioBytes picks storage-level byte counters. On linux ReadBytes/WriteBytes
// are rchar/wchar, which include pipes, ttys and character devices; the
// Disk* fields hold read_bytes/write_bytes. Platforms that never fill the
// Disk* fields fall back to ReadBytes/WriteBytes.
func ioBytes(s *process.IOCountersStat, goos string) (read, write uint64) {
	if goos == "linux" || s.DiskReadBytes != 0 || s.DiskWriteBytes != 0 {
		return s.DiskReadBytes, s.DiskWriteBytes
	}
	return s.ReadBytes, s.WriteBytes
}

// Running reports whether the process is still alive. Zombies (exited but
// not yet reaped) count as gone.
func (pc *ProcessCollector) Running(ctx context.Context) bool {
	running, err := pc.proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	status, err := pc.proc.StatusWithContext(ctx)
	if err != nil {
		return !errors.Is(err, process.ErrorProcessNotRunning)
	}
	return !slices.Contains(status, process.Zombie)
}
