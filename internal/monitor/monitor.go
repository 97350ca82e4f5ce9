package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/jeffypooo/proctop/internal/metrics"
)

// ErrMetricUnavailable is returned when a metric cannot be read while the
// child is still alive, i.e. the platform does not provide it.
var ErrMetricUnavailable = errors.New("metric unavailable")

type Params struct {
	Interval time.Duration
	Program  string
	Args     []string

	// Optional stdio overrides; the caller's stdio is used when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *log.Logger
}

// Source is anything that can be sampled for process metrics.
type Source interface {
	Sample(ctx context.Context) (metrics.Sample, error)
	Running(ctx context.Context) bool
}

type Result struct {
	Summary  metrics.Summary
	ExitCode int
}

// Run spawns the program, samples it every params.Interval until it exits and
// returns the summary together with the child's exit code.
func Run(ctx context.Context, params Params) (Result, error) {
	if params.Interval <= 0 {
		return Result{}, fmt.Errorf("invalid sample interval %v", params.Interval)
	}
	logger := params.Logger
	if logger == nil {
		logger = quietLogger()
	}

	h, err := Spawn(params)
	if err != nil {
		return Result{}, err
	}
	logger.Infof("started %s (pid %d), sampling every %v", params.Program, h.Pid(), params.Interval)

	var samples []metrics.Sample
	collector, err := metrics.NewProcessCollector(ctx, h.Pid())
	switch {
	case err == nil:
		samples, err = Poll(ctx, collector, h.Done(), params.Interval, logger)
		if err != nil {
			h.Kill()
			return Result{}, err
		}
	case h.Exited() || errors.Is(err, process.ErrorProcessNotRunning):
		logger.Infof("process %d exited before it could be sampled", h.Pid())
	default:
		h.Kill()
		return Result{}, err
	}
	end := time.Now()

	if err := h.Wait(); err != nil {
		return Result{}, fmt.Errorf("error waiting for %q: %w", params.Program, err)
	}
	logger.Infof("process %d exited with code %d after %d samples", h.Pid(), h.ExitCode(), len(samples))

	summary, err := metrics.Summarize(samples, end.Sub(h.Started()))
	if err != nil {
		return Result{}, fmt.Errorf("error summarizing samples: %w", err)
	}
	return Result{
		Summary:  summary,
		ExitCode: h.ExitCode(),
	}, nil
}

// Poll samples src until done is closed. A read failure ends sampling
// cleanly when the process is gone; if the process is still running the
// failure is reported as ErrMetricUnavailable.
func Poll(ctx context.Context, src Source, done <-chan struct{}, interval time.Duration, logger *log.Logger) ([]metrics.Sample, error) {
	if logger == nil {
		logger = quietLogger()
	}
	var samples []metrics.Sample
	for {
		select {
		case <-done:
			return samples, nil
		case <-ctx.Done():
			return samples, ctx.Err()
		default:
		}

		s, err := src.Sample(ctx)
		if err != nil {
			if isClosed(done) || !src.Running(ctx) {
				logger.Infof("stopped sampling, process exited: %v", err)
				return samples, nil
			}
			return samples, fmt.Errorf("%w: %w", ErrMetricUnavailable, err)
		}
		samples = append(samples, s)
		logger.Debugf("sample %d: cpu=%.2f%% mem=%d threads=%d read=%d write=%d",
			len(samples), s.CpuPct, s.MemBytes, s.Threads, s.ReadBytes, s.WriteBytes)

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-done:
			timer.Stop()
			return samples, nil
		case <-ctx.Done():
			timer.Stop()
			return samples, ctx.Err()
		}
	}
}

func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func quietLogger() *log.Logger {
	l := log.New("monitor")
	l.SetOutput(os.Stderr)
	l.SetLevel(log.OFF)
	return l
}
