package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

const (
	LogLevelEnv     = "PROCTOP_LOG_LEVEL"
	defaultLogLevel = log.WARN
)

var ErrUsage = errors.New("usage error")

const Usage = "usage: proctop <sample_rate_seconds> <program> [args...]"

// Config holds everything needed for a single monitored run.
type Config struct {
	Interval time.Duration
	Program  string
	Args     []string
	LogLevel log.Lvl
}

// Parse builds a Config from the command line (without the tool name) and the
// environment. Everything after the program is passed through untouched.
func Parse(args []string, getenv func(string) string) (Config, error) {
	if len(args) < 2 {
		return Config{}, fmt.Errorf("%w: expected a sample rate and a program", ErrUsage)
	}

	interval, err := ParseInterval(args[0])
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid sample rate %q: %v", ErrUsage, args[0], err)
	}

	level := defaultLogLevel
	if getenv != nil {
		if v := getenv(LogLevelEnv); v != "" {
			level, err = parseLogLevel(v)
			if err != nil {
				return Config{}, fmt.Errorf("%w: invalid %s: %v", ErrUsage, LogLevelEnv, err)
			}
		}
	}

	return Config{
		Interval: interval,
		Program:  args[1],
		Args:     append([]string{}, args[2:]...),
		LogLevel: level,
	}, nil
}

// ParseInterval accepts plain seconds ("0.5") as well as "ms" and "s"
// suffixed values. The result must be positive.
func ParseInterval(s string) (time.Duration, error) {
	unit := time.Second
	switch {
	case strings.HasSuffix(s, "ms"):
		s, unit = strings.TrimSuffix(s, "ms"), time.Millisecond
	case strings.HasSuffix(s, "s"):
		s = strings.TrimSuffix(s, "s")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("interval must be finite")
	}
	if v <= 0 {
		return 0, fmt.Errorf("interval must be greater than zero")
	}
	ns := v * float64(unit)
	if ns >= math.MaxInt64 {
		return 0, fmt.Errorf("interval too large")
	}
	if ns < 1 {
		return 0, fmt.Errorf("interval below 1ns")
	}
	return time.Duration(ns), nil
}

func parseLogLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
