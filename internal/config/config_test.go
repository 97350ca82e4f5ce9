package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"go.viam.com/test"

	"github.com/jeffypooo/proctop/internal/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParse(t *testing.T) {
	t.Run("missing program", func(t *testing.T) {
		for _, args := range [][]string{nil, {}, {"0.5"}} {
			_, err := config.Parse(args, env(nil))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, config.ErrUsage), test.ShouldBeTrue)
		}
	})

	t.Run("pass-through args", func(t *testing.T) {
		cfg, err := config.Parse([]string{"0.5", "echo", "hello", "world"}, env(nil))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Interval, test.ShouldEqual, 500*time.Millisecond)
		test.That(t, cfg.Program, test.ShouldEqual, "echo")
		test.That(t, cfg.Args, test.ShouldHaveLength, 2)
		test.That(t, cfg.Args[0], test.ShouldEqual, "hello")
		test.That(t, cfg.Args[1], test.ShouldEqual, "world")
		test.That(t, cfg.LogLevel, test.ShouldEqual, log.WARN)
	})

	t.Run("flag-like args are not interpreted", func(t *testing.T) {
		cfg, err := config.Parse([]string{"1", "ls", "-la", "--help", "--", "-h"}, env(nil))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, strings.Join(cfg.Args, " "), test.ShouldEqual, "-la --help -- -h")
	})

	t.Run("no target args", func(t *testing.T) {
		cfg, err := config.Parse([]string{"2", "true"}, env(nil))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Args, test.ShouldHaveLength, 0)
	})

	t.Run("invalid interval", func(t *testing.T) {
		for _, rate := range []string{"0", "-1", "abc", "NaN", "Inf", "0ms", ""} {
			_, err := config.Parse([]string{rate, "true"}, env(nil))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, config.ErrUsage), test.ShouldBeTrue)
		}
	})

	t.Run("log level", func(t *testing.T) {
		cfg, err := config.Parse([]string{"1", "true"}, env(map[string]string{config.LogLevelEnv: "DEBUG"}))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.LogLevel, test.ShouldEqual, log.DEBUG)

		cfg, err = config.Parse([]string{"1", "true"}, env(map[string]string{config.LogLevelEnv: "off"}))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.LogLevel, test.ShouldEqual, log.OFF)

		_, err = config.Parse([]string{"1", "true"}, env(map[string]string{config.LogLevelEnv: "loud"}))
		test.That(t, errors.Is(err, config.ErrUsage), test.ShouldBeTrue)
	})

	t.Run("nil getenv", func(t *testing.T) {
		cfg, err := config.Parse([]string{"1", "true"}, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.LogLevel, test.ShouldEqual, log.WARN)
	})
}

func TestParseInterval(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Duration
	}{
		{"1", time.Second},
		{"0.25", 250 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"1.5s", 1500 * time.Millisecond},
		{"100ms", 100 * time.Millisecond},
		{"0.5ms", 500 * time.Microsecond},
	} {
		got, err := config.ParseInterval(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, tc.want)
	}
}

func TestParseIntervalOutOfRange(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"1e10", "interval too large"},
		{"1e300", "interval too large"},
		{"1e300ms", "interval too large"},
		{"1e-12", "interval below 1ns"},
		{"0.0000001ms", "interval below 1ns"},
		{"-2", "greater than zero"},
	} {
		_, err := config.ParseInterval(tc.in)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.want)
	}

	// large but representable
	d, err := config.ParseInterval("9e9")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 9_000_000_000*time.Second)
}
