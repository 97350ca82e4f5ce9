package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/labstack/gommon/log"

	"github.com/jeffypooo/proctop/internal/config"
	"github.com/jeffypooo/proctop/internal/metrics"
	"github.com/jeffypooo/proctop/internal/monitor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, config.ErrUsage) {
			fmt.Fprintln(os.Stderr, config.Usage)
		}
		return 1
	}

	// stdout belongs to the child and the final report
	log.SetOutput(os.Stderr)
	log.SetHeader("${time_rfc3339} ${level}")
	log.SetLevel(cfg.LogLevel)

	logger := log.New("proctop")
	logger.SetOutput(os.Stderr)
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	logger.SetLevel(cfg.LogLevel)

	result, err := monitor.Run(context.Background(), monitor.Params{
		Interval: cfg.Interval,
		Program:  cfg.Program,
		Args:     cfg.Args,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Error monitoring %s: %v", cfg.Program, err)
	}

	if err := metrics.WriteReport(os.Stdout, result.Summary); err != nil {
		log.Fatalf("Error writing report: %v", err)
	}
	return result.ExitCode
}
