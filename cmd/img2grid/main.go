package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ivlev/img2grid/internal/classifier"
	"github.com/ivlev/img2grid/internal/config"
	"github.com/ivlev/img2grid/internal/engine"
	"github.com/ivlev/img2grid/internal/logger"
	"github.com/ivlev/img2grid/internal/source"
	"github.com/ivlev/img2grid/internal/system"
)

func main() {
	cfg := config.Default(system.DefaultWorkers())

	configPtr := flag.String("config", "", "Path to a YAML config file")
	inputPtr := flag.String("input", "", "Image, directory of images or PDF (default: newest image in input/)")
	outputPtr := flag.String("output", "", "Export path (default: generated in output/)")
	cellsXPtr := flag.Int("cells-x", cfg.CellsX, "Horizontal cell count")
	cellsYPtr := flag.Int("cells-y", cfg.CellsY, "Vertical cell count")
	formatPtr := flag.String("format", cfg.Format, "Export format: csv, txt, yaml, qr")
	workersPtr := flag.Int("workers", cfg.Workers, "Worker goroutines")
	dpiPtr := flag.Int("dpi", cfg.DPI, "Render DPI for PDF pages")
	statsPtr := flag.Bool("stats", false, "Print a report for every grid")
	logLevelPtr := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logJSONPtr := flag.Bool("log-json", false, "Log as JSON")

	flag.Parse()

	if *configPtr != "" {
		if err := config.Load(*configPtr, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(1)
		}
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "output":
			cfg.OutputPath = *outputPtr
		case "cells-x":
			cfg.CellsX = *cellsXPtr
		case "cells-y":
			cfg.CellsY = *cellsYPtr
		case "format":
			cfg.Format = *formatPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		case "log-json":
			cfg.LogJSON = *logJSONPtr
		}
	})

	log := logger.NewConsole(cfg.LogLevel, cfg.LogJSON)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.InputPath == "" {
		if err := os.MkdirAll("input", 0755); err != nil {
			log.Fatal().Err(err).Msg("cannot create input directory")
		}
		latest, err := system.FindLatestImage("input")
		if err != nil {
			log.Fatal().Err(err).Msg("no input given; put an image into input/")
		}
		cfg.InputPath = latest
		log.Info().Str("input", latest).Msg("picked newest image")
	}

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open input")
	}
	defer src.Close()

	// A single page gets the workers for its rows; several pages share them page by page.
	rowWorkers := 1
	if src.PageCount() == 1 {
		rowWorkers = cfg.Workers
	}
	c, err := classifier.NewClassifier(cfg.Classifier, rowWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid classifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewProject(cfg, src, c, logger.Component(log, "engine"))
	reports, err := project.Run(ctx)
	if err != nil {
		src.Close()
		log.Fatal().Err(err).Msg("classification failed")
	}

	fmt.Printf("[+++] Done: %d grid(s) of %dx%d cells\n", len(reports), cfg.CellsX, cfg.CellsY)
}
