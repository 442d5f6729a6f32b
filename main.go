package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facette/natsort"

	"github.com/wildstyl3r/sfi/internal/config"
	"github.com/wildstyl3r/sfi/internal/model"
	"github.com/wildstyl3r/sfi/internal/persistence"
	"github.com/wildstyl3r/sfi/internal/utils"
)

var logLevels = map[string]slog.Level{
	"":      slog.LevelInfo,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	dataFlags := model.NewDataFlags(flag.CommandLine)
	configFileName := flag.String("input", "sfi", "model configuration in toml format")
	verbose := flag.Bool("v", false, "log debug records")
	list := flag.Bool("list", false, "print the runs stored in the database and exit")
	flag.Parse()

	startTime := time.Now()
	fmt.Printf("Current time: %s\n", startTime.UTC().Format(time.UnixDate))

	cfg, meta, err := config.LoadConfig(*configFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, known := logLevels[strings.ToLower(cfg.LogLevel)]
	if !known {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", cfg.LogLevel)
		os.Exit(1)
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := utils.NewFileLogger(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	var db *persistence.DB
	if cfg.Database != "" {
		if db, err = persistence.Open(cfg.Database); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer db.Close()
	}
	if *list {
		if db == nil {
			fmt.Fprintln(os.Stderr, "-list needs Database in the configuration")
			os.Exit(1)
		}
		if err := db.Report(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	dataFlags.SetOutputPath(cfg.OutputDir)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	modelNames := make([]string, 0, len(cfg.Models))
	for name := range cfg.Models {
		modelNames = append(modelNames, name)
	}
	sort.Slice(modelNames, func(i, j int) bool { return natsort.Compare(modelNames[i], modelNames[j]) })

	for _, modelName := range modelNames {
		fmt.Println("\n" + modelName)
		parameters := cfg.Models[modelName]
		if err := parameters.CheckAndUnify(modelName, &cfg, &meta); err != nil {
			fmt.Printf("unable to load config: %v\n", err)
			continue
		}
		if err := run(ctx, modelName, parameters, cfg.FormulaDir, dataFlags, db, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	fmt.Printf("Elapsed time: %v\n", time.Since(startTime).Round(time.Millisecond))
}

func run(ctx context.Context, name string, parameters config.ModelParameters, formulaDir string, df model.DataFlags, db *persistence.DB, logger *slog.Logger) error {
	m, err := model.NewModel(name, parameters, formulaDir, logger)
	if err != nil {
		return fmt.Errorf("model %s: %w", name, err)
	}
	delays := parameters.Delays()
	fmt.Printf("Seeds per point: %s, points: %s\n", humanize.Comma(int64(m.GridSize())), humanize.Comma(int64(len(delays))))

	fmt.Printf("\rDone:[0/%d]", len(delays))
	points, err := m.Sweep(ctx, func(done, total int) {
		fmt.Printf("\rDone:[%d/%d]", done, total)
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("model %s: %w", name, err)
	}

	if err := model.NewDataExtractor(m, points).Save(df); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	if db != nil {
		runID, err := db.StartRun(name, parameters)
		if err != nil {
			return err
		}
		stored := make([]persistence.Point, len(points))
		for i, p := range points {
			stored[i] = persistence.NewPoint(p.Delay, p.Value, len(p.Solutions))
		}
		if err := db.SavePoints(runID, stored); err != nil {
			return err
		}
		fmt.Printf("Stored %s points as run %s\n", humanize.Comma(int64(len(stored))), runID)
	}
	return nil
}
