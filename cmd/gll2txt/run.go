package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gll2txt/internal/archive"
	"gll2txt/internal/batch"
	"gll2txt/internal/completion"
	"gll2txt/internal/diagnostics"
	"gll2txt/internal/ease"
	"gll2txt/internal/layout"
	"gll2txt/internal/speakers"
	"gll2txt/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every GLL file in the configured directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		logger := log.InitLog(log.ParseLevel(cfg.LogLevel))
		defer func() { _ = logger.Sync() }()
		sugar := logger.Sugar()

		report := diagnostics.NewChecker().Run(cfg)
		printReport(report)
		if report.HasFailures {
			return fmt.Errorf("startup checks failed, fix the settings above")
		}

		store, err := speakers.Open(cfg.DatabasePath, sugar)
		if err != nil {
			return fmt.Errorf("open speaker database: %w", err)
		}
		defer func() { _ = store.Close() }()

		lb := layout.New(layout.Normalize(cfg.OutputDirectory))
		grid := layout.NewGrid(cfg.MeridianStep, cfg.ParallelStep)
		oracle := completion.New(lb, grid)
		archiver := archive.New(lb, grid, oracle, sugar)
		port := ease.NewNativePort(sugar)
		driver := ease.NewDriver(port, lb, oracle, archiver, grid, cfg.EaseBinaryPath, sugar)

		bus := batch.NewEventBus(0)
		coordinator := batch.New(store, driver, oracle, bus, sugar)

		// A signal requests a stop at the next job boundary. Interrupting
		// the viewer mid-protocol leaves half-written exports behind, so
		// the job in flight always finishes.
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)
		go func() {
			<-signals
			sugar.Warn("Stop requested, finishing the current job")
			coordinator.Stop()
		}()

		result, err := coordinator.Run(context.Background(), cfg.GLLDirectory)
		if err != nil {
			return err
		}

		sugar.Infof("Processed %d/%d GLL files", result.Completed, result.Total)
		if len(result.MissingMetadata) > 0 {
			fmt.Println("The following GLL files need speaker data before they can run:")
			for _, file := range result.MissingMetadata {
				fmt.Printf("  %s\n", file)
			}
			fmt.Println(`Add it with: gll2txt speakers set <gll-file> <speaker-name>`)
		}
		if !result.OK {
			return fmt.Errorf("batch finished with deferred or stopped jobs")
		}
		return nil
	},
}
