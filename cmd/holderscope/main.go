package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"holderScope/internal/chain"
	"holderScope/internal/config"
	"holderScope/internal/pipeline"
	"holderScope/internal/report"
	"holderScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "holderscope",
		Short:        "Staking contract top-holders scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan configured contracts and write ranked holder reports",
		RunE:  runScan,
	}

	scanCmd.Flags().String("eth-rpc", "", "ethereum RPC URL")
	scanCmd.Flags().String("bsc-rpc", "", "BSC RPC URL")
	scanCmd.Flags().String("contracts", "./contracts_info.json", "contracts descriptor file")
	scanCmd.Flags().String("out-dir", ".", "report output directory")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for holder snapshots")
	scanCmd.Flags().Bool("chart", false, "also render a top-N share chart PNG")
	scanCmd.Flags().Int("chart-top", 20, "number of holders on the chart")
	scanCmd.Flags().IntP("verbose", "v", 1, "verbosity (0, 1, 2)")
	scanCmd.Flags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Level())
	if err != nil {
		return err
	}
	defer logger.Sync()

	contracts, err := config.LoadContracts(cfg.Contracts)
	if err != nil {
		return err
	}
	if len(contracts) == 0 {
		return fmt.Errorf("contracts file %s holds no entries", cfg.Contracts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := chain.NewResolver(cfg.Endpoints())
	defer resolver.Close()

	sinks := []report.Sink{report.NewCSVWriter(cfg.OutDir)}
	if cfg.Chart {
		sinks = append(sinks, report.NewChartWriter(cfg.OutDir, cfg.ChartTop))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	logger.Info("scan start",
		zap.String("contracts", cfg.Contracts),
		zap.Int("entries", len(contracts)),
		zap.String("out_dir", cfg.OutDir),
		zap.Bool("chart", cfg.Chart),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	runner := pipeline.NewRunner(resolver, sinks, logger)
	return runner.Run(ctx, contracts)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
