package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/collector"
	"github.com/costlens/costlens/pkg/config"
	"github.com/costlens/costlens/pkg/engine"
	"github.com/costlens/costlens/pkg/store"
)

const CurrentVersion = "0.3.0"

// mockSeed keeps mock-mode runs reproducible across restarts.
const mockSeed = 20250601

var rootCmd = &cobra.Command{
	Use:     "costlens",
	Short:   "Cloud cost optimization engine",
	Long:    "CostLens scans tenant AWS accounts for waste and keeps a recommendation inventory up to date.",
	Version: CurrentVersion,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// buildStore picks Postgres when a DSN is configured, the in-memory store
// otherwise. Running without a DSN outside mock mode loses data on restart,
// so it is logged loudly.
func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		return store.Open(cfg.DatabaseURL)
	}
	if !cfg.MockMode {
		log.Warn("no DATABASE_URL configured, using volatile in-memory storage")
	}
	return store.NewMemory(), nil
}

// buildEngine wires the cloud client and collector factories. Mock mode runs
// entirely against seeded in-memory fixtures.
func buildEngine(cfg config.Config, st store.Store, log *slog.Logger) *engine.Engine {
	var (
		clients    cloud.Factory
		collectors engine.CollectorFactory
	)
	if cfg.MockMode {
		clients = cloud.MockFactory(mockSeed)
		collectors = func(ctx context.Context, ws cloud.Workspace) ([]collector.Collector, error) {
			return collector.NewMockCollectors(cloud.NewMock(mockSeed)), nil
		}
	} else {
		clients = cloud.LiveFactory(cfg.Region)
		collectors = func(ctx context.Context, ws cloud.Workspace) ([]collector.Collector, error) {
			region := ws.Region
			if region == "" {
				region = cfg.Region
			}
			awsCfg, err := cloud.AssumeRoleConfig(ctx, region, ws.RoleArn)
			if err != nil {
				return nil, err
			}
			return collector.NewAWSCollectors(awsCfg), nil
		}
	}
	return engine.New(st, clients, collectors, log)
}
