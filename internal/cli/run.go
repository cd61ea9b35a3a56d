package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/notify"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
	"github.com/ops-tools/tcmonitor/internal/providers/tencent"
	"github.com/ops-tools/tcmonitor/internal/repository/postgres"
	"github.com/ops-tools/tcmonitor/internal/runner"
)

func newRunCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one monitoring pass over all configured accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				mode = viper.GetString("mode")
			}
			return runOnce(cmd, runner.Mode(mode))
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "all", "which halves of the run execute: all, resources or billing")
	_ = viper.BindPFlag("mode", cmd.Flags().Lookup("mode"))

	return cmd
}

func runOnce(cmd *cobra.Command, mode runner.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid --mode %q: want all, resources or billing", mode)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if cfg.Metrics.Addr != "" {
		metrics.Serve(cfg.Metrics.Addr)
		log.Infof("Serving metrics on %s", cfg.Metrics.Addr)
	}

	var opts []runner.Option
	if cfg.WeCom.Enabled {
		opts = append(opts, runner.WithWeCom(notify.NewWeCom(cfg.WeCom.Bots, log)))
	}
	if cfg.YunZhiJia.Enabled {
		opts = append(opts, runner.WithYunZhiJia(notify.NewYunZhiJia(cfg.YunZhiJia.Bots, log)))
	}
	if cfg.Email.Enabled {
		opts = append(opts, runner.WithEmail(notify.NewEmail(cfg.Email, log)))
	}
	if cfg.Database.Enabled {
		store, err := postgres.Open(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		opts = append(opts, runner.WithStore(store))
	}

	factory := func(acc config.Account) ([]resource.Collector, []resource.GlobalCollector, billing.Source) {
		return tencent.CollectorsFor(acc, cfg.Regions.Billing, log)
	}

	r := runner.New(cfg, factory, log, opts...)
	return r.Run(cmd.Context(), mode)
}
