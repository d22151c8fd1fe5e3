// Command govctl runs governance maintenance against the configured
// backends: sweeps, commit reconciliation, migrations, seeding and token
// issuance. It reads the same environment as the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"habitat/internal/platform/config"
	"habitat/internal/platform/logger"
)

type app struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "govctl",
		Short:         "Operate the society governance engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
			return nil
		},
	}
	root.AddCommand(
		newSweepCmd(a),
		newReconcileCmd(a),
		newPendingCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newTokenCmd(a),
	)
	return root
}
