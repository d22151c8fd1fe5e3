package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"habitat/internal/bootstrap"
	mstore "habitat/internal/membership/store"
	"habitat/internal/platform/config"
	"habitat/internal/platform/postgres"
)

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire pending requests whose voting window has closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := bootstrap.Open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := bootstrap.Governance(a.cfg, b, a.log, prometheus.NewRegistry()).SweepExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d request(s)\n", n)
			return nil
		},
	}
}

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Retry membership commits for approved requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := bootstrap.Open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := bootstrap.Governance(a.cfg, b, a.log, prometheus.NewRegistry()).ReconcileCommits(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "committed %d request(s)\n", n)
			return nil
		},
	}
}

func newPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List approved requests still waiting on their membership write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := bootstrap.Open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			views, err := bootstrap.Governance(a.cfg, b, a.log, prometheus.NewRegistry()).ListPendingCommits(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSOCIETY\tATTEMPTS\tESCALATED\tLAST ERROR")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
					v.ID, v.Type, v.Society.Name, v.CommitAttempts, v.Escalated, v.LastCommitError)
			}
			return w.Flush()
		},
	}
}

var errPostgresOnly = errors.New("command requires STORAGE_BACKEND=postgres")

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Server.StorageBackend != config.BackendPostgres {
				return errPostgresOnly
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load societies, residents and providers from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Server.StorageBackend != config.BackendPostgres {
				return errPostgresOnly
			}
			ctx := cmd.Context()
			b, err := bootstrap.Open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			stats, err := mstore.SeedFromFile(ctx, b.Members, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d societies, %d residents, %d providers\n",
				stats.Societies, stats.Residents, stats.Providers)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
