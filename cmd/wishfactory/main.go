package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wishfactory/wishfactory/internal/profile"
	"github.com/wishfactory/wishfactory/internal/observability"
	similarityrunner "github.com/wishfactory/wishfactory/server/runner/similarity"
	similaritysvc "github.com/wishfactory/wishfactory/server/service/similarity"
	"github.com/wishfactory/wishfactory/store"
	"github.com/wishfactory/wishfactory/store/db"
)

const version = "0.4.0"

var rootCmd = &cobra.Command{
	Use:   "wishfactory",
	Short: "Similarity backend for the Wish Factory greeting-card library",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:                viper.GetString("mode"),
			Data:                viper.GetString("data"),
			Driver:              viper.GetString("driver"),
			DSN:                 viper.GetString("dsn"),
			MaintenanceInterval: viper.GetDuration("maintenance-interval"),
			Version:             version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("failed to validate profile: %w", err)
		}
		slog.SetDefault(observability.NewLogger(instanceProfile.Mode))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		defer storeInstance.Close()

		config := similaritysvc.ConfigFromProfile(instanceProfile)
		precompute := similaritysvc.NewPrecomputeService(storeInstance, config)
		runner := similarityrunner.NewRunner(precompute, instanceProfile.MaintenanceInterval, config.StaleAge)

		slog.Info("wishfactory similarity backend started",
			"version", version,
			"mode", instanceProfile.Mode,
			"driver", instanceProfile.Driver)

		go runner.Run(ctx)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().Duration("maintenance-interval", 0, "interval between similarity maintenance passes")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("wishfactory")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run command", "error", err)
		os.Exit(1)
	}
}
