package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridpulse/app"
	"github.com/kilianp07/gridpulse/config"
)

var cycleRegion string

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single optimization cycle and print the plan",
	RunE:  runCycle,
}

func init() {
	cycleCmd.Flags().StringVarP(&cycleRegion, "region", "r", "", "region ID (defaults to the configured default region)")
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cycleRegion == "" {
		cycleRegion = cfg.API.DefaultRegion
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	result, err := svc.Session().SelectRegion(ctx, cycleRegion)
	if err != nil {
		return fmt.Errorf("cycle for %s: %w", cycleRegion, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
