package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/notify"
	"jobdigest-engine/internal/pipeline"
	"jobdigest-engine/internal/tz"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one fetch-filter-store-notify cycle and exit",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, tzh, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, tzh, buildDigester(cfg, tzh))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: fetched=%d kept=%d new=%d existing=%d inserted=%d updated=%d failed=%d purged=%d\n",
		s.RunID, s.Fetched, s.Filtered, s.New, s.Existing, s.Inserted, s.Updated, s.Failed, s.Purged)
	return nil
}

// buildDigester wires the notifier, or nil when the digest is disabled or
// SMTP credentials are unavailable.
func buildDigester(cfg config.Config, tzh *tz.Handler) pipeline.Digester {
	if !cfg.Digest.Enabled {
		return nil
	}
	creds, err := config.LoadSMTPCredentials()
	if err != nil {
		fmt.Printf("digest disabled: %v\n", err)
		return nil
	}
	return notify.New(cfg.Digest, creds, tzh)
}
