package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/export"
	"jobdigest-engine/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of the retained jobs",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default: <data-dir>/export.json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open(filepath.Join(cfg.App.DataDir, "jobs.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	out := exportOut
	if out == "" {
		out = filepath.Join(cfg.App.DataDir, "export.json")
	}

	window := cfg.Retention.KeepDays * 24
	n, err := export.Write(cmd.Context(), db, out, cfg.App.Timezone, window)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d job(s) to %s\n", n, out)
	return nil
}
