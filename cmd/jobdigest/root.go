package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/tz"
)

var (
	cfgPath string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "jobdigest",
	Short: "Aggregate job postings into a filtered local digest",
	Long: "jobdigest fetches postings from several job boards, filters them\n" +
		"against your search profile, stores what is new and emails a digest.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default: JOBDIGEST_DATA or ./data)")
}

// resolveDataDir picks the data directory: flag, then env, then ./data.
func resolveDataDir() (string, error) {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv("JOBDIGEST_DATA")
	}
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// loadConfig bootstraps the data dir, loads .env, reads the YAML config and
// normalizes it. Validation errors are fatal; warnings are just logged.
func loadConfig() (config.Config, *tz.Handler, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return config.Config{}, nil, err
	}

	config.LoadDotenv(dir)

	path := cfgPath
	if path == "" {
		path, err = config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("ensure config: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			log.Printf("[config] error: %s", e)
		}
		return config.Config{}, nil, fmt.Errorf("config %s is invalid", path)
	}

	if cfg.App.DataDir == "" {
		cfg.App.DataDir = dir
	}
	return cfg, tz.New(cfg.App.Timezone), nil
}
