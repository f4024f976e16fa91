package config

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnsureUserConfig copies the shipped default config into the data dir on
// first run so the user edits their own copy, never the packaged one.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// LoadDotenv loads a .env file next to the data dir if one exists.
// Credentials come from the environment, never from the YAML config.
func LoadDotenv(dataDir string) {
	path := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[config] could not load %s: %v", path, err)
		return
	}
	log.Printf("[config] loaded environment from %s", path)
}
