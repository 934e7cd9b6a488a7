package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	FileName   = "config.yml"
	DataDirEnv = "JOBAPPLY_DATA_DIR"
)

// DataDir resolves the engine data dir: the env override, then the user
// config dir, then the working directory.
func DataDir() string {
	if d := os.Getenv(DataDirEnv); d != "" {
		return d
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "jobapply")
	}
	return "."
}

// EnsureUserConfig returns the path of the config file in dataDir, writing
// the defaults there first if it does not exist yet.
func EnsureUserConfig(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, FileName)

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	cfg := Default()
	cfg.App.DataDir = dataDir
	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", err
	}
	return userPath, nil
}
