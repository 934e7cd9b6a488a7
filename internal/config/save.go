package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const backupSuffix = ".bak"

// SaveAtomic writes cfg as YAML to path through a synced temp file in the
// same directory. An existing file is kept as path.bak. cfg is written as
// given; Holder.Save is the validating entry point.
func SaveAtomic(path string, cfg Config) error {
	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("config temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after the final rename

	if _, err := f.Write(body); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		bak := path + backupSuffix
		_ = os.Remove(bak)
		if err := os.Rename(path, bak); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}
	return os.Rename(tmp, path)
}
