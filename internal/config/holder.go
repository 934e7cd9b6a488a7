package config

import "sync/atomic"

// Holder keeps the live config for concurrent readers and swaps it whole on
// reload or save.
type Holder struct {
	path string
	v    atomic.Value // stores Config
}

func NewHolder(path string, cfg Config) *Holder {
	h := &Holder{path: path}
	h.v.Store(cfg)
	return h
}

func (h *Holder) Path() string { return h.path }

func (h *Holder) Get() Config { return h.v.Load().(Config) }

// Reload re-reads the file. On error the current config stays in place.
func (h *Holder) Reload() (Config, error) {
	cfg, err := Load(h.path)
	if err != nil {
		return h.Get(), err
	}
	h.v.Store(cfg)
	return cfg, nil
}

// Save validates and writes cfg, then makes it current.
func (h *Holder) Save(cfg Config) (Config, error) {
	out, res := NormalizeAndValidate(cfg)
	if err := res.Err(); err != nil {
		return h.Get(), err
	}
	if err := SaveAtomic(h.path, out); err != nil {
		return h.Get(), err
	}
	h.v.Store(out)
	return out, nil
}
