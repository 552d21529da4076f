// Package config loads run settings from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"controlledreduction/errs"
	"controlledreduction/hypersurface"
	"controlledreduction/store"
	"controlledreduction/zeta"
)

// Config is the on-disk form of zeta.Options.
type Config struct {
	Growth        float64             `json:"growth"`
	MaxRetries    int                 `json:"max_retries"`
	Regime        hypersurface.Regime `json:"regime"`
	Threads       int                 `json:"threads"`
	CacheDir      string              `json:"cache_dir"`
	PrecisionHint int                 `json:"precision_hint"`
}

// Default mirrors the zero zeta.Options.
func Default() Config {
	return Config{
		Growth:     zeta.DefaultRetry.Growth,
		MaxRetries: zeta.DefaultRetry.MaxRetries,
		Regime:     hypersurface.Auto,
	}
}

// Load reads path over Default. Keys are matched case-insensitively and
// dashes are accepted in place of underscores.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	norm := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		norm[strings.ReplaceAll(strings.ToLower(k), "-", "_")] = v
	}
	data, err = json.Marshal(norm)
	if err != nil {
		return c, err
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("config %s: %w: %w", path, errs.ErrDomain, err)
	}
	return c, c.Validate()
}

// Validate rejects settings Compute would silently replace.
func (c Config) Validate() error {
	switch {
	case c.Growth <= 1:
		return fmt.Errorf("config: growth %g must exceed 1: %w", c.Growth, errs.ErrDomain)
	case c.MaxRetries < 0:
		return fmt.Errorf("config: max_retries %d: %w", c.MaxRetries, errs.ErrDomain)
	case c.Threads < 0:
		return fmt.Errorf("config: threads %d: %w", c.Threads, errs.ErrDomain)
	case c.PrecisionHint < 0:
		return fmt.Errorf("config: precision_hint %d: %w", c.PrecisionHint, errs.ErrDomain)
	}
	return nil
}

// Options converts c, opening the cache directory when one is set.
func (c Config) Options(log *slog.Logger) (zeta.Options, error) {
	if err := c.Validate(); err != nil {
		return zeta.Options{}, err
	}
	opts := zeta.Options{
		PrecisionHint: c.PrecisionHint,
		Retry:         zeta.RetryPolicy{Growth: c.Growth, MaxRetries: c.MaxRetries},
		Regime:        c.Regime,
		Threads:       c.Threads,
		Logger:        log,
	}
	if c.CacheDir != "" {
		st, err := store.Open(c.CacheDir, log)
		if err != nil {
			return zeta.Options{}, err
		}
		opts.Store = st
	}
	return opts, nil
}
