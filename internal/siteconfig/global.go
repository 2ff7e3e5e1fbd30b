// SPDX-License-Identifier: MPL-2.0

package siteconfig

import (
	"errors"
	"os"
	"sync"
)

var (
	mu sync.Mutex

	// cached holds the process-wide site configuration after the first Load.
	// The config is immutable after load; only the cache bookkeeping needs
	// the mutex.
	cached    *Config
	cachedErr error
	loaded    bool

	// pathOverride bypasses the environment variable. Tests use this to
	// point Load at a fixture without touching the process environment.
	pathOverride string
)

// Load returns the process-wide site configuration, reading it on first call
// and serving the cached result afterwards. An unset CLIP_CONF or a missing
// file yields the zero Config with no error.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if loaded {
		return cached, cachedErr
	}

	cached, cachedErr = loadOnce()
	loaded = true
	return cached, cachedErr
}

func loadOnce() (*Config, error) {
	path := pathOverride
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" || !fileExists(path) {
		return &Config{}, nil
	}

	cfg, err := loadFrom(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, wrapLoadError(loadErr)
		}
		return nil, err
	}
	return cfg, nil
}

// SetPathOverride sets a custom site configuration path, bypassing CLIP_CONF.
// Intended for tests; call Reset afterwards.
func SetPathOverride(path string) {
	mu.Lock()
	defer mu.Unlock()
	pathOverride = path
}

// Reset clears the cache and any test override so the next Load re-reads the
// environment. Call from test cleanup.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = nil
	cachedErr = nil
	loaded = false
	pathOverride = ""
}
