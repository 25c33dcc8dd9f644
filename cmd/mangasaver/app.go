package main

import (
	"fmt"

	"mangasaver/pkg/config"
	"mangasaver/pkg/logger"
	"mangasaver/pkg/mediastore"
	"mangasaver/pkg/platform"
	"mangasaver/pkg/saver"
)

// app bundles the components a command needs
type app struct {
	cfg     *config.Config
	log     logger.Logger
	desktop *platform.Desktop
	store   *mediastore.Store
	saver   *saver.Saver
}

// commandLineFlags collects the global flags that override configuration
func commandLineFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if apiLevel > 0 {
		flags["api-level"] = apiLevel
	}
	return flags
}

func newApp() (*app, error) {
	cfg, err := config.Load(configFile, commandLineFlags())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	d, err := platform.NewDesktop(cfg)
	if err != nil {
		return nil, err
	}

	store, err := mediastore.Open(d.VolumeRoot(), d.IndexFile(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open media index: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"version":         version,
		"api_level":       d.APILevel(),
		"scoped_storage":  d.SupportsScopedStorage(),
		"cache_dir":       d.CacheImageDir(),
		"public_pictures": d.PublicPicturesDir(),
	}).Debug("Mangasaver starting")

	return &app{
		cfg:     cfg,
		log:     log,
		desktop: d,
		store:   store,
		saver:   saver.New(d, store, store, log),
	}, nil
}
