package runtimeinit

import (
	"fmt"
	"io"
	"log"

	"sleek/src/clipboard"
	"sleek/src/config"
)

type Options struct {
	LoadOptions   config.LoadOptions
	SetupLogging  func(bool) io.Closer
	InitClipboard func() error
}

// Runtime is what Bootstrap prepared. Close releases the log file.
type Runtime struct {
	Config *config.Config
	logs   io.Closer
}

func (r *Runtime) Close() error {
	if r == nil || r.logs == nil {
		return nil
	}
	return r.logs.Close()
}

// Bootstrap loads configuration, routes logging and initializes the
// clipboard when the saved path should be copied.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := &Runtime{Config: cfg}
	if opts.SetupLogging != nil {
		rt.logs = opts.SetupLogging(cfg.EnableFileLogging)
	}
	if cfg.EnvPath != "" {
		log.Printf("Loaded configuration from %s", cfg.EnvPath)
	}

	if cfg.CopyPathToClipboard {
		initClipboard := opts.InitClipboard
		if initClipboard == nil {
			initClipboard = clipboard.Init
		}
		if err := initClipboard(); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		log.Printf("Clipboard initialized")
	}

	return rt, nil
}
