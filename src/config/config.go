package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ConfigPathEnvVar      = "SLEEK_CONFIG"
	OutputPatternEnvVar   = "SLEEK_OUTPUT"
	FileLoggingEnvVar     = "ENABLE_FILE_LOGGING"
	CopyToClipboardEnvVar = "COPY_PATH_TO_CLIPBOARD"
	ClipboardHoldEnvVar   = "CLIPBOARD_HOLD_SEC"

	// DefaultClipboardHoldSec is how long the process keeps serving the
	// copied path when no clipboard manager takes it over.
	DefaultClipboardHoldSec = 30
)

type LoadOptions struct {
	// EnvPathOverride names a .env file to use instead of the usual lookup.
	EnvPathOverride string
}

type Config struct {
	EnvPath             string
	EnableFileLogging   bool
	OutputPattern       string
	CopyPathToClipboard bool
	ClipboardHold       time.Duration
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) explicit override
	// 2) .env in the executable directory
	// 3) the file named by SLEEK_CONFIG
	// Values already present in the environment always win over the file.
	envPath := strings.TrimSpace(opts.EnvPathOverride)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		EnvPath:             envPath,
		EnableFileLogging:   envBool(FileLoggingEnvVar),
		OutputPattern:       strings.TrimSpace(os.Getenv(OutputPatternEnvVar)),
		CopyPathToClipboard: envBool(CopyToClipboardEnvVar),
		ClipboardHold:       time.Duration(clipboardHoldSec()) * time.Second,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// clipboardHoldSec reads CLIPBOARD_HOLD_SEC. Zero disables the hold; invalid
// values fall back to the default.
func clipboardHoldSec() int {
	if v := strings.TrimSpace(os.Getenv(ClipboardHoldEnvVar)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return DefaultClipboardHoldSec
}

func envBool(key string) bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv(key))) == "true"
}
