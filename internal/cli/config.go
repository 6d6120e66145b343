package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Artifact string   `json:"artifact"`
	NumDays  int      `json:"num_days,omitempty"`
	Flags    []string `json:"flags,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	ArtifactAbs  string `json:"-"` // Absolute path to the artifact file

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Artifact: ".testa.bin",
		NumDays:  60,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".testa.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errArtifactEmpty      = errors.New("artifact path cannot be empty")
	errNumDaysInvalid     = errors.New("num_days must be at least 1")
)

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/testa/config.json if set, otherwise
// ~/.config/testa/config.json. Empty when no home is known.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "testa", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "testa", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	ArtifactOverride string            // --artifact flag value; empty means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file at default location (.testa.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty); when given, it is
// read instead of the default project config file, not on top of it
// 5. CLI overrides.
//
// EffectiveCwd and ArtifactAbs in the returned Config are absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
		}

		workDir = abs
	}

	cfg := DefaultConfig()
	cfg.EffectiveCwd = workDir

	if globalPath := getGlobalConfigPath(input.Env); globalPath != "" {
		loaded, err := readConfigFile(globalPath)
		if err == nil {
			cfg = mergeConfig(cfg, loaded)
			cfg.Sources.Global = globalPath
		} else if !errors.Is(err, errConfigFileNotFound) {
			return Config{}, err
		}
	}

	projectPath := input.ConfigPath
	explicit := projectPath != ""

	if !explicit {
		projectPath = filepath.Join(workDir, ConfigFileName)
	}

	loaded, err := readConfigFile(projectPath)

	switch {
	case err == nil:
		cfg = mergeConfig(cfg, loaded)
		cfg.Sources.Project = projectPath
	case errors.Is(err, errConfigFileNotFound) && !explicit:
		// A missing default project config is fine.
	default:
		return Config{}, err
	}

	if input.ArtifactOverride != "" {
		cfg.Artifact = input.ArtifactOverride
	}

	if cfg.Artifact == "" {
		return Config{}, errArtifactEmpty
	}

	if cfg.NumDays < 1 {
		return Config{}, errNumDaysInvalid
	}

	if filepath.IsAbs(cfg.Artifact) {
		cfg.ArtifactAbs = filepath.Clean(cfg.Artifact)
	} else {
		cfg.ArtifactAbs = filepath.Join(workDir, cfg.Artifact)
	}

	return cfg, nil
}

// readConfigFile reads one config file. The file may contain comments and
// trailing commas (HuJSON).
func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	return cfg, nil
}

// mergeConfig overlays non-zero fields of over onto base.
func mergeConfig(base, over Config) Config {
	if over.Artifact != "" {
		base.Artifact = over.Artifact
	}

	if over.NumDays != 0 {
		base.NumDays = over.NumDays
	}

	if over.Flags != nil {
		base.Flags = over.Flags
	}

	return base
}
