/*
Package config manages the TOML config for SearchPro.

	[search]
	debounce_ms = 300
	cache_capacity = 10

	[corpus]
	path = ""

	[server]
	max_query = 120

	[cli]
	show_stats = false
	max_rows = 8
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/searchpro/internal/utils"
	"github.com/charmbracelet/log"
)

const (
	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	// MaxCacheCapacity bounds search.cache_capacity.
	MaxCacheCapacity = 10000
)

// Config holds the entire config structure
type Config struct {
	Search SearchConfig `toml:"search"`
	Corpus CorpusConfig `toml:"corpus"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// SearchConfig tunes the debounce and cache of each controller.
type SearchConfig struct {
	DebounceMs    int `toml:"debounce_ms"`
	CacheCapacity int `toml:"cache_capacity"`
}

// CorpusConfig points at the item list. An empty path uses the embedded one.
type CorpusConfig struct {
	Path string `toml:"path"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxQuery int `toml:"max_query"`
}

// CliConfig holds terminal options shared by the line and TUI modes.
type CliConfig struct {
	ShowStats bool `toml:"show_stats"`
	MaxRows   int  `toml:"max_rows"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DebounceMs:    300,
			CacheCapacity: 10,
		},
		Server: ServerConfig{
			MaxQuery: 120,
		},
		CLI: CliConfig{
			ShowStats: false,
			MaxRows:   8,
		},
	}
}

// DebounceDelay returns the debounce delay as a duration.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Search.DebounceMs) * time.Millisecond
}

// Validate resets non-positive values, and a cache capacity above
// MaxCacheCapacity, to their defaults and reports which keys were reset.
func (c *Config) Validate() []string {
	def := DefaultConfig()
	var reset []string
	if c.Search.DebounceMs <= 0 {
		c.Search.DebounceMs = def.Search.DebounceMs
		reset = append(reset, "search.debounce_ms")
	}
	if c.Search.CacheCapacity <= 0 || c.Search.CacheCapacity > MaxCacheCapacity {
		c.Search.CacheCapacity = def.Search.CacheCapacity
		reset = append(reset, "search.cache_capacity")
	}
	if c.Server.MaxQuery <= 0 {
		c.Server.MaxQuery = def.Server.MaxQuery
		reset = append(reset, "server.max_query")
	}
	if c.CLI.MaxRows <= 0 {
		c.CLI.MaxRows = def.CLI.MaxRows
		reset = append(reset, "cli.max_rows")
	}
	for _, key := range reset {
		log.Warnf("Invalid value for %s, using default", key)
	}
	return reset
}

// GetConfigDir returns the config directory, falling back to the executable
// directory when the home directory is unavailable.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execPath, execErr := os.Executable()
		if execErr != nil {
			return "", execErr
		}
		return filepath.Dir(execPath), nil
	}
	return utils.ConfigDirFor(homeDir), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/searchpro/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if status := utils.CheckDirStatus(configDir); !status.Writable {
		log.Warnf("Config directory %s is not usable. Using built-in defaults...", configDir)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Values missing from the file keep
// their defaults; a file that fails typed decoding is recovered key by key.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	unknown, err := utils.LoadTOMLFile(configPath, config)
	if err != nil {
		return tryPartialParse(configPath)
	}
	for _, key := range unknown {
		log.Warnf("Unknown config key %q in %s", key, configPath)
	}
	config.Validate()
	return config, nil
}

// tryPartialParse keeps every value that still has the right type.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(raw, "corpus"); ok {
		extractCorpusConfig(section, &config.Corpus)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.Validate()
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt(data, "debounce_ms"); ok {
		search.DebounceMs = val
	}
	if val, ok := utils.ExtractInt(data, "cache_capacity"); ok {
		search.CacheCapacity = val
	}
}

func extractCorpusConfig(data map[string]any, corpus *CorpusConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		corpus.Path = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_query"); ok {
		server.MaxQuery = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractBool(data, "show_stats"); ok {
		cli.ShowStats = val
	}
	if val, ok := utils.ExtractInt(data, "max_rows"); ok {
		cli.MaxRows = val
	}
}

// RebuildConfigFile overwrites the config at path with defaults.
func RebuildConfigFile(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), path)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
