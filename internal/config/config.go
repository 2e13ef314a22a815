// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Games      GamesConfig      `mapstructure:"games"`
	Scoreboard ScoreboardConfig `mapstructure:"scoreboard"`
	Wiki       WikiConfig       `mapstructure:"wiki"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

// BotConfig holds Discord bot configuration.
type BotConfig struct {
	Token  string   `mapstructure:"token"`
	Guilds []string `mapstructure:"guilds"`
}

// GuildAllowed checks if a guild ID is in the allowlist.
func (c *Config) GuildAllowed(guildID string) bool {
	// Empty allowlist means all guilds are allowed
	if len(c.Bot.Guilds) == 0 {
		return true
	}
	for _, id := range c.Bot.Guilds {
		if id == guildID {
			return true
		}
	}
	return false
}

// StorageConfig holds durable storage locations.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Structure StructureConfig `mapstructure:"structure"`
	Reagents  ReagentsConfig  `mapstructure:"reagents"`
}

// StructureConfig holds reveal game configuration.
type StructureConfig struct {
	ClueIntervalSeconds int  `mapstructure:"clue_interval_seconds"`
	FetchSchematics     bool `mapstructure:"fetch_schematics"`
}

// ReagentsConfig holds deduction game configuration.
type ReagentsConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxClues       int `mapstructure:"max_clues"`
	MinResults     int `mapstructure:"min_results"`
	MinColorful    int `mapstructure:"min_colorful"`
}

// ScoreboardConfig holds persistence and ranking configuration.
type ScoreboardConfig struct {
	FlushIntervalSeconds int `mapstructure:"flush_interval_seconds"`
	PageLen              int `mapstructure:"page_len"`
}

// WikiConfig holds the substance encyclopedia client configuration.
type WikiConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	ImageEndpoint string        `mapstructure:"image_endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LinkTimeout   time.Duration `mapstructure:"link_timeout"`
}

// HTTPConfig holds the ops HTTP server configuration.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, STORAGE_DIR, HTTP_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.dir", "storage")

	// Game defaults
	v.SetDefault("games.structure.clue_interval_seconds", 10)
	v.SetDefault("games.structure.fetch_schematics", true)
	v.SetDefault("games.reagents.timeout_seconds", 600)
	v.SetDefault("games.reagents.max_clues", 9)
	v.SetDefault("games.reagents.min_results", 6)
	v.SetDefault("games.reagents.min_colorful", 2)

	// Scoreboard defaults
	v.SetDefault("scoreboard.flush_interval_seconds", 60)
	v.SetDefault("scoreboard.page_len", 15)

	// Wiki defaults
	v.SetDefault("wiki.endpoint", "https://api.psychonautwiki.org/")
	v.SetDefault("wiki.image_endpoint", "https://psychonautwiki.org/w/thumb.php")
	v.SetDefault("wiki.timeout", "15s")
	v.SetDefault("wiki.link_timeout", "2s")

	// HTTP server defaults
	v.SetDefault("http.addr", ":8080")
}

// ClueInterval returns the reveal cadence as a duration.
func (c *StructureConfig) ClueInterval() time.Duration {
	return time.Duration(c.ClueIntervalSeconds) * time.Second
}

// Timeout returns the deduction round budget as a duration.
func (c *ReagentsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FlushInterval returns the persistence period as a duration.
func (c *ScoreboardConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}
