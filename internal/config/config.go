package config

import (
	"fmt"
	"time"

	"github.com/battlecode/engine/pkg/unit"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "engine.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// WebSocketConfig holds live stream settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type          string          `json:"type" mapstructure:"type"`
	WriteInterval time.Duration   `json:"writeInterval" mapstructure:"writeInterval"`
	Memory        MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket     WebSocketConfig `json:"websocket" mapstructure:"websocket"`
	DB            DBConfig        `json:"db" mapstructure:"db"`
}

// MonitorConfig holds status file settings
type MonitorConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	StatusPath string        `json:"statusPath" mapstructure:"statusPath"`
}

// MatchConfig holds the parameters of a simulated match
type MatchConfig struct {
	Name   string `json:"name" mapstructure:"name"`
	Rounds uint32 `json:"rounds" mapstructure:"rounds"`
	Seed   int64  `json:"seed" mapstructure:"seed"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "battlecode")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.writeInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./replays")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.sqlite.dumpPath", "./replays/match.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusPath", "./logs/status.json")

	viper.SetDefault("units.immobile", []string{"factory", "rocket"})

	viper.SetDefault("match.name", "scrimmage")
	viper.SetDefault("match.rounds", 100)
	viper.SetDefault("match.seed", 0)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults sets default values without reading a file. Used when no
// config directory is given.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetStorageConfig returns the storage section. Durations are parsed by viper
// from strings such as "90s".
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		WriteInterval: viper.GetDuration("storage.writeInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetMonitorConfig returns the status monitor section.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusPath: viper.GetString("monitor.statusPath"),
	}
}

// GetMatchConfig returns the match section.
func GetMatchConfig() MatchConfig {
	return MatchConfig{
		Name:   viper.GetString("match.name"),
		Rounds: viper.GetUint32("match.rounds"),
		Seed:   viper.GetInt64("match.seed"),
	}
}

// GetMobility builds the movement table from units.immobile.
func GetMobility() (unit.Mobility, error) {
	return unit.ParseMobility(viper.GetStringSlice("units.immobile"))
}
