package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "vgccalc.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds Postgres storage backend settings. Connection
// details live under db.*.
type PostgresConfig struct {
	MaxOpenConns  int           `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// ServerConfig holds transport settings
type ServerConfig struct {
	Transport        string        `json:"transport" mapstructure:"transport"`
	Address          string        `json:"address" mapstructure:"address"`
	Path             string        `json:"path" mapstructure:"path"`
	BatchConcurrency int           `json:"batchConcurrency" mapstructure:"batchConcurrency"`
	Timeout          time.Duration `json:"timeout" mapstructure:"timeout"`
	// Secret, when set, must be passed as ?secret= to open a websocket.
	Secret           string        `json:"secret" mapstructure:"secret"`
	MaxFrameBytes    int64         `json:"maxFrameBytes" mapstructure:"maxFrameBytes"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB metrics sink settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// BreakerConfig holds circuit breaker settings for one remote service
type BreakerConfig struct {
	FailureThreshold int           `json:"failureThreshold" mapstructure:"failureThreshold"`
	RecoveryTimeout  time.Duration `json:"recoveryTimeout" mapstructure:"recoveryTimeout"`
	SuccessThreshold int           `json:"successThreshold" mapstructure:"successThreshold"`
}

// FetchConfig holds remote data source settings
type FetchConfig struct {
	Timeout   time.Duration            `json:"timeout" mapstructure:"timeout"`
	UserAgent string                   `json:"userAgent" mapstructure:"userAgent"`
	Showdown  string                   `json:"showdownUrl" mapstructure:"showdownUrl"`
	Smogon    string                   `json:"smogonUrl" mapstructure:"smogonUrl"`
	Pokepaste string                   `json:"pokepasteUrl" mapstructure:"pokepasteUrl"`
	Breakers  map[string]BreakerConfig `json:"breakers" mapstructure:"breakers"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("format", "regf")
	viper.SetDefault("elo", 1500)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./cache")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./vgccalc.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.maxOpenConns", 10)
	viper.SetDefault("storage.postgres.flushInterval", "2s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "vgccalc")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.address", "127.0.0.1:8765")
	viper.SetDefault("server.path", "/ws")
	viper.SetDefault("server.batchConcurrency", 8)
	viper.SetDefault("server.timeout", "30s")
	viper.SetDefault("server.secret", "")
	viper.SetDefault("server.maxFrameBytes", 8<<20)
	viper.SetDefault("server.asyncRefresh", false)
	viper.SetDefault("server.queueSize", 4)

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "10s")

	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.userAgent", "vgccalc/1.0")
	viper.SetDefault("fetch.showdownUrl", "https://play.pokemonshowdown.com/data")
	viper.SetDefault("fetch.smogonUrl", "https://www.smogon.com/stats")
	viper.SetDefault("fetch.pokepasteUrl", "https://pokepast.es")
	viper.SetDefault("fetch.breakers.smogon", map[string]any{"failureThreshold": 5, "recoveryTimeout": "60s", "successThreshold": 2})
	viper.SetDefault("fetch.breakers.showdown", map[string]any{"failureThreshold": 5, "recoveryTimeout": "60s", "successThreshold": 2})
	viper.SetDefault("fetch.breakers.pokepaste", map[string]any{"failureThreshold": 10, "recoveryTimeout": "30s", "successThreshold": 2})

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "vgccalc")
	viper.SetDefault("influx.bucket", "vgccalc_calls")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "vgccalc")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// BindFlags binds command line flags to config keys. Flag names match the
// keys, e.g. --storage.type.
func BindFlags(flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := viper.BindPFlag(f.Name, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			MaxOpenConns:  viper.GetInt("storage.postgres.maxOpenConns"),
			FlushInterval: viper.GetDuration("storage.postgres.flushInterval"),
		},
	}
}

// GetServerConfig returns the transport settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Transport:        viper.GetString("server.transport"),
		Address:          viper.GetString("server.address"),
		Path:             viper.GetString("server.path"),
		BatchConcurrency: viper.GetInt("server.batchConcurrency"),
		Timeout:          viper.GetDuration("server.timeout"),
		Secret:           viper.GetString("server.secret"),
		MaxFrameBytes:    viper.GetInt64("server.maxFrameBytes"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetFetchConfig returns the remote source settings. Breakers missing from
// the config fall back to the defaults of their service.
func GetFetchConfig() FetchConfig {
	cfg := FetchConfig{
		Timeout:   viper.GetDuration("fetch.timeout"),
		UserAgent: viper.GetString("fetch.userAgent"),
		Showdown:  viper.GetString("fetch.showdownUrl"),
		Smogon:    viper.GetString("fetch.smogonUrl"),
		Pokepaste: viper.GetString("fetch.pokepasteUrl"),
		Breakers:  map[string]BreakerConfig{},
	}
	for name := range viper.GetStringMap("fetch.breakers") {
		prefix := "fetch.breakers." + name + "."
		cfg.Breakers[name] = BreakerConfig{
			FailureThreshold: viper.GetInt(prefix + "failureThreshold"),
			RecoveryTimeout:  viper.GetDuration(prefix + "recoveryTimeout"),
			SuccessThreshold: viper.GetInt(prefix + "successThreshold"),
		}
	}
	return cfg
}
