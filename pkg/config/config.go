package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Dispatcher   DispatcherConfig
	StatusEngine StatusEngineConfig
	Realtime     RealtimeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DispatcherConfig tunes the change-feed polling consumer.
type DispatcherConfig struct {
	Enabled       bool
	PollInterval  time.Duration
	BatchSize     int
	DebounceDelay time.Duration
	WatchedTables []string
}

// StatusEngineConfig drives the periodic schedule reconciliation jobs.
type StatusEngineConfig struct {
	Enabled          bool
	ReconcileSpec    string
	OrphanRepairSpec string
}

// RealtimeConfig names the broadcast room shared by the watched campaign tables.
type RealtimeConfig struct {
	CampaignRoom string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dispatcher = DispatcherConfig{
		Enabled:       v.GetBool("ENABLE_DISPATCHER"),
		PollInterval:  parseDuration(v.GetString("DISPATCHER_POLL_INTERVAL"), 500*time.Millisecond),
		BatchSize:     v.GetInt("DISPATCHER_BATCH_SIZE"),
		DebounceDelay: parseDuration(v.GetString("DISPATCHER_DEBOUNCE_DELAY"), 2*time.Second),
		WatchedTables: splitAndTrim(v.GetString("DISPATCHER_WATCHED_TABLES")),
	}

	cfg.StatusEngine = StatusEngineConfig{
		Enabled:          v.GetBool("ENABLE_STATUS_ENGINE"),
		ReconcileSpec:    v.GetString("STATUS_ENGINE_RECONCILE_SPEC"),
		OrphanRepairSpec: v.GetString("STATUS_ENGINE_ORPHAN_REPAIR_SPEC"),
	}

	cfg.Realtime = RealtimeConfig{
		CampaignRoom: v.GetString("REALTIME_CAMPAIGN_ROOM"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "nkc_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DISPATCHER", true)
	v.SetDefault("DISPATCHER_POLL_INTERVAL", "500ms")
	v.SetDefault("DISPATCHER_BATCH_SIZE", 50)
	v.SetDefault("DISPATCHER_DEBOUNCE_DELAY", "2s")
	v.SetDefault("DISPATCHER_WATCHED_TABLES", "campaigns,campaign_interaction_logs,campaign_schedules")

	v.SetDefault("ENABLE_STATUS_ENGINE", true)
	v.SetDefault("STATUS_ENGINE_RECONCILE_SPEC", "* * * * *")
	v.SetDefault("STATUS_ENGINE_ORPHAN_REPAIR_SPEC", "59 23 * * 0")

	v.SetDefault("REALTIME_CAMPAIGN_ROOM", "department:chien-dich")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
