package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aliskhannn/quran-audio-quiz/pkg/validator"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Storage backends of the offline cache.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env" validate:"required"` // current application environment (local, dev, production etc)
	TelegramAPIToken string   `mapstructure:"-"`                       // optional Telegram API token loaded from environment
	HTTP             HTTP     `mapstructure:"http"`
	Data             Data     `mapstructure:"data"`
	QuranAPI         QuranAPI `mapstructure:"quran_api"`
	Quiz             Quiz     `mapstructure:"quiz"`
	Offline          Offline  `mapstructure:"offline"`
	DB               DB       `mapstructure:"database"`
	Redis            Redis    `mapstructure:"redis"`
}

// HTTP configures the API and shell server.
type HTTP struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Data points to the static catalog files.
type Data struct {
	SurahsPath   string `mapstructure:"surahs_path" validate:"required"`   // JSON with the 114 surahs
	RecitersPath string `mapstructure:"reciters_path" validate:"required"` // JSON with the reciter editions
}

// QuranAPI configures the remote verse and audio source.
type QuranAPI struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Quiz holds engine-wide quiz options.
type Quiz struct {
	ExhaustionPolicy string        `mapstructure:"exhaustion_policy" validate:"oneof=end reshuffle"` // what happens when every verse was asked
	TextEdition      string        `mapstructure:"text_edition" validate:"required"`                 // edition used for verse text
	SessionTTL       time.Duration `mapstructure:"session_ttl" validate:"gt=0"`                      // idle sessions are dropped after this
}

// Offline configures the offline cache controller.
type Offline struct {
	CacheName    string   `mapstructure:"cache_name" validate:"required"` // current version tag
	Version      string   `mapstructure:"version" validate:"required"`
	App          string   `mapstructure:"app"`
	OriginURL    string   `mapstructure:"origin_url" validate:"required,url"` // where shell assets are fetched from
	Precache     []string `mapstructure:"precache"`
	FallbackBody string   `mapstructure:"fallback_body"`
	Backend      string   `mapstructure:"backend" validate:"oneof=memory postgres redis"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Redis contains redis connection parameters.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"-"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("offline.origin_url", "ORIGIN_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("data.surahs_path", "assets/data/surahs.json")
	v.SetDefault("data.reciters_path", "assets/data/reciters.json")
	v.SetDefault("quran_api.base_url", "https://api.alquran.cloud/v1")
	v.SetDefault("quran_api.timeout", "10s")
	v.SetDefault("quiz.exhaustion_policy", "end")
	v.SetDefault("quiz.text_edition", "quran-uthmani")
	v.SetDefault("quiz.session_ttl", "2h")
	v.SetDefault("offline.cache_name", "quran-quiz-pwa-v27")
	v.SetDefault("offline.version", "V27")
	v.SetDefault("offline.app", "quiz-audio-seconde")
	v.SetDefault("offline.origin_url", "http://localhost:8081")
	v.SetDefault("offline.precache", []string{
		"/",
		"/index.html",
		"/style.css",
		"/app.js",
		"/manifest.json",
		"/sw.js",
		"/images/icon-192.png",
		"/images/icon-512.png",
		"/images/screenshot-1.png",
		"/images/screenshot-2.png",
	})
	v.SetDefault("offline.fallback_body", "Sorry - file not available offline")
	v.SetDefault("offline.backend", BackendMemory)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
}

func fromViper(v *viper.Viper) (*Config, error) {
	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Password = v.GetString("redis_password")

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}

	if cfg.Offline.Backend == BackendPostgres && cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}
