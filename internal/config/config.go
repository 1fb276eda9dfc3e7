package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Mode     string   `mapstructure:"mode"`
	Server   Server   `mapstructure:"server"`
	Realtime Realtime `mapstructure:"realtime"`
	API      API      `mapstructure:"api"`
	Cache    Cache    `mapstructure:"cache"`
	JWT      JWT      `mapstructure:"jwt"`
	CORS     CORS     `mapstructure:"cors"`
	Log      Log      `mapstructure:"log"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

// Realtime configures the client-side socket layer: where to dial and how the
// transport retries before giving up.
type Realtime struct {
	BaseURL      string       `mapstructure:"base_url"`
	Debug        bool         `mapstructure:"debug"`
	Reconnection Reconnection `mapstructure:"reconnection"`
}

type Reconnection struct {
	Attempts int `mapstructure:"attempts"`
	DelayMs  int `mapstructure:"delay_ms"`
}

// API configures the REST collaborator used for message sends.
type API struct {
	BaseURL string `mapstructure:"base_url"`
}

// Cache configures the local thread snapshot store.
type Cache struct {
	Path        string `mapstructure:"path"`
	MaxMessages int    `mapstructure:"max_messages"`
}

type JWT struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	MaxEntries int    `mapstructure:"max_entries"`
}

func Load() *Config {
	mode := os.Getenv("MODE")
	if mode == "" {
		mode = "local"
	}

	viper.SetConfigName(mode)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("STOREFRONT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("config file not loaded: %v, falling back to defaults", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("config parse failed: %v", err)
	}

	cfg.Mode = mode
	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("realtime.base_url", "ws://localhost:8080")
	viper.SetDefault("realtime.debug", false)
	viper.SetDefault("realtime.reconnection.attempts", 5)
	viper.SetDefault("realtime.reconnection.delay_ms", 2000)
	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("cache.path", "data/threads.db")
	viper.SetDefault("cache.max_messages", 200)
	viper.SetDefault("jwt.secret", "storefront-dev-secret")
	viper.SetDefault("jwt.expiration_hours", 720)
	viper.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
	})
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.max_entries", 200)
}
