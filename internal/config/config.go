package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type UploadConfig struct {
	Dir          string `mapstructure:"dir"`
	MaxSizeBytes int64  `mapstructure:"max_size_bytes"`
}

type ListingConfig struct {
	LatestCount     int `mapstructure:"latest_count"`
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"` // memory or mongo
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	OpTimeout     time.Duration `mapstructure:"op_timeout"`
}

// Config is the explicit configuration object handed to component
// constructors at process start; there is no ambient singleton.
type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsPath string        `mapstructure:"metrics_path"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Auth        AuthConfig    `mapstructure:"auth"`
	Uploads     UploadConfig  `mapstructure:"uploads"`
	Listings    ListingConfig `mapstructure:"listings"`
	Store       StoreConfig   `mapstructure:"store"`
}

// Load reads configuration from an optional file plus AUCTION_* env vars.
// A missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		path = "config.yaml"
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile reports a missing file as an fs.PathError, not as
		// viper.ConfigFileNotFoundError (that one only comes out of the
		// SetConfigName search). Check both.
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Store.Driver != "memory" && cfg.Store.Driver != "mongo" {
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "auction-house")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_path", "/metrics")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("uploads.dir", "public/images")
	v.SetDefault("uploads.max_size_bytes", 8<<20)
	v.SetDefault("listings.latest_count", 6)
	v.SetDefault("listings.default_page_size", 20)
	v.SetDefault("listings.max_page_size", 100)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "auction_house")
	v.SetDefault("store.op_timeout", "5s")
}
