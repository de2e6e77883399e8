package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa*/

type Config struct {
	Port          string `mapstructure:"PORT"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// PublicKeySecret names the Redis key holding the Ed25519 public key
	PublicKeySecret string `mapstructure:"TELNYX_PUBLIC_KEY_SECRET"`
	KeyCacheTTL     int    `mapstructure:"KEY_CACHE_TTL_SECONDS"`

	GateStrict     bool   `mapstructure:"GATE_STRICT"`
	GateRangesFile string `mapstructure:"GATE_RANGES_FILE"`

	// EventStream enables the queued intake path when non-empty
	EventStream string `mapstructure:"EVENT_STREAM"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("TELNYX_PUBLIC_KEY_SECRET", "telnyx:public_key")
	viper.SetDefault("KEY_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("GATE_STRICT", false)
	viper.SetDefault("GATE_RANGES_FILE", "")
	viper.SetDefault("EVENT_STREAM", "")

	err := viper.ReadInConfig()
	if err != nil {
		// A config file is optional; environment variables are enough
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}
