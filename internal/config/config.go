// internal/config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	BaseURL  string `mapstructure:"base_url"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`
	Session struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`
	Invite struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"invite"`
	Assistant struct {
		APIURL string   `mapstructure:"api_url"`
		APIKey string   `mapstructure:"api_key"`
		Models []string `mapstructure:"models"`
	} `mapstructure:"assistant"`
	Storage struct {
		Dir        string `mapstructure:"dir"`
		PublicBase string `mapstructure:"public_base"`
	} `mapstructure:"storage"`
	Frontend struct {
		URL           string `mapstructure:"url"`
		PostLoginPath string `mapstructure:"post_login_path"`
	} `mapstructure:"frontend"`
}

func Load() Config {
	// Optional .env for local development; env vars win either way.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded")
	}

	viper.SetDefault("session.ttl", 8*time.Hour)
	viper.SetDefault("invite.ttl", 7*24*time.Hour)
	viper.SetDefault("assistant.models", []string{
		"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro",
	})
	viper.SetDefault("storage.dir", "./uploads")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	_ = viper.ReadInConfig()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// explicit bindings
	_ = viper.BindEnv("base_url", "BASE_URL")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("assistant.api_url", "ASSISTANT_API_URL")
	_ = viper.BindEnv("assistant.api_key", "ASSISTANT_API_KEY")
	_ = viper.BindEnv("storage.dir", "STORAGE_DIR")
	_ = viper.BindEnv("storage.public_base", "STORAGE_PUBLIC_BASE")
	_ = viper.BindEnv("frontend.url", "FRONTEND_URL")

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		panic("config error: " + err.Error())
	}
	if c.BaseURL == "" {
		panic("config error: base_url/BASE_URL required")
	}
	return c
}
