package config

import (
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	HTTPAddr string

	LogLevel      string
	LogFile       string // empty means stdout only
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	JWTSecret string // empty disables identity annotation
}

// Load reads an optional volley.yaml from the working directory, then lets
// environment variables override everything.
func Load() Config {
	viper.SetDefault("app_env", "dev")
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")
	viper.SetDefault("log_max_size", 10)
	viper.SetDefault("log_max_backups", 3)
	viper.SetDefault("log_max_age", 28)
	viper.SetDefault("jwt_secret", "")

	viper.SetConfigName("volley")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // config file is optional

	viper.AutomaticEnv()

	return Config{
		Env:           cast.ToString(viper.Get("app_env")),
		HTTPAddr:      cast.ToString(viper.Get("http_addr")),
		LogLevel:      cast.ToString(viper.Get("log_level")),
		LogFile:       cast.ToString(viper.Get("log_file")),
		LogMaxSizeMB:  cast.ToInt(viper.Get("log_max_size")),
		LogMaxBackups: cast.ToInt(viper.Get("log_max_backups")),
		LogMaxAgeDays: cast.ToInt(viper.Get("log_max_age")),
		JWTSecret:     cast.ToString(viper.Get("jwt_secret")),
	}
}
