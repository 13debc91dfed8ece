package app

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration: global flags and the logging
// settings read from the environment.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	LogLevel string

	// Logging configuration from the environment
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads .env files into the process environment and reads the
// logging settings. Flags are applied later by UpdateFromFlags.
func LoadConfig() *Config {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LOG_FORMAT", "auto")
	v.SetDefault("LOG_OUTPUT", "stderr")

	return &Config{
		EnvLogLevel: v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		LogOutput:   v.GetString("LOG_OUTPUT"),
	}
}

// UpdateFromFlags updates config values from parsed command flags.
func (c *Config) UpdateFromFlags(verbose, quiet bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.LogLevel = logLevel
}

// loadEnvFiles loads environment variables from .env files. Variables
// already set in the process win, and .env wins over .env.local because
// godotenv never overwrites.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
