// Package config assembles the service configuration from defaults,
// command-line flags, a .env file and environment variables, in that
// order of increasing precedence, and validates the result.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full configuration surface of the service.
type Config struct {
	// RunAddr is the listen address of the net/http (chi) binding.
	RunAddr string `env:"SERVER_ADDRESS" validate:"hostname_port"`

	// FiberRunAddr is the listen address of the fiber binding.
	FiberRunAddr string `env:"FIBER_SERVER_ADDRESS" validate:"hostname_port"`

	LogLevel string `env:"LOG_LEVEL" validate:"loglevel"`

	// DBFileName is the user snapshot file. When empty and no DSN is
	// set, records live in memory only.
	DBFileName string `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`

	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`

	AuthCookieName string `env:"AUTH_COOKIE_NAME" validate:"required"`

	// TokenSigningSecretKey signs session tokens. There is deliberately
	// no insecure default: an empty secret is a startup error.
	TokenSigningSecretKey string `env:"SECRET" validate:"required"`

	TokenTTL time.Duration `env:"TOKEN_TTL" validate:"gt=0"`

	BCryptCost int `env:"BCRYPT_COST" validate:"min=4,max=31"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	FiberRunAddr:        ":8081",
	LogLevel:            "info",
	DBFileName:          "db.json",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/sessiond/migrations",
	AuthCookieName:      "token",
	TokenTTL:            24 * time.Hour,
	BCryptCost:          10,
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command-line flag parsing. Tests use
// it to keep the global flag set untouched.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run the HTTP server")
		flag.StringVar(&values.FiberRunAddr, "fa", values.FiberRunAddr, "address and port to run the fiber server")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON snapshot file with the user records")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "A string with the database connection details")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with the goose migrations")
		flag.StringVar(&values.AuthCookieName, "c", values.AuthCookieName, "name of the session cookie")
		flag.DurationVar(&values.TokenTTL, "t", values.TokenTTL, "session token lifetime")
		flag.Parse()
	}

	valuesFromEnv := Config{}
	err = env.Parse(&valuesFromEnv)
	if err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.FiberRunAddr != "" {
		values.FiberRunAddr = valuesFromEnv.FiberRunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DBFileName != "" {
		values.DBFileName = valuesFromEnv.DBFileName
	}

	if valuesFromEnv.DatabaseDSN != "" {
		values.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.MigrationsDir != "" {
		values.MigrationsDir = valuesFromEnv.MigrationsDir
	}

	if valuesFromEnv.AuthCookieName != "" {
		values.AuthCookieName = valuesFromEnv.AuthCookieName
	}

	if valuesFromEnv.TokenSigningSecretKey != "" {
		values.TokenSigningSecretKey = valuesFromEnv.TokenSigningSecretKey
	}

	if valuesFromEnv.TokenTTL != 0 {
		values.TokenTTL = valuesFromEnv.TokenTTL
	}

	if valuesFromEnv.BCryptCost != 0 {
		values.BCryptCost = valuesFromEnv.BCryptCost
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
