package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	StorageConfig
	RoutesConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars
	API
	Session
	Storage
	Routes
}

var _ Config = (*mainConfig)(nil)

// New loads an optional .env file and then parses the process environment.
func New() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return Parse()
}

// Parse builds the configuration from the current environment only.
func Parse() (Config, error) {
	c := &mainConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("[config.Parse] env.Parse: %w", err)
	}
	if err := c.sanitize(); err != nil {
		return nil, fmt.Errorf("[config.Parse] %w", err)
	}
	return c, nil
}

func (c *mainConfig) sanitize() error {
	c.API.sanitize()
	c.Session.sanitize()
	c.Routes.sanitize()
	return c.Storage.sanitize(c.EnvVars.DataFolder)
}
