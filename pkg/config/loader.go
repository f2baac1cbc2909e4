// Package config loads service configuration from the environment. Structs
// declare their variables with `env` tags; validation beyond parsing lives
// with the service's own config type.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables according to its `env` tags.
//
//	type Config struct {
//	    Port     int    `env:"IDENTITY_HTTP_PORT" envDefault:"8007"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
