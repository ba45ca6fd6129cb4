package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with pointer fields so only variables actually
// present in the environment override earlier layers.
type envConfig struct {
	EndpointAddrHTTP             *string        `env:"ADDRESS"`
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	SecretKey                    *string        `env:"SECRET_KEY"`
	TokenIssuer                  *string        `env:"TOKEN_ISSUER"`
	TokenAudience                *string        `env:"TOKEN_AUDIENCE"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_VALIDITY"`
	DecoyPasswordHash            *string        `env:"DECOY_PASSWORD_HASH"`
}

func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TokenIssuer != nil {
		config.TokenIssuer = *c.TokenIssuer
	}
	if c.TokenAudience != nil {
		config.TokenAudience = *c.TokenAudience
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = *c.AccessTokenValidityDuration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = *c.RefreshTokenValidityDuration
	}
	if c.DecoyPasswordHash != nil {
		config.DecoyPasswordHash = *c.DecoyPasswordHash
	}
}
