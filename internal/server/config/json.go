package config

import (
	"encoding/json"
	"os"

	"taskman/internal/flagx"
	"taskman/internal/timex"
)

// JsonConfig is an intermediate DTO for reading JSON configuration files.
// Interval fields use timex.Duration, which accepts both duration strings
// ("15m") and integer nanoseconds. After unmarshalling, set fields are
// copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	TokenIssuer                  *string         `json:"token_issuer"`
	TokenAudience                *string         `json:"token_audience"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	DecoyPasswordHash            *string         `json:"decoy_password_hash"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config command-line flags;
// when neither is set, no JSON file is loaded. An unreadable or invalid
// file panics: starting with half-applied configuration is worse than not
// starting.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
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
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.DecoyPasswordHash != nil {
		config.DecoyPasswordHash = *c.DecoyPasswordHash
	}
}
