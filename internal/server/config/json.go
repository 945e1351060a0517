package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/passvault/internal/flagx"
	"github.com/dmitrijs2005/passvault/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Duration
// fields accept strings such as "30s" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	DatabaseName          string         `json:"database_name"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	Environment           string         `json:"environment"`
	ConnectTimeout        timex.Duration `json:"connect_timeout"`
	RetryBaseDelay        timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay         timex.Duration `json:"retry_max_delay"`
	MaxRetries            *int           `json:"max_retries"`
	HealthCheckInterval   timex.Duration `json:"health_check_interval"`
	AllowedOrigins        []string       `json:"allowed_origins"`
	SecretsKey            string         `json:"secrets_key"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field present in it into config. Absent fields keep their current values.
// An unreadable file, invalid JSON or a negative duration panics.
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

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.DatabaseName, c.DatabaseName)
	overlay(&config.SecretKey, c.SecretKey)
	overlayDuration(&config.TokenValidityDuration, "token_validity_duration", c.TokenValidityDuration.Duration)
	overlay(&config.Environment, c.Environment)
	overlayDuration(&config.ConnectTimeout, "connect_timeout", c.ConnectTimeout.Duration)
	overlayDuration(&config.RetryBaseDelay, "retry_base_delay", c.RetryBaseDelay.Duration)
	overlayDuration(&config.RetryMaxDelay, "retry_max_delay", c.RetryMaxDelay.Duration)
	if c.MaxRetries != nil {
		config.MaxRetries = *c.MaxRetries
	}
	overlayDuration(&config.HealthCheckInterval, "health_check_interval", c.HealthCheckInterval.Duration)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	overlay(&config.SecretsKey, c.SecretsKey)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// overlayDuration is overlay for durations that must be positive. Zero means
// the field was absent.
func overlayDuration(dst *time.Duration, name string, v time.Duration) {
	if v < 0 {
		panic(fmt.Errorf("%s must be positive, got %s", name, v))
	}
	overlay(dst, v)
}
