package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for testing godotenv.Load.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv overlays values from a .env file in the working directory and
// from the process environment. Variables already set in the environment
// win over .env entries.
//
//	DATABASE_DSN (or MONGO_URI)  datastore DSN
//	DB_NAME                      MongoDB database name
//	PORT                         HTTP port
//	GRPC_ADDR                    gRPC bind address
//	APP_ENV (or NODE_ENV)        environment name
//	JWT_SECRET                   token signing secret
//	FRONTEND_URL                 extra allowed CORS origin
//	CORS_ORIGINS                 comma-separated CORS origins, replaces defaults
//	SECRETS_KEY                  secret sealing passphrase
//	DB_MAX_RETRIES               reconnect retries outside production
//	S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY
func parseEnv(config *Config) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	setString(&config.DatabaseDSN, "MONGO_URI")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.DatabaseName, "DB_NAME")
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + strings.TrimPrefix(port, ":")
	}
	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.Environment, "NODE_ENV")
	setString(&config.Environment, "APP_ENV")
	setString(&config.SecretKey, "JWT_SECRET")
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && v != "" {
		config.AllowedOrigins = flagx.SplitList(v)
	}
	if v, ok := os.LookupEnv("FRONTEND_URL"); ok && v != "" && !contains(config.AllowedOrigins, v) {
		config.AllowedOrigins = append([]string{v}, config.AllowedOrigins...)
	}
	setString(&config.SecretsKey, "SECRETS_KEY")
	if v, ok := os.LookupEnv("DB_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.MaxRetries = n
	}
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	setString(&config.S3RootUser, "S3_ACCESS_KEY")
	setString(&config.S3RootPassword, "S3_SECRET_KEY")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
