package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable read by the server.
const EnvPrefix = "BK_"

// loadDotenv is a seam for godotenv.Load.
var loadDotenv = godotenv.Load

// parseEnv overlays BK_* environment variables. When -env-file is given that
// file is loaded first; variables already present in the process environment
// are not overwritten by it.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := loadDotenv(path); err != nil {
			panic(err)
		}
	}

	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envString(&config.EncryptionKey, "ENCRYPTION_KEY")
	envString(&config.EncryptionPassphrase, "ENCRYPTION_PASSPHRASE")
	envString(&config.EncryptionSalt, "ENCRYPTION_SALT")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	if v, ok := os.LookupEnv(EnvPrefix + "MIN_CONTENT_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.MinContentLength = n
	}
	envDuration(&config.ReadTimeout, "READ_TIMEOUT")
	envDuration(&config.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
