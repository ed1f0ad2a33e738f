package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bkjournal/internal/flagx"
	"github.com/dmitrijs2005/bkjournal/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// "15s" style strings or integer nanoseconds. Fields left out of the file
// keep their previous value.
type JsonConfig struct {
	EndpointAddrHTTP     *string         `json:"endpoint_addr_http"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SecretKey            *string         `json:"secret_key"`
	EncryptionKey        *string         `json:"encryption_key"`
	EncryptionPassphrase *string         `json:"encryption_passphrase"`
	EncryptionSalt       *string         `json:"encryption_salt"`
	MinContentLength     *int            `json:"min_content_length"`
	ReadTimeout          *timex.Duration `json:"read_timeout"`
	ShutdownTimeout      *timex.Duration `json:"shutdown_timeout"`
	LogLevel             *string         `json:"log_level"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c / -config. Without
// the flag nothing happens. An unreadable or malformed file panics.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.EncryptionPassphrase, c.EncryptionPassphrase)
	setString(&config.EncryptionSalt, c.EncryptionSalt)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.MinContentLength != nil {
		config.MinContentLength = *c.MinContentLength
	}
	if c.ReadTimeout != nil {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
