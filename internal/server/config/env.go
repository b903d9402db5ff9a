package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "AFTERLOG_"

// envFile is the dotenv file loaded before the environment is read.
// AFTERLOG_ENV_FILE overrides it.
var envFile = ".env"

// parseEnv loads the dotenv file, if present, and overlays AFTERLOG_*
// variables onto config. Variables already set in the process environment
// win over the file. Malformed values panic, like malformed flags.
func parseEnv(config *Config) {
	path := envFile
	if p := os.Getenv(EnvPrefix + "ENV_FILE"); p != "" {
		path = p
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.EndpointAddrGRPC, "GRPC_ADDRESS")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envInt(&config.SignInAttemptsPerMinute, "SIGNIN_PER_MINUTE")
	envInt(&config.SignInBurst, "SIGNIN_BURST")
	envString(&config.S3RootUser, "S3_USER")
	envString(&config.S3RootPassword, "S3_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	envDuration(&config.ExportLinkValidityDuration, "EXPORT_LINK_TTL")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
