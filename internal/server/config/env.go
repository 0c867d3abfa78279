package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/fundconnector/internal/flagx"
)

// envKeys maps viper keys onto the environment variables they are read from.
var envKeys = map[string]string{
	"http_addr":        "OAN_HTTP_ADDR",
	"grpc_addr":        "OAN_GRPC_ADDR",
	"database_dsn":     "OAN_DATABASE_DSN",
	"jwt_secret":       "OAN_JWT_SECRET",
	"token_ttl":        "OAN_TOKEN_TTL",
	"code_ttl":         "OAN_CODE_TTL",
	"reset_ttl":        "OAN_RESET_TTL",
	"app_base_url":     "OAN_APP_BASE_URL",
	"log_level":        "OAN_LOG_LEVEL",
	"smtp_host":        "OAN_SMTP_HOST",
	"smtp_port":        "OAN_SMTP_PORT",
	"smtp_user":        "OAN_SMTP_USER",
	"smtp_pass":        "OAN_SMTP_PASS",
	"smtp_from":        "OAN_SMTP_FROM",
	"redis_addr":       "OAN_REDIS_ADDR",
	"redis_password":   "OAN_REDIS_PASSWORD",
	"rate_limit_rate":  "OAN_RATE_LIMIT_RATE",
	"rate_limit_burst": "OAN_RATE_LIMIT_BURST",
	"s3_root_user":     "OAN_S3_ROOT_USER",
	"s3_root_password": "OAN_S3_ROOT_PASSWORD",
	"s3_bucket":        "OAN_S3_BUCKET",
	"s3_region":        "OAN_S3_REGION",
	"s3_base_endpoint": "OAN_S3_BASE_ENDPOINT",
}

// parseEnv overlays OAN_* environment variables onto config. When -env-file
// is given that file must load; otherwise a .env in the working directory is
// used if present. Variables already in the environment win over the file.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(fmt.Errorf("load env file %s: %w", path, err))
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	setString(&config.EndpointAddrHTTP, v.GetString("http_addr"))
	setString(&config.EndpointAddrGRPC, v.GetString("grpc_addr"))
	setString(&config.DatabaseDSN, v.GetString("database_dsn"))
	setString(&config.SecretKey, v.GetString("jwt_secret"))
	if d := v.GetDuration("token_ttl"); d > 0 {
		config.AccessTokenValidityDuration = d
	}
	if d := v.GetDuration("code_ttl"); d > 0 {
		config.VerificationCodeValidityDuration = d
	}
	if d := v.GetDuration("reset_ttl"); d > 0 {
		config.ResetTokenValidityDuration = d
	}
	setString(&config.AppBaseURL, v.GetString("app_base_url"))
	setString(&config.LogLevel, v.GetString("log_level"))
	setString(&config.SMTPHost, v.GetString("smtp_host"))
	if p := v.GetInt("smtp_port"); p > 0 {
		config.SMTPPort = p
	}
	setString(&config.SMTPUser, v.GetString("smtp_user"))
	setString(&config.SMTPPass, v.GetString("smtp_pass"))
	setString(&config.SMTPFrom, v.GetString("smtp_from"))
	setString(&config.RedisAddr, v.GetString("redis_addr"))
	setString(&config.RedisPassword, v.GetString("redis_password"))
	if v.GetString("rate_limit_rate") != "" {
		config.RateLimitRate = v.GetFloat64("rate_limit_rate")
	}
	if b := v.GetInt("rate_limit_burst"); b > 0 {
		config.RateLimitBurst = b
	}
	setString(&config.S3RootUser, v.GetString("s3_root_user"))
	setString(&config.S3RootPassword, v.GetString("s3_root_password"))
	setString(&config.S3Bucket, v.GetString("s3_bucket"))
	setString(&config.S3Region, v.GetString("s3_region"))
	setString(&config.S3BaseEndpoint, v.GetString("s3_base_endpoint"))
}
