package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fundconnector/internal/flagx"
	"github.com/dmitrijs2005/fundconnector/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted. Zero values mean "not set"
// and leave the current value in place.
type JsonConfig struct {
	EndpointAddrHTTP                 string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC                 string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                      string         `json:"database_dsn"`
	SecretKey                        string         `json:"secret_key"`
	AccessTokenValidityDuration      timex.Duration `json:"access_token_validity_duration"`
	VerificationCodeValidityDuration timex.Duration `json:"verification_code_validity_duration"`
	ResetTokenValidityDuration       timex.Duration `json:"reset_token_validity_duration"`
	AppBaseURL                       string         `json:"app_base_url"`
	LogLevel                         string         `json:"log_level"`
	SMTPHost                         string         `json:"smtp_host"`
	SMTPPort                         int            `json:"smtp_port"`
	SMTPUser                         string         `json:"smtp_user"`
	SMTPPass                         string         `json:"smtp_pass"`
	SMTPFrom                         string         `json:"smtp_from"`
	RedisAddr                        string         `json:"redis_addr"`
	RedisPassword                    string         `json:"redis_password"`
	RateLimitRate                    *float64       `json:"rate_limit_rate"`
	RateLimitBurst                   int            `json:"rate_limit_burst"`
	S3RootUser                       string         `json:"s3_root_user"`
	S3RootPassword                   string         `json:"s3_root_password"`
	S3Bucket                         string         `json:"s3_bucket"`
	S3Region                         string         `json:"s3_region"`
	S3BaseEndpoint                   string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens. An unreadable file or invalid JSON panics, like a bad flag.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.VerificationCodeValidityDuration.Duration > 0 {
		config.VerificationCodeValidityDuration = c.VerificationCodeValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration.Duration > 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	setString(&config.AppBaseURL, c.AppBaseURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort > 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPass, c.SMTPPass)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RateLimitRate != nil {
		config.RateLimitRate = *c.RateLimitRate
	}
	if c.RateLimitBurst > 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
