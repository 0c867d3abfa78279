package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:8081", "-grpc", ":6000", "-d", "db", "-s", "secret",
				"-t", "2h", "-code-ttl", "10m", "-reset-ttl", "30m", "-base-url", "https://oan.example",
				"-l", "warn", "-smtp-host", "smtp.example", "-smtp-port", "2525",
				"-smtp-user", "mailer", "-smtp-pass", "pw", "-smtp-from", "hi@oan.example",
				"-redis", "localhost:6379", "-redis-password", "rpw", "-rate", "1.5", "-burst", "3",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddrHTTP:                 "127.0.0.1:8081",
				EndpointAddrGRPC:                 ":6000",
				DatabaseDSN:                      "db",
				SecretKey:                        "secret",
				AccessTokenValidityDuration:      2 * time.Hour,
				VerificationCodeValidityDuration: 10 * time.Minute,
				ResetTokenValidityDuration:       30 * time.Minute,
				AppBaseURL:                       "https://oan.example",
				LogLevel:                         "warn",
				SMTPHost:                         "smtp.example",
				SMTPPort:                         2525,
				SMTPUser:                         "mailer",
				SMTPPass:                         "pw",
				SMTPFrom:                         "hi@oan.example",
				RedisAddr:                        "localhost:6379",
				RedisPassword:                    "rpw",
				RateLimitRate:                    1.5,
				RateLimitBurst:                   3,
				S3RootUser:                       "user",
				S3RootPassword:                   "password",
				S3Bucket:                         "bucket",
				S3Region:                         "us-west-1",
				S3BaseEndpoint:                   "http://endpoint",
			},
		},
		{
			name:        "bad duration panics",
			args:        []string{"cmd", "-t", "forever"},
			expectPanic: true,
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"cmd", "-zzz", "1", "-d", "only-dsn"},
			expected: &Config{DatabaseDSN: "only-dsn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
