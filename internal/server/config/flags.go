package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fundconnector/internal/flagx"
)

var knownFlags = []string{
	"-a", "-grpc", "-d", "-s", "-t", "-code-ttl", "-reset-ttl", "-base-url", "-l",
	"-smtp-host", "-smtp-port", "-smtp-user", "-smtp-pass", "-smtp-from",
	"-redis", "-redis-password", "-rate", "-burst",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-grpc string     gRPC health bind address
//	-d string        PostgreSQL DSN
//	-s string        JWT HMAC secret key
//	-t duration      bearer token validity (e.g., "168h")
//	-code-ttl dur    verification code validity
//	-reset-ttl dur   password reset token validity
//	-base-url string frontend URL used in reset links
//	-l string        log level
//	-smtp-*          SMTP host, port, user, pass, from
//	-redis string    Redis address, -redis-password its password
//	-rate / -burst   auth rate limit (tokens per second, bucket size)
//	-u -p -b -g -e   S3 user, password, bucket, region, endpoint
//
// Only the flags above are looked at; everything else in os.Args is dropped
// with flagx.FilterArgs first.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.VerificationCodeValidityDuration, "code-ttl", config.VerificationCodeValidityDuration, "verification code validity")
	fs.DurationVar(&config.ResetTokenValidityDuration, "reset-ttl", config.ResetTokenValidityDuration, "password reset token validity")
	fs.StringVar(&config.AppBaseURL, "base-url", config.AppBaseURL, "public app URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "smtp-port", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPass, "smtp-pass", config.SMTPPass, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "smtp-from", config.SMTPFrom, "sender address")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "Redis address")
	fs.StringVar(&config.RedisPassword, "redis-password", config.RedisPassword, "Redis password")
	fs.Float64Var(&config.RateLimitRate, "rate", config.RateLimitRate, "auth rate limit, tokens per second")
	fs.IntVar(&config.RateLimitBurst, "burst", config.RateLimitBurst, "auth rate limit bucket size")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
