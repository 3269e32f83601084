// Package config loads application configuration from environment variables
// and optional .env files.
//
// It wraps github.com/joho/godotenv (file loading) and
// github.com/caarlos0/env/v11 (struct parsing):
//
//	type Config struct {
//	    APIBase string        `env:"AUTH_API_BASE" envDefault:"http://localhost:8000"`
//	    Timeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Errors wrap ErrParsingConfig, ErrNilPointer or ErrEnvFile and can be
// compared with errors.Is.
package config
