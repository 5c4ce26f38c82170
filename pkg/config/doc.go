// Package config loads typed process configuration from environment
// variables.
//
// It wraps github.com/joho/godotenv for optional dotenv files and
// github.com/caarlos0/env/v11 for struct tag parsing. Every package that
// needs settings declares its own Config struct with `env` tags and the
// process entry point loads them with Load or MustLoad:
//
//	var cfg vault.Config
//	config.MustLoad(&cfg)
//
// Parsed values are cached per type, so repeated loads of the same struct are
// cheap and consistent. ResetCache clears the cache between tests.
//
// Errors are sentinel values matched with errors.Is: ErrParsingConfig,
// ErrLoadingEnvFile and ErrNilPointer.
package config
