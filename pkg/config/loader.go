package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// registry keeps one parsed copy per configuration type.
type registry struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	loaded = &registry{values: make(map[string]any)}

	defaultEnvLoaded sync.Once
)

// LoadEnv reads the given dotenv files into the process environment.
// Variables already set in the environment win over file values.
// Without arguments the ".env" file in the working directory is tried and
// a missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		defaultEnvLoaded.Do(func() { _ = godotenv.Load() })
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses environment variables into v based on its `env` field tags.
// Each configuration type is parsed once per process; later calls return
// the cached copy.
//
//	type VaultConfig struct {
//		Addr string        `env:"VAULT_ADDR" envDefault:"http://127.0.0.1:8200"`
//		TTL  time.Duration `env:"VAULT_CACHE_TTL" envDefault:"5s"`
//	}
//
//	var cfg VaultConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	_ = LoadEnv()

	key := typeKey[T]()

	loaded.mu.Lock()
	defer loaded.mu.Unlock()

	if cached, ok := loaded.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	loaded.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache drops every cached configuration so the next Load re-reads
// the environment. Intended for tests.
func ResetCache() {
	loaded.mu.Lock()
	loaded.values = make(map[string]any)
	loaded.mu.Unlock()
}

func typeKey[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
