package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrParsing indicates the environment could not be parsed into the target.
	ErrParsing = errors.New("failed to parse config")
	// ErrReadFile indicates a config file could not be read or decoded.
	ErrReadFile = errors.New("failed to read config file")
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (value of T)
	loadMu     sync.Mutex
)

func loadDotenv() {
	dotenvOnce.Do(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	})
}

// Load fills cfg from the environment (and a .env file if present). The
// first successful load of a type is cached and copied into later calls.
func Load[T any](cfg *T) error {
	typ := reflect.TypeFor[T]()
	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()
	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	loadDotenv()
	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return fmt.Errorf("%w: %w", ErrParsing, err)
	}
	cache.Store(typ, fresh)
	*cfg = fresh
	return nil
}

// MustLoad is Load that panics on failure. Intended for startup code.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// LoadFile fills cfg from the environment, then overlays the YAML file at
// path: keys present in the file win. The result is not cached.
func LoadFile[T any](path string, cfg *T) error {
	loadDotenv()

	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return fmt.Errorf("%w: %w", ErrParsing, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	if err := yaml.Unmarshal(data, &fresh); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFile, path, err)
	}

	*cfg = fresh
	return nil
}
