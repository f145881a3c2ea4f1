package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Source supplies raw configuration values by key.
type Source interface {
	Lookup(key string) (string, bool)
}

// EnvSource reads the process environment.
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource serves values from a map. Empty values count as unset.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Chain consults each source in order; the first that has the key wins.
func Chain(sources ...Source) Source {
	return chain(sources)
}

type chain []Source

func (c chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// LoadEnvFile reads KEY=VALUE pairs from path without touching the process
// environment. A missing file yields an empty source; an empty path disables
// the file entirely.
func LoadEnvFile(path string) (MapSource, error) {
	if path == "" {
		return MapSource{}, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return MapSource{}, nil
	}
	if err != nil {
		return nil, &ConfigError{Key: path, Problems: []error{err}}
	}
	return MapSource(values), nil
}
