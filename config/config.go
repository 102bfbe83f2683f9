// Package config loads neovm settings from a TOML file and the
// environment. Environment variables override the file:
//
//	NEOVM_RUN_LIMIT       [vm] run_limit
//	NEOVM_TRACE           [vm] trace
//	NEOVM_WITNESSES       [vm] witnesses (comma-separated)
//	NEOVM_STORAGE_DRIVER  [storage] driver
//	NEOVM_DB_URL          [storage] dsn
//	NEOVM_CACHE_SIZE      [registry] cache_size
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/CityOfZion/neo-ruby-sdk/env"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var ErrInvalid = errors.New("invalid configuration")

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	VM       VM       `toml:"vm"`
	Storage  Storage  `toml:"storage"`
	Registry Registry `toml:"registry"`
}

type VM struct {
	// RunLimit bounds the operations per invocation. Zero means no
	// limit.
	RunLimit int64 `toml:"run_limit"`
	Trace    bool  `toml:"trace"`

	// Witnesses are the script hashes for which
	// Runtime.CheckWitness succeeds.
	Witnesses []string `toml:"witnesses"`
}

type Storage struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type Registry struct {
	CacheSize int `toml:"cache_size"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Storage:  Storage{Driver: DriverMemory},
		Registry: Registry{CacheSize: 128},
	}
}

// Load reads the file at path, if path is not empty, over the
// defaults, then applies the environment read through lookup
// (os.LookupEnv when nil).
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, errors.Wrap(err, "reading config")
		}
		md, err := toml.Decode(string(b), &c)
		if err != nil {
			return c, errors.Sub(ErrInvalid, errors.Wrap(err, path))
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return c, errors.WithDetailf(ErrInvalid, "%s: unknown key %s", path, keys[0])
		}
	}

	s := env.NewSet()
	s.Lookup = lookup
	s.Int64Var(&c.VM.RunLimit, "NEOVM_RUN_LIMIT", c.VM.RunLimit)
	s.BoolVar(&c.VM.Trace, "NEOVM_TRACE", c.VM.Trace)
	s.StringSliceVar(&c.VM.Witnesses, "NEOVM_WITNESSES", c.VM.Witnesses...)
	s.StringVar(&c.Storage.Driver, "NEOVM_STORAGE_DRIVER", c.Storage.Driver)
	s.StringVar(&c.Storage.DSN, "NEOVM_DB_URL", c.Storage.DSN)
	s.IntVar(&c.Registry.CacheSize, "NEOVM_CACHE_SIZE", c.Registry.CacheSize)
	if err := s.Parse(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.WithDetailf(ErrInvalid, "storage driver %s needs a dsn", c.Storage.Driver)
		}
	default:
		return errors.WithDetailf(ErrInvalid, "unknown storage driver %q", c.Storage.Driver)
	}
	if c.VM.RunLimit < 0 {
		return errors.WithDetailf(ErrInvalid, "negative run_limit %d", c.VM.RunLimit)
	}
	for _, w := range c.VM.Witnesses {
		if _, err := vm.ParseHash(w); err != nil {
			return errors.Sub(ErrInvalid, err)
		}
	}
	if c.Registry.CacheSize < 0 {
		return errors.WithDetailf(ErrInvalid, "negative cache_size %d", c.Registry.CacheSize)
	}
	return nil
}
