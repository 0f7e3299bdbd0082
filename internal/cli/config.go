package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/snapstore"
)

// Config is the CLI configuration, loaded from a TOML file.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects and configures the snapshot store backend.
type StoreConfig struct {
	// Backend is one of "file", "memory", "sqlite", "redis", "mongo".
	Backend string `toml:"backend"`

	// Dir is the snapshot directory for the file backend.
	// Empty means the XDG data directory.
	Dir string `toml:"dir"`

	// Path is the database file for the sqlite backend.
	Path string `toml:"path"`

	// Addr is the host:port of the redis backend.
	Addr string `toml:"addr"`

	// URI and Database configure the mongo backend.
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	// Listen is the address the HTTP service binds to.
	Listen string `toml:"listen"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend:  "file",
			Addr:     "localhost:6379",
			URI:      "mongodb://localhost:27017",
			Database: appName,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
	}
}

// configPath returns the config file location using the XDG standard
// (~/.config/tether/config.toml), honoring XDG_CONFIG_HOME.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the configuration at path, or the default location
// when path is empty. A missing file yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return cfg, nil
}

// openStore creates the snapshot store selected by the configuration,
// wrapped with observability instrumentation.
func openStore(ctx context.Context, cfg StoreConfig) (snapstore.Store, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = dataDir(); err != nil {
				return nil, err
			}
		}
		s, err := snapstore.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return snapstore.Instrument("file", s), nil
	case "memory":
		return snapstore.Instrument("memory", snapstore.NewMemoryStore()), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			dir, err := dataDir()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "snapshots.db")
		}
		s, err := snapstore.NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		return snapstore.Instrument("sqlite", s), nil
	case "redis":
		s, err := snapstore.NewRedisStore(ctx, cfg.Addr)
		if err != nil {
			return nil, err
		}
		return snapstore.Instrument("redis", s), nil
	case "mongo":
		s, err := snapstore.NewMongoStore(ctx, cfg.URI, cfg.Database)
		if err != nil {
			return nil, err
		}
		return snapstore.Instrument("mongo", s), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
}
