// Package resolver loads and merges workspace configuration, enforces the
// workspace boundary, and expands snapshot name patterns. It is the single
// place the rest of the core asks "what is this workspace configured to
// do", following the layered-load shape of the teacher's koanf-based
// integration loader, generalized from one YAML file to the workspace /
// global / environment / defaults chain this engine needs.
package resolver

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/snaperr"
)

// DatabaseConfig describes one entry under [databases.<alias>].
type DatabaseConfig struct {
	Type             string   `koanf:"type"`
	Host             string   `koanf:"host"`
	Port             int      `koanf:"port"`
	Database         string   `koanf:"database"`
	Username         string   `koanf:"username"`
	PasswordEnv      string   `koanf:"password_env"`
	ConnectionString string   `koanf:"connection_string"`
	Tables           []string `koanf:"tables"`
	ExcludeTables    []string `koanf:"exclude_tables"`
}

// S3Settings mirrors the storage.s3.* keys.
type S3Settings struct {
	Bucket           string `koanf:"bucket"`
	Prefix           string `koanf:"prefix"`
	Region           string `koanf:"region"`
	UseExpress       bool   `koanf:"use_express"`
	AvailabilityZone string `koanf:"availability_zone"`
}

// LocalSettings mirrors storage.local.*.
type LocalSettings struct {
	Path string `koanf:"path"`
}

// StorageSettings mirrors storage.*.
type StorageSettings struct {
	Backend string        `koanf:"backend"`
	Local   LocalSettings `koanf:"local"`
	S3      S3Settings    `koanf:"s3"`
}

// SnapshotSettings mirrors snapshot.*.
type SnapshotSettings struct {
	DefaultNamePattern string `koanf:"default_name_pattern"`
}

// Config is the fully merged, validated configuration for one workspace,
// exactly the keys enumerated in the recognized-options table: storage
// backend selection, the default name pattern, and database source
// definitions.
type Config struct {
	Storage   StorageSettings           `koanf:"storage"`
	Snapshot  SnapshotSettings          `koanf:"snapshot"`
	Databases map[string]DatabaseConfig `koanf:"databases"`
}

// defaults returns the built-in configuration, the lowest-priority layer.
func defaults() Config {
	return Config{
		Storage: StorageSettings{
			Backend: "local",
			Local:   LocalSettings{Path: ".snapbase"},
		},
		Snapshot: SnapshotSettings{
			DefaultNamePattern: "{source}_{timestamp}",
		},
		Databases: map[string]DatabaseConfig{},
	}
}

// Validate checks that the merged configuration is internally consistent,
// per ConfigInvalid in the error handling design.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return snaperr.NewConfigInvalid("storage.backend must be %q or %q, got %q", "local", "s3", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" {
		if c.Storage.S3.Bucket == "" {
			return snaperr.NewConfigInvalid("storage.s3.bucket is required when storage.backend=s3")
		}
		if c.Storage.S3.UseExpress && c.Storage.S3.AvailabilityZone == "" {
			return snaperr.NewConfigInvalid("storage.s3.availability_zone is required when storage.s3.use_express is set")
		}
	}
	if c.Storage.Local.Path == "" {
		return snaperr.NewConfigInvalid("storage.local.path must not be empty")
	}
	if c.Snapshot.DefaultNamePattern == "" {
		return snaperr.NewConfigInvalid("snapshot.default_name_pattern must not be empty")
	}
	for alias, db := range c.Databases {
		if db.Type == "" {
			return snaperr.NewConfigInvalid("databases.%s.type is required", alias)
		}
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("Config{backend=%s, local.path=%s, databases=%d}", c.Storage.Backend, c.Storage.Local.Path, len(c.Databases))
}
