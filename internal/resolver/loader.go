package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
)

const (
	workspaceConfigName = "snapbase.toml"
	globalConfigDir     = ".snapbase"
	globalConfigName    = "global.toml"
)

// envKoanfKeys maps the recognized SNAPBASE_* environment variables onto
// their koanf key, per the environment-variable table. AWS_* variables are
// deliberately not handled here: the storage backend's AWS SDK client reads
// those directly from its own default credential chain.
var envKoanfKeys = map[string]string{
	"SNAPBASE_S3_BUCKET":             "storage.s3.bucket",
	"SNAPBASE_S3_PREFIX":             "storage.s3.prefix",
	"SNAPBASE_S3_REGION":             "storage.s3.region",
	"SNAPBASE_S3_USE_EXPRESS":        "storage.s3.use_express",
	"SNAPBASE_S3_AVAILABILITY_ZONE":  "storage.s3.availability_zone",
	"SNAPBASE_DEFAULT_NAME_PATTERN":  "snapshot.default_name_pattern",
}

// Load merges configuration for the workspace rooted at workspaceRoot,
// highest priority first: workspace snapbase.toml, then
// ~/.snapbase/global.toml, then recognized environment variables, then
// built-in defaults. Missing files at any layer are not an error; a
// present-but-malformed file is.
func Load(workspaceRoot string) (*Config, error) {
	logger := logging.GetLogger("resolver")
	k := koanf.New(".")

	def := defaults()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return nil, snaperr.NewConfigInvalid("load defaults: %v", err)
	}

	envValues := map[string]interface{}{}
	for envVar, key := range envKoanfKeys {
		if v, ok := os.LookupEnv(envVar); ok {
			envValues[key] = v
		}
	}
	if len(envValues) > 0 {
		if err := k.Load(confmap.Provider(envValues, "."), nil); err != nil {
			return nil, snaperr.NewConfigInvalid("load environment overrides: %v", err)
		}
	}

	globalPath, err := GlobalConfigPath()
	if err == nil {
		if err := loadTOMLIfExists(k, globalPath); err != nil {
			return nil, err
		}
	}

	workspacePath := filepath.Join(workspaceRoot, workspaceConfigName)
	if err := loadTOMLIfExists(k, workspacePath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, snaperr.NewConfigInvalid("unmarshal merged config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("resolved workspace config: %s", cfg.String())
	return &cfg, nil
}

func loadTOMLIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return snaperr.NewStorageUnavailable(err, "stat config file %q", path)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return snaperr.NewConfigInvalid("parse %q: %v", path, err)
	}
	return nil
}

// GlobalConfigPath returns ~/.snapbase/global.toml for the current user.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(home, globalConfigDir, globalConfigName), nil
}

// EnsureGlobalConfig creates ~/.snapbase/global.toml with commented-out
// defaults if it does not already exist, per the resolver's
// create-on-first-init contract.
func EnsureGlobalConfig() error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return snaperr.NewStorageUnavailable(err, "stat %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return snaperr.NewStorageUnavailable(err, "create %q", filepath.Dir(path))
	}
	stub := "# Snapbase global configuration.\n" +
		"# Uncomment and edit to override per-user defaults; workspace\n" +
		"# snapbase.toml files take priority over this file.\n" +
		"# [storage]\n" +
		"# backend = \"local\"\n"
	if err := os.WriteFile(path, []byte(stub), 0o644); err != nil {
		return snaperr.NewStorageUnavailable(err, "write %q", path)
	}
	return nil
}
