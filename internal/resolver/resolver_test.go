package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, ".snapbase", cfg.Storage.Local.Path)
}

func TestLoad_WorkspaceOverridesDefaults(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	toml := "[storage]\nbackend = \"s3\"\n\n[storage.s3]\nbucket = \"my-bucket\"\nregion = \"us-east-1\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, "snapbase.toml"), []byte(toml), 0o644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "my-bucket", cfg.Storage.S3.Bucket)
}

func TestLoad_EnvOverridesGlobalButNotWorkspace(t *testing.T) {
	ws := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".snapbase"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".snapbase", "global.toml"),
		[]byte("[snapshot]\ndefault_name_pattern = \"{source}_global\"\n"), 0o644))

	t.Setenv("SNAPBASE_DEFAULT_NAME_PATTERN", "{source}_env")

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "{source}_env", cfg.Snapshot.DefaultNamePattern, "env must beat global but workspace (absent here) would beat env")

	require.NoError(t, os.WriteFile(filepath.Join(ws, "snapbase.toml"),
		[]byte("[snapshot]\ndefault_name_pattern = \"{source}_ws\"\n"), 0o644))
	cfg, err = Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "{source}_ws", cfg.Snapshot.DefaultNamePattern)
}

func TestLoad_InvalidS3Config(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(ws, "snapbase.toml"),
		[]byte("[storage]\nbackend = \"s3\"\n"), 0o644))

	_, err := Load(ws)
	require.Error(t, err)
	assert.True(t, snaperr.Is(err, snaperr.KindConfigInvalid))
}

func TestExpandNamePattern_Deterministic(t *testing.T) {
	fixedNow := func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }
	fixedHash := func() (string, error) { return "abc1234", nil }

	ctx := NameContext{SourceKey: "orders.csv", Format: "csv", Existing: map[string]bool{}, Now: fixedNow, HashFunc: fixedHash}

	name1, err := ExpandNamePattern("{source}_{timestamp}", ctx)
	require.NoError(t, err)
	name2, err := ExpandNamePattern("{source}_{timestamp}", ctx)
	require.NoError(t, err)
	assert.Equal(t, name1, name2)
	assert.Equal(t, "orders_20260731T120000Z", name1)
}

func TestExpandNamePattern_SeqIsSmallestUnused(t *testing.T) {
	ctx := NameContext{
		SourceKey: "orders.csv",
		Existing:  map[string]bool{"orders_1": true, "orders_2": true},
		Now:       func() time.Time { return time.Unix(0, 0) },
	}
	name, err := ExpandNamePattern("orders_{seq}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "orders_3", name)
}

func TestValidateSnapshotName(t *testing.T) {
	assert.NoError(t, ValidateSnapshotName("v1.2-3_final"))
	assert.Error(t, ValidateSnapshotName(""))
	assert.Error(t, ValidateSnapshotName("has/slash"))
	assert.Error(t, ValidateSnapshotName("has space"))
}

func TestCheckBoundary_RejectsEscape(t *testing.T) {
	ws := t.TempDir()
	_, err := CheckBoundary(ws, "../outside.csv")
	require.Error(t, err)
	assert.True(t, snaperr.Is(err, snaperr.KindOutsideWorkspace))

	ok, err := CheckBoundary(ws, "data/orders.csv")
	require.NoError(t, err)
	assert.Contains(t, ok, ws)
}
