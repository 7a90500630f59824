// Package workspace is Snapbase's public façade: it locates a workspace
// root, resolves its configuration, and wires the resolver, storage
// backend, snapshot store, ingestion, embedded engine, query binder, diff
// and export components together behind the eight public operations
// (init, snapshot, status, diff, query, export, list, cleanup).
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/engine"
	"github.com/snapbase/snapbase/internal/export"
	"github.com/snapbase/snapbase/internal/ingest"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/query"
	"github.com/snapbase/snapbase/internal/resolver"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/snapbase/snapbase/internal/snapstore"
	"github.com/snapbase/snapbase/internal/storagebackend"
)

const listingCacheSize = 256

// Workspace is one self-contained, concurrency-safe handle on a workspace
// root. No package-level state is shared between instances: every
// dependency (backend, store, config) is constructed per Workspace.
type Workspace struct {
	Root    string
	Config  *resolver.Config
	Backend storagebackend.Backend
	Store   *snapstore.Store
	Metrics *Metrics

	logger *logging.Logger
}

// Open resolves configuration for root and constructs the storage backend
// it names, but does not create the workspace if absent — callers that
// mean to create one call Init.
func Open(ctx context.Context, root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, snaperr.NewConfigInvalid("resolve workspace root %q: %v", root, err)
	}

	cfg, err := resolver.Load(absRoot)
	if err != nil {
		return nil, err
	}

	backend, err := buildBackend(ctx, absRoot, cfg)
	if err != nil {
		return nil, err
	}

	store, err := snapstore.New(backend, listingCacheSize)
	if err != nil {
		return nil, err
	}

	return &Workspace{
		Root:    absRoot,
		Config:  cfg,
		Backend: backend,
		Store:   store,
		Metrics: NewMetrics(),
		logger:  logging.GetLogger("workspace"),
	}, nil
}

func buildBackend(ctx context.Context, root string, cfg *resolver.Config) (storagebackend.Backend, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storagebackend.NewS3Backend(ctx, storagebackend.S3Config{
			Bucket:           cfg.Storage.S3.Bucket,
			Prefix:           cfg.Storage.S3.Prefix,
			Region:           cfg.Storage.S3.Region,
			UseExpress:       cfg.Storage.S3.UseExpress,
			AvailabilityZone: cfg.Storage.S3.AvailabilityZone,
		})
	default:
		sourcesRoot := cfg.Storage.Local.Path
		if !filepath.IsAbs(sourcesRoot) {
			sourcesRoot = filepath.Join(root, sourcesRoot)
		}
		return storagebackend.NewLocalBackend(sourcesRoot)
	}
}

// sourcesRootMarker exists check: a workspace is initialized when it has
// either snapbase.toml or its sources root.
func isInitialized(root string, cfg *resolver.Config) bool {
	if _, err := os.Stat(filepath.Join(root, "snapbase.toml")); err == nil {
		return true
	}
	sourcesRoot := cfg.Storage.Local.Path
	if !filepath.IsAbs(sourcesRoot) {
		sourcesRoot = filepath.Join(root, sourcesRoot)
	}
	_, err := os.Stat(sourcesRoot)
	return err == nil
}

// Init creates the workspace root and sources root if absent, and ensures
// the user-global config file exists.
func Init(ctx context.Context, root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, snaperr.NewConfigInvalid("resolve workspace root %q: %v", root, err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "create workspace root %q", absRoot)
	}
	if err := resolver.EnsureGlobalConfig(); err != nil {
		return nil, err
	}
	return Open(ctx, absRoot)
}

// requireInitialized fails with NotInitialized unless the workspace has
// already been set up via Init.
func (w *Workspace) requireInitialized() error {
	if !isInitialized(w.Root, w.Config) {
		return snaperr.NewNotInitialized("workspace %q has neither snapbase.toml nor a sources root; run init first", w.Root)
	}
	return nil
}

// sourceKeyForFile derives the source key for a tracked file input: its
// workspace-relative path, checked against the workspace boundary.
func (w *Workspace) sourceKeyForFile(inputPath string) (string, string, error) {
	abs, err := resolver.CheckBoundary(w.Root, inputPath)
	if err != nil {
		return "", "", err
	}
	rel, err := filepath.Rel(w.Root, abs)
	if err != nil {
		return "", "", snaperr.NewConfigInvalid("compute source key for %q: %v", inputPath, err)
	}
	return filepath.ToSlash(rel), abs, nil
}

// Snapshot ingests inputPath (a file source) and commits a new snapshot,
// expanding name from the configured pattern when empty.
func (w *Workspace) Snapshot(ctx context.Context, inputPath, name string) (*snapstore.Snapshot, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	sourceKey, abs, err := w.sourceKeyForFile(inputPath)
	if err != nil {
		return nil, err
	}

	table, format, err := ingest.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "stat %q", abs)
	}

	return w.commitSnapshot(ctx, sourceKey, string(format), name, table, uint64(info.Size()))
}

func (w *Workspace) commitSnapshot(ctx context.Context, sourceKey, format, name string, table *columnar.Table, byteSize uint64) (*snapstore.Snapshot, error) {
	now := time.Now().UTC()
	if name == "" {
		existing, err := w.existingNames(ctx, sourceKey)
		if err != nil {
			return nil, err
		}
		name, err = resolver.ExpandNamePattern(w.Config.Snapshot.DefaultNamePattern, resolver.NameContext{
			SourceKey: sourceKey,
			Format:    format,
			Existing:  existing,
		})
		if err != nil {
			return nil, err
		}
	}

	handle, err := w.Store.Create(ctx, sourceKey, name, now, format)
	if err != nil {
		return nil, err
	}
	meta := snapstore.MetadataFromTable(handle.Name, sourceKey, format, byteSize, now, table, 0)
	if err := w.Store.Finalize(ctx, handle, table, meta); err != nil {
		return nil, err
	}
	w.Metrics.SnapshotsCreated.WithLabelValues(sourceKey).Inc()

	snap, err := w.Store.Resolve(ctx, sourceKey, handle.Name)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (w *Workspace) existingNames(ctx context.Context, sourceKey string) (map[string]bool, error) {
	snaps, err := w.Store.List(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(snaps))
	for _, s := range snaps {
		out[s.Name] = true
	}
	return out, nil
}

// SnapshotDatabase connects to the database declared under alias and
// commits one snapshot per selected table, per the one-snapshot-per-table
// interpretation of live-database ingestion.
func (w *Workspace) SnapshotDatabase(ctx context.Context, alias string) ([]*snapstore.Snapshot, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	dbCfg, ok := w.Config.Databases[alias]
	if !ok {
		return nil, snaperr.NewConfigInvalid("no databases.%s configuration found", alias)
	}

	db, err := ingest.OpenDatabase(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tableSnapshots, err := ingest.ReadDatabaseTables(ctx, db, dbCfg.Tables, dbCfg.ExcludeTables)
	if err != nil {
		return nil, err
	}

	var out []*snapstore.Snapshot
	for _, ts := range tableSnapshots {
		sourceKey := fmt.Sprintf("%s/%s", alias, ts.TableName)
		snap, err := w.commitSnapshot(ctx, sourceKey, "database", "", ts.Table, 0)
		if err != nil {
			return out, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// SnapshotSQLScript ingests a .sql source: substitutes {DB_*} tokens,
// executes every statement against the declared database, and snapshots
// the final statement's result set.
func (w *Workspace) SnapshotSQLScript(ctx context.Context, scriptPath, databaseAlias, name string) (*snapstore.Snapshot, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	sourceKey, abs, err := w.sourceKeyForFile(scriptPath)
	if err != nil {
		return nil, err
	}
	script, err := os.ReadFile(abs)
	if err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "read %q", abs)
	}

	dbCfg, ok := w.Config.Databases[databaseAlias]
	if !ok {
		return nil, snaperr.NewConfigInvalid("no databases.%s configuration found", databaseAlias)
	}
	db, err := ingest.OpenDatabase(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	table, err := ingest.ReadSQLScript(ctx, db, string(script))
	if err != nil {
		return nil, err
	}
	return w.commitSnapshot(ctx, sourceKey, "sql", name, table, uint64(len(script)))
}

// List returns every committed snapshot for sourceKey in timestamp order.
func (w *Workspace) List(ctx context.Context, sourceKey string) ([]snapstore.Snapshot, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	return w.Store.List(ctx, sourceKey)
}

// Cleanup retains the keepFullN most recent snapshots for sourceKey.
func (w *Workspace) Cleanup(ctx context.Context, sourceKey string, keepFullN int) ([]string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	dropped, err := w.Store.Cleanup(ctx, sourceKey, keepFullN)
	if err != nil {
		return nil, err
	}
	w.Metrics.CleanupsRun.Inc()
	return dropped, nil
}

// Diff compares two committed snapshots of sourceKey.
func (w *Workspace) Diff(ctx context.Context, sourceKey, fromRef, toRef string) (*export.ChangeRecord, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	record, err := export.Diff(ctx, w.Store, sourceKey, fromRef, toRef)
	if err != nil {
		return nil, err
	}
	w.Metrics.DiffsComputed.Inc()
	return record, nil
}

// Status diffs sourceKey's baseline snapshot against an ephemeral,
// never-persisted ingestion of currentFilePath.
func (w *Workspace) Status(ctx context.Context, sourceKey, baselineRef, currentFilePath string) (*export.ChangeRecord, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	_, abs, err := w.sourceKeyForFile(currentFilePath)
	if err != nil {
		return nil, err
	}
	record, err := export.Status(ctx, w.Store, sourceKey, baselineRef, abs)
	if err != nil {
		return nil, err
	}
	w.Metrics.DiffsComputed.Inc()
	return record, nil
}

// Export materializes sourceKey's resolved snapshot to outputPath.
func (w *Workspace) Export(ctx context.Context, sourceKey, reference, outputPath string, opts export.Options) (*export.Result, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	result, err := export.Export(ctx, w.Store, sourceKey, reference, outputPath, opts)
	if err != nil {
		return nil, err
	}
	if result.Wrote {
		w.Metrics.ExportsWritten.Inc()
	}
	return result, nil
}

// Query executes sql against the named sources, binding each to its
// snapshot union (restricted by snapshotFilter) through a fresh embedded
// engine instance scoped to this call.
func (w *Workspace) Query(ctx context.Context, sources []query.Source, sql, snapshotFilter string) (*columnar.Table, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	eng, err := engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	binder := query.New(w.Store, eng)
	result, err := binder.Execute(ctx, sources, sql, snapshotFilter)
	if err != nil {
		return nil, err
	}
	w.Metrics.QueriesExecuted.Inc()
	return result, nil
}
