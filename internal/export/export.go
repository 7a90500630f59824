// Package export materializes a resolved snapshot to an output file and
// computes the ephemeral current-vs-baseline diff used by the status
// operation.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/diff"
	"github.com/snapbase/snapbase/internal/ingest"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/snapbase/snapbase/internal/snapstore"
)

var logger = logging.GetLogger("export")

// Options controls one Export call.
type Options struct {
	Force  bool
	DryRun bool
}

// Result reports what Export wrote, or would write under DryRun.
type Result struct {
	SnapshotName string
	OutputPath   string
	RowCount     int
	Wrote        bool
}

// Export resolves sourceKey's snapshot matching reference (a literal name,
// "latest", glob, or date/datetime — the same reference grammar as
// snapstore.Store.Resolve) and writes its data through the requested
// output path, picking the writer from the path's extension.
func Export(ctx context.Context, store *snapstore.Store, sourceKey, reference, outputPath string, opts Options) (*Result, error) {
	snap, err := store.Resolve(ctx, sourceKey, reference)
	if err != nil {
		return nil, err
	}
	table, err := store.ReadData(ctx, snap)
	if err != nil {
		return nil, err
	}

	result := &Result{SnapshotName: snap.Name, OutputPath: outputPath, RowCount: table.RowCount()}
	if opts.DryRun {
		return result, nil
	}

	if !opts.Force {
		if _, err := os.Stat(outputPath); err == nil {
			return nil, snaperr.NewConfigInvalid("output %q already exists; pass force to overwrite", outputPath)
		}
	}

	if err := writeTable(table, outputPath); err != nil {
		return nil, err
	}
	result.Wrote = true
	logCtx := logging.WithSnapshotName(logging.WithSourceKey(ctx, sourceKey), snap.Name)
	logger.WithContext(logCtx).InfoWithFields("exported snapshot", logging.Field("output", outputPath))
	return result, nil
}

func writeTable(table *columnar.Table, outputPath string) error {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".csv":
		return writeCSV(table, outputPath)
	case ".parquet":
		return writeParquet(table, outputPath)
	default:
		return snaperr.NewUnsupportedFormat("cannot export to %q: unrecognized extension", outputPath)
	}
}

func writeCSV(table *columnar.Table, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return snaperr.NewStorageUnavailable(err, "create export output %q", outputPath)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Schema.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCSVCell(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatCSVCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func writeParquet(table *columnar.Table, outputPath string) error {
	data, err := columnar.WriteParquet(table)
	if err != nil {
		return fmt.Errorf("encode export parquet: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return snaperr.NewStorageUnavailable(err, "write export output %q", outputPath)
	}
	return nil
}

// ChangeRecord is the full structured result returned by Diff and Status.
type ChangeRecord struct {
	Schema diff.SchemaChanges
	Rows   diff.RowChanges
}

// Diff resolves fromRef and toRef for sourceKey and compares the two
// committed snapshots.
func Diff(ctx context.Context, store *snapstore.Store, sourceKey, fromRef, toRef string) (*ChangeRecord, error) {
	fromSnap, err := store.Resolve(ctx, sourceKey, fromRef)
	if err != nil {
		return nil, err
	}
	toSnap, err := store.Resolve(ctx, sourceKey, toRef)
	if err != nil {
		return nil, err
	}
	fromTable, err := store.ReadData(ctx, fromSnap)
	if err != nil {
		return nil, err
	}
	toTable, err := store.ReadData(ctx, toSnap)
	if err != nil {
		return nil, err
	}
	return compare(ctx, sourceKey, fromTable, toTable), nil
}

// Status computes status(source, baseline) = diff(source, baseline,
// ephemeral_snapshot_of(current file)): it ingests currentFilePath fresh,
// in memory only, and diffs it against the baseline without ever writing
// or listing the ephemeral result.
func Status(ctx context.Context, store *snapstore.Store, sourceKey, baselineRef, currentFilePath string) (*ChangeRecord, error) {
	baseline, err := store.Resolve(ctx, sourceKey, baselineRef)
	if err != nil {
		return nil, err
	}
	baselineTable, err := store.ReadData(ctx, baseline)
	if err != nil {
		return nil, err
	}

	current, _, err := ingest.ReadFile(currentFilePath)
	if err != nil {
		return nil, err
	}

	return compare(ctx, sourceKey, baselineTable, current), nil
}

func compare(ctx context.Context, sourceKey string, from, to *columnar.Table) *ChangeRecord {
	return &ChangeRecord{
		Schema: diff.DiffSchema(from.Schema, to.Schema),
		Rows:   diff.DiffRows(from, to, logger.WithContext(logging.WithSourceKey(ctx, sourceKey))),
	}
}

// DateReference formats an instant the way Store.Resolve expects for its
// date/datetime reference grammar.
func DateReference(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
