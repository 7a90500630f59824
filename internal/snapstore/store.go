package snapstore

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/resolver"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/snapbase/snapbase/internal/storagebackend"
)

const (
	claimObject    = ".claim"
	dataObject     = "data.parquet"
	metadataObject = "metadata.json"
	timestampLayout = "20060102T150405Z"
)

// Handle identifies a claimed, not-yet-finalized snapshot partition.
type Handle struct {
	SourceKey string
	Name      string
	Timestamp time.Time
	prefix    string
}

// Snapshot is one committed partition: the metadata plus the prefix it
// lives at, enough to fetch data.parquet on demand.
type Snapshot struct {
	SourceKey string
	Name      string
	Timestamp time.Time
	Metadata  Metadata
	prefix    string
}

// Store lays out partitioned snapshot artifacts over a storage backend.
type Store struct {
	backend storagebackend.Backend
	logger  *logging.Logger
	cache   *lru.Cache[string, []Snapshot]
}

// New creates a store over backend. cache sizes the per-source listing
// cache; 0 disables caching.
func New(backend storagebackend.Backend, cacheSize int) (*Store, error) {
	var cache *lru.Cache[string, []Snapshot]
	if cacheSize > 0 {
		c, err := lru.New[string, []Snapshot](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create snapshot listing cache: %w", err)
		}
		cache = c
	}
	return &Store{backend: backend, logger: logging.GetLogger("snapstore"), cache: cache}, nil
}

func sourcePrefix(sourceKey string) string {
	return path.Join("sources", sanitizeSourceKey(sourceKey))
}

// sanitizeSourceKey makes a source key safe as a storage path segment,
// replacing path separators in multi-segment keys (e.g. database sources
// "alias/table") with a character that still renders uniquely per source
// while staying filesystem- and URL-safe.
func sanitizeSourceKey(key string) string {
	return strings.ReplaceAll(key, "/", "__")
}

func partitionPrefix(sourceKey, name string, ts time.Time) string {
	return path.Join(sourcePrefix(sourceKey),
		fmt.Sprintf("snapshot_name=%s", name),
		fmt.Sprintf("snapshot_timestamp=%s", ts.UTC().Format(timestampLayout)))
}

// Create validates the snapshot name (callers expand a name pattern
// beforehand), refuses a name already committed for the source, and claims
// its partition prefix by writing a marker holding a random uuid token
// first. A collision — a committed snapshot of that name, or an existing
// claim — fails with DuplicateSnapshot without touching any existing data.
// Two concurrent Creates of one name are caught by the claim only when
// their timestamps fall in the same second.
func (s *Store) Create(ctx context.Context, sourceKey, name string, ts time.Time, format string) (*Handle, error) {
	if name == "" {
		return nil, snaperr.NewConfigInvalid("snapshot name must be resolved before Create is called")
	}
	if err := resolver.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	existing, err := s.List(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	for _, sn := range existing {
		if sn.Name == name {
			return nil, snaperr.NewDuplicateSnapshot("snapshot %q already exists for source %q", name, sourceKey)
		}
	}

	prefix := partitionPrefix(sourceKey, name, ts)
	claimKey := path.Join(prefix, claimObject)

	claimToken := uuid.NewString()
	ok, err := s.backend.PutIfAbsent(ctx, claimKey, []byte(claimToken))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, snaperr.NewDuplicateSnapshot("snapshot %q already exists for source %q", name, sourceKey)
	}

	return &Handle{SourceKey: sourceKey, Name: name, Timestamp: ts, prefix: prefix}, nil
}

// Finalize writes data.parquet then metadata.json last, so a reader that
// observes the partition before metadata.json lands treats it as
// not-yet-committed.
func (s *Store) Finalize(ctx context.Context, h *Handle, table *columnar.Table, meta Metadata) error {
	data, err := columnar.WriteParquet(table)
	if err != nil {
		return fmt.Errorf("encode data.parquet: %w", err)
	}
	if compressedSize, err := estimateCompressedSize(data); err == nil {
		meta.CompressedByteCount = compressedSize
	} else {
		meta.CompressedByteCount = uint64(len(data))
	}

	if err := s.backend.PutBytes(ctx, path.Join(h.prefix, dataObject), data); err != nil {
		return err
	}

	metaBytes, err := meta.marshal()
	if err != nil {
		return fmt.Errorf("encode metadata.json: %w", err)
	}
	if err := s.backend.PutBytes(ctx, path.Join(h.prefix, metadataObject), metaBytes); err != nil {
		return err
	}

	s.invalidate(h.SourceKey)
	logCtx := logging.WithSnapshotName(logging.WithSourceKey(ctx, h.SourceKey), h.Name)
	s.logger.WithContext(logCtx).InfoWithFields("snapshot finalized",
		logging.Field("row_count", meta.Source.RowCount))
	return nil
}

func (s *Store) invalidate(sourceKey string) {
	if s.cache != nil {
		s.cache.Remove(sourceKey)
	}
}

// List returns every committed snapshot for sourceKey in ascending
// timestamp order (ties broken by name). Partitions without metadata.json
// are silently skipped — they are uncommitted or abandoned claims.
func (s *Store) List(ctx context.Context, sourceKey string) ([]Snapshot, error) {
	logger := s.logger.WithContext(logging.WithSourceKey(ctx, sourceKey))
	if s.cache != nil {
		if v, ok := s.cache.Get(sourceKey); ok {
			return v, nil
		}
	}

	keys, err := s.backend.ListPrefix(ctx, sourcePrefix(sourceKey))
	if err != nil {
		return nil, err
	}

	prefixes := map[string]bool{}
	for _, k := range keys {
		if strings.HasSuffix(k, "/"+metadataObject) {
			prefixes[strings.TrimSuffix(k, "/"+metadataObject)] = true
		}
	}

	var snaps []Snapshot
	for prefix := range prefixes {
		name, ts, ok := parsePartitionPrefix(prefix)
		if !ok {
			continue
		}
		metaBytes, err := s.backend.GetBytes(ctx, path.Join(prefix, metadataObject))
		if err != nil {
			continue
		}
		meta, err := unmarshalMetadata(metaBytes)
		if err != nil {
			logger.Warn("skipping unreadable metadata at %s: %v", prefix, err)
			continue
		}
		snaps = append(snaps, Snapshot{SourceKey: sourceKey, Name: name, Timestamp: ts, Metadata: meta, prefix: prefix})
	}

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Timestamp.Equal(snaps[j].Timestamp) {
			return snaps[i].Name < snaps[j].Name
		}
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})

	if s.cache != nil {
		s.cache.Add(sourceKey, snaps)
	}
	return snaps, nil
}

func parsePartitionPrefix(prefix string) (name string, ts time.Time, ok bool) {
	parts := strings.Split(prefix, "/")
	if len(parts) < 2 {
		return "", time.Time{}, false
	}
	namePart := parts[len(parts)-2]
	tsPart := parts[len(parts)-1]
	if !strings.HasPrefix(namePart, "snapshot_name=") || !strings.HasPrefix(tsPart, "snapshot_timestamp=") {
		return "", time.Time{}, false
	}
	name = strings.TrimPrefix(namePart, "snapshot_name=")
	tsStr := strings.TrimPrefix(tsPart, "snapshot_timestamp=")
	parsed, err := time.Parse(timestampLayout, tsStr)
	if err != nil {
		return "", time.Time{}, false
	}
	return name, parsed, true
}

// Resolve finds the snapshot matching reference: a literal name, "latest",
// a glob containing * or ?, or a date/datetime (the most recent snapshot
// at or before that instant).
func (s *Store) Resolve(ctx context.Context, sourceKey, reference string) (*Snapshot, error) {
	snaps, err := s.List(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, snaperr.NewSnapshotNotFound("no snapshots for source %q", sourceKey)
	}

	switch {
	case reference == "latest":
		return &snaps[len(snaps)-1], nil
	case strings.ContainsAny(reference, "*?"):
		var best *Snapshot
		for i := range snaps {
			if globMatch(reference, snaps[i].Name) {
				best = &snaps[i]
			}
		}
		if best == nil {
			return nil, snaperr.NewSnapshotNotFound("no snapshot of %q matches pattern %q", sourceKey, reference)
		}
		return best, nil
	default:
		if t, err := parseFlexibleTime(reference); err == nil {
			var best *Snapshot
			for i := range snaps {
				if !snaps[i].Timestamp.After(t) {
					best = &snaps[i]
				}
			}
			if best == nil {
				return nil, snaperr.NewSnapshotNotFound("no snapshot of %q at or before %s", sourceKey, reference)
			}
			return best, nil
		}
		for i := range snaps {
			if snaps[i].Name == reference {
				return &snaps[i], nil
			}
		}
		return nil, snaperr.NewSnapshotNotFound("no snapshot named %q for source %q", reference, sourceKey)
	}
}

// Partition describes one resolved location for query binding.
type Partition struct {
	Name      string
	Timestamp time.Time
	Prefix    string
}

// IterPartitions lists every committed partition of sourceKey for query
// binding, in the same order as List.
func (s *Store) IterPartitions(ctx context.Context, sourceKey string) ([]Partition, error) {
	snaps, err := s.List(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, len(snaps))
	for i, sn := range snaps {
		out[i] = Partition{Name: sn.Name, Timestamp: sn.Timestamp, Prefix: sn.prefix}
	}
	return out, nil
}

// ReadData reads and decodes a snapshot's data.parquet.
func (s *Store) ReadData(ctx context.Context, sn *Snapshot) (*columnar.Table, error) {
	data, err := s.backend.GetBytes(ctx, path.Join(sn.prefix, dataObject))
	if err != nil {
		return nil, err
	}
	return columnar.ReadParquet(data, sn.Metadata.ToColumnarSchema())
}

// Cleanup retains the keepFullN most recent snapshots per source and
// deletes the rest. Deleted partitions are removed entirely, never
// mutated in place; this is the implementation's chosen interpretation of
// the open "delete vs. compress" design question, recorded in the design
// notes.
func (s *Store) Cleanup(ctx context.Context, sourceKey string, keepFullN int) ([]string, error) {
	snaps, err := s.List(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	if keepFullN < 0 {
		keepFullN = 0
	}
	if len(snaps) <= keepFullN {
		return nil, nil
	}

	toDrop := snaps[:len(snaps)-keepFullN]
	var dropped []string
	for _, sn := range toDrop {
		if err := s.backend.DeletePrefix(ctx, sn.prefix); err != nil {
			return dropped, err
		}
		dropped = append(dropped, sn.Name)
	}
	s.invalidate(sourceKey)
	return dropped, nil
}

func globMatch(pattern, name string) bool {
	return globMatchRunes([]rune(pattern), []rune(name))
}

func globMatchRunes(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatchRunes(pattern[1:], name) {
			return true
		}
		for i := 0; i < len(name); i++ {
			if globMatchRunes(pattern[1:], name[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	default:
		if len(name) == 0 || name[0] != pattern[0] {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	}
}

func parseFlexibleTime(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
