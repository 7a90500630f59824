package logging

import "context"

// Context keys carrying the source and snapshot identity of the workspace
// operation currently in flight. A single CLI invocation can touch many
// sources (e.g. SnapshotDatabase loops over every selected table) and many
// snapshot partitions (the query binder unions several), so these are
// propagated through context rather than threaded as logger fields by every
// call site that might log during ingestion, storage, or diffing.
type contextKey string

const (
	sourceKeyContextKey    contextKey = "source_key"
	snapshotNameContextKey contextKey = "snapshot_name"
)

// WithSourceKey returns a context tagged with the source a workspace
// operation is currently acting on. Loggers created via WithContext(ctx)
// include it as a "source" field on every message automatically.
func WithSourceKey(ctx context.Context, sourceKey string) context.Context {
	return context.WithValue(ctx, sourceKeyContextKey, sourceKey)
}

// WithSnapshotName returns a context additionally tagged with the snapshot
// name being claimed, finalized, or resolved.
func WithSnapshotName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, snapshotNameContextKey, name)
}

// extractContextFields pulls the source/snapshot identity out of ctx, if
// present. Returns nil when ctx carries neither, so callers can skip
// allocating a merged fields map on the common case of an untagged context.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	var fields map[string]interface{}
	if v := ctx.Value(sourceKeyContextKey); v != nil {
		fields = map[string]interface{}{"source": v}
	}
	if v := ctx.Value(snapshotNameContextKey); v != nil {
		if fields == nil {
			fields = make(map[string]interface{}, 1)
		}
		fields["snapshot"] = v
	}
	return fields
}
