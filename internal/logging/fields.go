package logging

// cloneFields copies src so a derived logger (WithField, WithFields,
// WithContext) never mutates the fields map of the logger it was built
// from. Returns a fresh empty map if src is nil or empty.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return make(map[string]interface{})
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// mergeFields combines a logger's ambient context (source/snapshot identity
// from its context.Context), its persistent fields (set via WithField), and
// fields supplied at the call site, in that priority order — a call-site
// field always wins a collision with a persistent or context field. Returns
// nil when there is nothing to merge, so the no-fields common case avoids
// an allocation.
func mergeFields(contextFields, persistent map[string]interface{}, callSite ...LogField) map[string]interface{} {
	if len(contextFields) == 0 && len(persistent) == 0 && len(callSite) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(contextFields)+len(persistent)+len(callSite))
	for k, v := range contextFields {
		merged[k] = v
	}
	for k, v := range persistent {
		merged[k] = v
	}
	for _, f := range callSite {
		merged[f.Key] = f.Value
	}
	return merged
}
