package document

// NeedsRegeneration reports whether a persisted model must be rebuilt before use.
// A model is stale when it is absent, has no top-level blocks, or was produced
// for a different schema version (including untagged legacy documents).
func NeedsRegeneration(m *Model) bool {
	if m == nil {
		return true
	}
	if len(m.Blocks) == 0 {
		return true
	}
	return m.SchemaVersion != CurrentSchemaVersion
}
