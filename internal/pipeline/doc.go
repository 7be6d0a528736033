// Package pipeline runs one schema sync: it retrieves the reference
// documentation and identifier sources, extracts and assembles the schema,
// verifies it and writes it only when the content changed.
package pipeline
