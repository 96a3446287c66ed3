// Package types defines the canonical Task model, provenance tags, the
// Gateway interface, and standard error types for the taskboard core.
package types
