// Package taskboard exposes module-level metadata.
package taskboard

// Version is the taskboard release version reported by the CLI.
const Version = "0.2.0"
