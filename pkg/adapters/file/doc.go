// Package file reads documents from disk, watches them for changes, and persists session
// snapshots as JSON files.
package file
