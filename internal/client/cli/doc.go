// Package cli provides the interactive fieldsync command-line client.
//
// It wires configuration, the local store, the sync engine, and an
// interactive REPL that works identically online and offline. Typical flow:
// open the local database, start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - Record time entries and daily reports offline
//   - Sync with the field-operations service
//   - Inspect and retry failed uploads
//   - "checkdig" — the dig-safety verdict for a location
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
