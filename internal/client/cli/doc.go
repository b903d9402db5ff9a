// Package cli provides the interactive Afterlog command-line client.
//
// It wires the controller to a read–eval–print loop: every command is
// translated into one controller call, and after it the screen built by
// the view package is printed. A background watcher keeps the sync
// indicator honest while the prompt waits.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
