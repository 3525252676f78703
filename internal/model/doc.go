// Package model defines the domain types and value objects for the
// fedpatch CLI.
//
// This package contains pure data structures with no external dependencies.
// The federation settings (FederationConfig, ExposeMap, RemoteMap, SharedMap)
// are transient representations extracted from a Vite configuration file or
// loaded from a plan file; fedpatch keeps no state of its own on disk.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
