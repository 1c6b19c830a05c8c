// Package cmd implements the command-line interface for webex-relay.
//
// This package provides the following commands:
//   - serve: Start the relay HTTP server
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
