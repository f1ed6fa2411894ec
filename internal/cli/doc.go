// Package cli implements the imemirror command line.
//
// A single invocation resolves configuration (YAML file, .env file,
// environment and flags), mirrors today's bulletins for every configured
// court and shift, prints a summary table and exits. Unavailable bulletins
// are not errors; configuration and filesystem failures are.
package cli
