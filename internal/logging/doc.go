// Package logging provides slog helpers for consistent structured logging
// across the webex-relay codebase.
//
// It defines the canonical attribute keys (operation, status, error,
// request_id) and small constructors for common attributes so that log
// lines stay greppable and uniform. Sensitive values such as access tokens
// are never logged verbatim; use SanitizeToken.
package logging
