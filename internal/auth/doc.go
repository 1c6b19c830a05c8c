// Package auth provides in-memory storage for the OAuth authorization flow.
//
// It contains two stores:
//
//   - TokenCache holds the most recently exchanged Webex access token and
//     expires it lazily based on the token's expiry timestamp.
//   - StateStore issues cryptographically random state values for the
//     authorization redirect and verifies them on the callback, with a
//     background goroutine that evicts abandoned flows.
//
// Both stores are safe for concurrent use.
package auth
