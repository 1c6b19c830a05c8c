// Package webex implements the outbound client for the Webex REST API.
//
// The client covers the subset of the API the relay fronts: building the
// OAuth authorization URL, exchanging an authorization code for an access
// token, creating meetings, and generating join links. Token handling is
// built on golang.org/x/oauth2 with a custom Webex endpoint.
//
// Responses from the join-link endpoint are reduced to the fields that are
// safe to hand to a browser client; everything else the provider returns is
// dropped before it leaves this package.
package webex
