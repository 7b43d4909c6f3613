// Package oauth implements the browser-facing half of the OAuth2
// authorization code flow against an external identity provider.
//
// A Server redirects users to the provider, exchanges the returned code for
// tokens, resolves the user's identity through a per-provider strategy and
// binds the display name to the caller's session. Terminal outcomes are
// handed to pluggable continuations so page rendering stays outside this
// package.
package oauth
