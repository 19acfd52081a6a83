// Package common contains shared constants and sentinel errors used across
// Keepsake components.
package common

// SessionTokenHeaderName is the gRPC metadata key used to carry the viewer's
// session token on outbound requests.
const SessionTokenHeaderName = "session_token"

// RevealedNamespacePrefix prefixes the local persistence key holding one
// viewer's revealed entry ids.
const RevealedNamespacePrefix = "revealedEntries_"
