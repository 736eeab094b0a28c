//go:build go1.25

package dilithium

import "crypto"

// Compile-time interface assertion for crypto.MessageSigner (Go 1.25+).
// The SignMessage method itself is defined unconditionally in dilithium.go;
// only the assertion against this version-gated interface type needs the
// build tag.
var _ crypto.MessageSigner = (*PrivateKey)(nil)
