// Package grant verifies signed caller grants for mutating operations.
//
// Grants are EdDSA-signed JWTs minted outside this service. Verification is
// optional: when no public key is configured the service trusts supplied
// actor ids, which is the development and test posture. Identity stays opaque
// either way; a grant asserts an actor id, never a user profile.
package grant
