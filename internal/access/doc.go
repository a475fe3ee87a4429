// Package access defines the Access type, an immutable snapshot of a
// completed authentication exchange: the token, its expiry, the identity it
// was issued to and the service catalog that came with it.
//
// An Access is never mutated in place. A new exchange produces a wholly new
// Access that replaces the old one, and the type round-trips through JSON so
// it can be persisted by the token cache and restored in a later process
// without re-supplying credentials.
package access
