// Package auth defines the authentication plugin contract and the registry
// that resolves plugin names to factories.
//
// A Plugin is an interchangeable authentication strategy: it obtains a bearer
// token (reusing its cached access when still valid), resolves service
// endpoints from whatever catalog it holds, and can invalidate its cached
// state to force a fresh exchange. The return vocabulary is deliberately
// narrow so the session layer can drive its retry policy without knowing any
// plugin internals:
//
//   - AuthenticateToken returning ErrNoCredentials means the plugin has no
//     applicable credentials; this is not a rejection and is never retried.
//   - An *AuthenticationRejectedError means credentials were presented and
//     refused.
//   - Invalidate returning true means cached state was cleared and a retry
//     makes sense; false means there was nothing to clear and retrying
//     would not help.
package auth
