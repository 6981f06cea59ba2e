// Package auth issues and checks the operator tokens that guard the node API.
//
// It implements a 2-tier role model (viewer → operator) with:
//   - HS256 JWT access tokens carrying role and, optionally, the node name
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Reads of the namespace are open to viewers; writes, toggles and alias
// registration need an operator token. Tokens are minted offline with
// `nsctl token` using the secret shared with the daemon.
package auth
