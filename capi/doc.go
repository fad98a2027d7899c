// Package capi is the boundary surface for foreign callers.
//
// Every function operates on registry tokens rather than Go pointers and
// follows the negative-value status convention: non-negative results are
// byte counts or success, negative results are negated platform error
// codes or one of the reserved sentinels in the errors package
// (StatusFailed, StatusPoisoned, StatusInvalidHandle).
//
// Constructors return token 0 on failure; there is no partial
// construction state to clean up. HandleDestroy tolerates token 0 and
// unknown tokens, so a caller may unconditionally destroy whatever a
// constructor returned.
package capi
