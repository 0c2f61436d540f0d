// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing conversation messages and strategy states.
// These helpers are intentionally minimal and are not intended for
// production usage.
package testutil
