// Package testutil contains small helpers shared across tests for inspecting
// recorded event streams without repeating collection loops. These helpers
// are intentionally minimal and not intended for production usage.
package testutil
