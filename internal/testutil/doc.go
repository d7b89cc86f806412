// Package testutil provides shared test helpers and fluent builders for
// constructing memory entries and episodes in tests.
package testutil
