// Package paginator slices entry sequences into fixed-size pages and lays out
// the windowed page buttons shown under a table.
package paginator
