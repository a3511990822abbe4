// Package logger wires zap behind logr and carries the logger through
// context.Context so packages log without holding global state.
package logger
