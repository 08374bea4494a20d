// Package log provides Parsec's structured logger, a thin wrapper over
// zerolog with per-subsystem child loggers (file, vlob, block, sync).
package log
