// Package config loads the YAML-driven settings the demo CLI (cmd/parsec)
// and any real backend dial use: which backend to talk to (in-memory or a
// live WebSocket endpoint), optional paths for bolt-backed local dirty
// caches, and the ambient logging/metrics knobs. Mirrors plain-struct YAML configs (in the style
// of cmd/warren's apply.go resources) rather than a config-framework.
package config
