// Package blockstore implements the client-side block store: a thin
// buffering layer in front of a backend.BlockBackend. Blocks created
// locally are held in a dirty cache and opaque local ids are handed back
// immediately; Synchronize pushes a dirty block to the backend and, once
// promoted, reads and deletes fall through to the backend transparently.
package blockstore
