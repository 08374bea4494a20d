// Package sync implements the Synchronizer described in spec §4.5: a
// thin orchestrator over a blockstore.Store and a vlobstore.Store that
// enforces the one ordering guarantee the buffered stores cannot enforce
// on their own — every current block must be durably synchronized before
// the vlob that references them is synchronized, so a committed vlob
// never points at a block id the backend has never seen.
package sync
