// Package backend declares the seams the block and vlob store clients
// push into once a locally-buffered object is synchronized. The real
// backend — the networked service that durably stores ciphertext blocks
// and versioned vlobs for every client in a Parsec deployment — is an
// external collaborator out of scope for this module (spec §1); this
// package only names the two interfaces (BlockBackend, VlobBackend) that
// any concrete transport must satisfy, plus an in-memory reference
// implementation used by tests and the CLI demo, and pkg/wsbackend wires
// a real JSON-over-WebSocket transport against the same interfaces.
package backend
