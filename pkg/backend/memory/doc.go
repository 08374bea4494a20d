// Package memory implements backend.BlockBackend and backend.VlobBackend
// entirely in process memory. It is the reference backend used by unit
// tests, by the cmd/parsec demo, and by the other cmd/parsec commands when
// the memory backend is selected. pkg/wsbackend is a client of a remote
// backend only; it does not serve this backend over a WebSocket.
package memory
