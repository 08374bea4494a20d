/*
Package types defines the core data structures of Parsec's client-side
storage core.

The package contains the value types shared by every layer of the storage
core: the immutable Block, the versioned Vlob and its embedded BlockGroup/
BlockMeta records, and the PendingOp queue a File (pkg/file) accumulates
between flushes.

# Core Types

Block layer:
  - Block: an immutable ciphertext chunk, addressed by an opaque id.
  - BlockMeta: the integrity anchor embedded in a vlob (digest + size).
  - BlockGroup: an ordered run of BlockMeta sharing one symmetric key.

Vlob layer:
  - Vlob: a versioned encrypted document describing a file's block layout.
  - TrustSeeds: the read/write capability tokens issued at creation.

File engine:
  - PendingOp: a queued Write or Truncate, applied in insertion order.
  - Stat: the result of a stat on a file.

The File handle itself is defined in pkg/file.

Binary fields travel as []byte in memory, except BlockGroup.Key, which is
held base64-encoded exactly as it appears in the vlob payload; other base64
wrapping happens at the wire boundary (see pkg/envelope and pkg/wsbackend).
*/
package types
