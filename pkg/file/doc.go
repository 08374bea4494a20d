// Package file implements the client-side file engine: ContentBuilder
// (write coalescing), the find_matching_blocks read/write range planner,
// and the File handle itself (create/load/read/write/truncate/stat/
// flush/commit/discard/restore/reencrypt), backed by a blockstore.Store
// and a vlobstore.Store. An Engine owns the process-wide registry that
// guarantees at most one File handle per vlob id.
package file
