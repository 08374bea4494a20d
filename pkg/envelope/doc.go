// Package envelope is the JSON command boundary between the manifest
// layer and the file engine (pkg/file). It decodes a {cmd, ...} request,
// dispatches it to the matching file-engine operation, and encodes the
// result (or any pkg/perrors sentinel) back to {status, ...}. Binary
// fields cross the wire base64-encoded, matching the file engine's own
// vlob payload convention.
package envelope
