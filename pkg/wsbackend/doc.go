// Package wsbackend implements the block/vlob backend wire protocol over
// a single WebSocket connection: JSON-RPC-like commands
// (BlockService:create|read|delete, VlobService:create|read|update|delete|
// get_seed_challenge), one JSON object per message, replies carrying a
// status field. Because gorilla/websocket connections are not safe for
// concurrent writers, every outgoing call is funneled through a
// pkg/effect Mailbox so at most one request is written to the socket at
// a time; several calls may be awaiting their replies at once, and
// responses are correlated back to callers by request id from a
// background read loop.
package wsbackend
