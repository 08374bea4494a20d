// Package effect models the request/dispatcher discipline that backend
// transports (pkg/wsbackend) use to serialize concurrent callers onto a
// single connection. An effect.Request is a small value describing one
// backend call; a Dispatcher resolves it. A Mailbox drains submitted
// requests through exactly one goroutine, in submission order, so a
// connection that cannot tolerate concurrent writers (a *websocket.Conn,
// for instance) only ever sees one in flight at a time.
//
// Tests substitute a fake Dispatcher for a live connection.
package effect
