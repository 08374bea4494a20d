// Package vlobstore implements the client-side vlob store: a buffering
// layer in front of a backend.VlobBackend that tracks locally-staged
// versions and the trust seeds authorizing reads and updates, and
// surfaces VersionConflict / TrustSeedError / VlobNotFound per the wire
// semantics of the backend it fronts.
package vlobstore
