package backend

import "context"

// BlockBackend is the remote block service a block store client talks to
// once a locally-created block is synchronized.
type BlockBackend interface {
	// CreateBlock durably stores an already-encrypted block under id.
	CreateBlock(ctx context.Context, id string, content []byte) error
	// ReadBlock fetches the durable content for id.
	ReadBlock(ctx context.Context, id string) ([]byte, error)
	// DeleteBlock removes id from durable storage.
	DeleteBlock(ctx context.Context, id string) error
}

// VlobBackend is the remote vlob service a vlob store client talks to.
type VlobBackend interface {
	// CreateVlob durably stores the first version of a new vlob under
	// the client-proposed id and returns the trust seeds the backend
	// minted for it.
	CreateVlob(ctx context.Context, id string, blob []byte) (readSeed, writeSeed string, err error)
	// ReadVlob fetches a version of a vlob. version 0 means latest.
	ReadVlob(ctx context.Context, id, readSeed string, version int) (blob []byte, actualVersion int, err error)
	// UpdateVlob appends a new version, rejecting stale or seedless callers.
	UpdateVlob(ctx context.Context, id, writeSeed string, version int, blob []byte) error
	// DeleteVlob removes every version of id.
	DeleteVlob(ctx context.Context, id, writeSeed string) error
}
