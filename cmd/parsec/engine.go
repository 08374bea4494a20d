package main

import (
	"context"
	"fmt"

	"github.com/parsecfs/parsec/pkg/backend"
	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/config"
	"github.com/parsecfs/parsec/pkg/file"
	"github.com/parsecfs/parsec/pkg/vlobstore"
	"github.com/parsecfs/parsec/pkg/wsbackend"
)

// buildEngine wires a file.Engine over whichever backend.BlockBackend /
// backend.VlobBackend the configuration selects. The memory backend only
// lives for this process; commands other than "demo" need the websocket
// backend to see state from a prior invocation.
func buildEngine(ctx context.Context, cfg config.Config) (*file.Engine, func() error, error) {
	var be interface {
		backend.BlockBackend
		backend.VlobBackend
	}
	closer := func() error { return nil }

	switch cfg.Backend.Kind {
	case config.BackendWS:
		if cfg.Backend.URL == "" {
			return nil, nil, fmt.Errorf("websocket backend selected but no url configured")
		}
		client, err := wsbackend.Dial(ctx, cfg.Backend.URL)
		if err != nil {
			return nil, nil, err
		}
		be = client
		closer = client.Close
	case config.BackendMemory, "":
		be = memory.New()
	default:
		return nil, nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}

	blocks, err := openBlockStore(cfg, be)
	if err != nil {
		return nil, nil, err
	}
	vlobs, err := openVlobStore(cfg, be)
	if err != nil {
		return nil, nil, err
	}

	return file.NewEngine(blocks, vlobs), closer, nil
}

func openBlockStore(cfg config.Config, be backend.BlockBackend) (blockstore.Store, error) {
	if cfg.Backend.BlockCachePath == "" {
		return blockstore.New(be), nil
	}
	return blockstore.NewBolt(cfg.Backend.BlockCachePath, be)
}

func openVlobStore(cfg config.Config, be backend.VlobBackend) (vlobstore.Store, error) {
	if cfg.Backend.VlobCachePath == "" {
		return vlobstore.New(be), nil
	}
	return vlobstore.NewBolt(cfg.Backend.VlobCachePath, be)
}
