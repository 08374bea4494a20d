package wsbackend

import (
	"context"
	"fmt"
)

// CreateBlock implements backend.BlockBackend.
func (cl *Client) CreateBlock(ctx context.Context, id string, content []byte) error {
	_, err := cl.call(ctx, "BlockService:create", map[string]any{
		"id":      id,
		"content": encodeBytes(content),
	})
	if err != nil {
		return fmt.Errorf("ws create block %s: %w", id, err)
	}
	return nil
}

// ReadBlock implements backend.BlockBackend.
func (cl *Client) ReadBlock(ctx context.Context, id string) ([]byte, error) {
	resp, err := cl.call(ctx, "BlockService:read", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("ws read block %s: %w", id, err)
	}
	content, _ := resp.Result["content"].(string)
	return decodeBytes(content)
}

// DeleteBlock implements backend.BlockBackend.
func (cl *Client) DeleteBlock(ctx context.Context, id string) error {
	if _, err := cl.call(ctx, "BlockService:delete", map[string]any{"id": id}); err != nil {
		return fmt.Errorf("ws delete block %s: %w", id, err)
	}
	return nil
}

// CreateVlob implements backend.VlobBackend.
func (cl *Client) CreateVlob(ctx context.Context, id string, blob []byte) (string, string, error) {
	resp, err := cl.call(ctx, "VlobService:create", map[string]any{
		"id":   id,
		"blob": encodeBytes(blob),
	})
	if err != nil {
		return "", "", fmt.Errorf("ws create vlob %s: %w", id, err)
	}
	readSeed, _ := resp.Result["read_trust_seed"].(string)
	writeSeed, _ := resp.Result["write_trust_seed"].(string)
	return readSeed, writeSeed, nil
}

// ReadVlob implements backend.VlobBackend.
func (cl *Client) ReadVlob(ctx context.Context, id, readSeed string, version int) ([]byte, int, error) {
	answer, err := cl.seedChallenge(ctx, "VlobService", id, readSeed)
	if err != nil {
		return nil, 0, fmt.Errorf("ws read vlob %s: seed challenge: %w", id, err)
	}
	resp, err := cl.call(ctx, "VlobService:read", map[string]any{
		"id": id, "version": version, "seed_answer": answer,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("ws read vlob %s: %w", id, err)
	}
	blob, _ := resp.Result["blob"].(string)
	content, err := decodeBytes(blob)
	if err != nil {
		return nil, 0, err
	}
	actualVersion, _ := resp.Result["version"].(float64)
	return content, int(actualVersion), nil
}

// UpdateVlob implements backend.VlobBackend.
func (cl *Client) UpdateVlob(ctx context.Context, id, writeSeed string, version int, blob []byte) error {
	answer, err := cl.seedChallenge(ctx, "VlobService", id, writeSeed)
	if err != nil {
		return fmt.Errorf("ws update vlob %s: seed challenge: %w", id, err)
	}
	_, err = cl.call(ctx, "VlobService:update", map[string]any{
		"id": id, "version": version, "seed_answer": answer, "blob": encodeBytes(blob),
	})
	if err != nil {
		return fmt.Errorf("ws update vlob %s: %w", id, err)
	}
	return nil
}

// DeleteVlob implements backend.VlobBackend.
func (cl *Client) DeleteVlob(ctx context.Context, id, writeSeed string) error {
	answer, err := cl.seedChallenge(ctx, "VlobService", id, writeSeed)
	if err != nil {
		return fmt.Errorf("ws delete vlob %s: seed challenge: %w", id, err)
	}
	_, err = cl.call(ctx, "VlobService:delete", map[string]any{"id": id, "seed_answer": answer})
	if err != nil {
		return fmt.Errorf("ws delete vlob %s: %w", id, err)
	}
	return nil
}
