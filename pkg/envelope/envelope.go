package envelope

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/file"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/perrors"
)

// handler decodes its own params out of the raw request body and returns
// the fields to merge into a successful response.
type handler func(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error)

// Dispatcher routes decoded command envelopes to file-engine operations.
type Dispatcher struct {
	engine *file.Engine
	table  map[string]handler
}

// New builds a Dispatcher over engine with the fixed command table.
func New(engine *file.Engine) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		table: map[string]handler{
			"file_create":   handleFileCreate,
			"file_read":     handleFileRead,
			"file_write":    handleFileWrite,
			"file_truncate": handleFileTruncate,
			"stat":          handleStat,
			"restore":       handleRestore,
		},
	}
}

type envelopeHeader struct {
	Cmd string `json:"cmd"`
}

// Handle decodes raw as a command envelope, dispatches it, and returns
// the JSON-encoded response. It never returns an error: every failure
// mode (malformed JSON, missing cmd, unknown cmd, a sentinel error from
// the file engine) is represented as a {status, label} response body.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) []byte {
	var hdr envelopeHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return badMsg("Message is not a valid JSON.")
	}
	if hdr.Cmd == "" {
		return badMsg("`cmd` string field is mandatory.")
	}

	h, ok := d.table[hdr.Cmd]
	if !ok {
		return badMsg(fmt.Sprintf("Unknown command `%s`", hdr.Cmd))
	}

	out, err := h(ctx, d.engine, raw)
	if err != nil {
		log.WithComponent("envelope").Error().Err(err).Str("cmd", hdr.Cmd).Msg("command failed")
		return errorResponse(err)
	}
	if out == nil {
		out = map[string]any{}
	}
	out["status"] = "ok"
	body, encErr := json.Marshal(out)
	if encErr != nil {
		return badMsg("failed to encode response")
	}
	return body
}

func badMsg(label string) []byte {
	body, _ := json.Marshal(map[string]any{"status": "bad_msg", "label": label})
	return body
}

func errorResponse(err error) []byte {
	status := perrors.Status(err)
	if status == "" {
		status = "internal_error"
	}
	body, _ := json.Marshal(map[string]any{"status": status, "label": err.Error()})
	return body
}

func handleFileCreate(ctx context.Context, engine *file.Engine, _ []byte) (map[string]any, error) {
	f, err := engine.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("file_create: %w", err)
	}
	return map[string]any{
		"id":              f.ID,
		"read_trust_seed": f.ReadSeed,
		"write_trust_seed": f.WriteSeed,
		"key":             base64.StdEncoding.EncodeToString(f.Key.Raw()),
	}, nil
}

type fileReadParams struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	RTS    string `json:"rts"`
	WTS    string `json:"wts"`
	Size   int    `json:"size"`
	Offset int    `json:"offset"`
}

func handleFileRead(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error) {
	var p fileReadParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("file_read: %w", perrors.ErrBadMsg)
	}
	f, _, err := loadFile(ctx, engine, p.ID, p.Key, p.RTS, p.WTS)
	if err != nil {
		return nil, err
	}

	size := p.Size
	if size == 0 {
		stat, err := f.Stat(ctx)
		if err != nil {
			return nil, fmt.Errorf("file_read: %w", err)
		}
		size = stat.Size - p.Offset
		if size < 0 {
			size = 0
		}
	}

	content, err := f.Read(ctx, size, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("file_read: %w", err)
	}
	return map[string]any{"content": base64.StdEncoding.EncodeToString(content)}, nil
}

type fileWriteParams struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	RTS    string `json:"rts"`
	WTS    string `json:"wts"`
	Data   string `json:"data"`
	Offset int    `json:"offset"`
}

func handleFileWrite(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error) {
	var p fileWriteParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("file_write: %w", perrors.ErrBadMsg)
	}
	f, _, err := loadFile(ctx, engine, p.ID, p.Key, p.RTS, p.WTS)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("file_write: %w", perrors.ErrBadMsg)
	}
	f.Write(data, p.Offset)
	return map[string]any{}, nil
}

type fileTruncateParams struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	RTS    string `json:"rts"`
	WTS    string `json:"wts"`
	Length int    `json:"length"`
}

func handleFileTruncate(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error) {
	var p fileTruncateParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("file_truncate: %w", perrors.ErrBadMsg)
	}
	f, _, err := loadFile(ctx, engine, p.ID, p.Key, p.RTS, p.WTS)
	if err != nil {
		return nil, err
	}
	f.Truncate(p.Length)
	return map[string]any{}, nil
}

type statParams struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	RTS string `json:"rts"`
}

func handleStat(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error) {
	var p statParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("stat: %w", perrors.ErrBadMsg)
	}
	f, _, err := loadFile(ctx, engine, p.ID, p.Key, p.RTS, "")
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat(ctx)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	return map[string]any{
		"id":      stat.ID,
		"type":    stat.Type,
		"created": stat.Created,
		"updated": stat.Updated,
		"size":    stat.Size,
		"version": stat.Version,
	}, nil
}

type restoreParams struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	RTS     string `json:"rts"`
	WTS     string `json:"wts"`
	Version int    `json:"version"`
}

func handleRestore(ctx context.Context, engine *file.Engine, raw []byte) (map[string]any, error) {
	var p restoreParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("restore: %w", perrors.ErrBadMsg)
	}
	f, _, err := loadFile(ctx, engine, p.ID, p.Key, p.RTS, p.WTS)
	if err != nil {
		return nil, err
	}
	if err := f.Restore(ctx, p.Version); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return map[string]any{}, nil
}

func loadFile(ctx context.Context, engine *file.Engine, id, keyB64, rts, wts string) (*file.File, *cryptoprim.SymKey, error) {
	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad key encoding", perrors.ErrBadMsg)
	}
	key, err := cryptoprim.LoadSymKey(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad key", perrors.ErrBadMsg)
	}
	f, err := engine.Load(ctx, id, key, rts, wts, 0)
	if err != nil {
		if errors.Is(err, perrors.ErrVlobNotFound) {
			return nil, nil, fmt.Errorf("%w: %w", perrors.ErrFileNotFound, err)
		}
		return nil, nil, err
	}
	return f, key, nil
}
