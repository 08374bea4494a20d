package envelope_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/envelope"
	"github.com/parsecfs/parsec/pkg/file"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

func newDispatcher() *envelope.Dispatcher {
	be := memory.New()
	engine := file.NewEngine(blockstore.New(be), vlobstore.New(be))
	return envelope.New(engine)
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHandleMalformedJSON(t *testing.T) {
	d := newDispatcher()
	resp := decode(t, d.Handle(context.Background(), []byte("{not json")))
	assert.Equal(t, "bad_msg", resp["status"])
	assert.Equal(t, "Message is not a valid JSON.", resp["label"])
}

func TestHandleMissingCmd(t *testing.T) {
	d := newDispatcher()
	resp := decode(t, d.Handle(context.Background(), []byte(`{"id":"x"}`)))
	assert.Equal(t, "bad_msg", resp["status"])
	assert.Equal(t, "`cmd` string field is mandatory.", resp["label"])
}

func TestHandleUnknownCmd(t *testing.T) {
	d := newDispatcher()
	resp := decode(t, d.Handle(context.Background(), []byte(`{"cmd":"frobnicate"}`)))
	assert.Equal(t, "bad_msg", resp["status"])
	assert.Equal(t, "Unknown command `frobnicate`", resp["label"])
}

func TestFileCreateReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher()

	created := decode(t, d.Handle(ctx, []byte(`{"cmd":"file_create"}`)))
	require.Equal(t, "ok", created["status"])
	id := created["id"].(string)
	key := created["key"].(string)
	rts := created["read_trust_seed"].(string)
	wts := created["write_trust_seed"].(string)

	data := base64.StdEncoding.EncodeToString([]byte("hello envelope"))
	writeReq, err := json.Marshal(map[string]any{
		"cmd": "file_write", "id": id, "key": key, "rts": rts, "wts": wts,
		"data": data, "offset": 0,
	})
	require.NoError(t, err)
	wrote := decode(t, d.Handle(ctx, writeReq))
	assert.Equal(t, "ok", wrote["status"])

	readReq, err := json.Marshal(map[string]any{
		"cmd": "file_read", "id": id, "key": key, "rts": rts, "wts": wts,
		"size": len("hello envelope"), "offset": 0,
	})
	require.NoError(t, err)
	read := decode(t, d.Handle(ctx, readReq))
	require.Equal(t, "ok", read["status"])
	content, err := base64.StdEncoding.DecodeString(read["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, "hello envelope", string(content))

	statReq, err := json.Marshal(map[string]any{"cmd": "stat", "id": id, "key": key, "rts": rts})
	require.NoError(t, err)
	stat := decode(t, d.Handle(ctx, statReq))
	require.Equal(t, "ok", stat["status"])
	assert.Equal(t, "file", stat["type"])
}

func TestFileReadUnknownIDMapsToFileNotFound(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher()

	readReq, err := json.Marshal(map[string]any{
		"cmd": "file_read", "id": "does-not-exist",
		"key": base64.StdEncoding.EncodeToString(make([]byte, 32)),
		"rts": "whatever", "offset": 0, "size": 1,
	})
	require.NoError(t, err)
	resp := decode(t, d.Handle(ctx, readReq))
	assert.Equal(t, "file_not_found", resp["status"])
	assert.NotEmpty(t, resp["label"])
}
