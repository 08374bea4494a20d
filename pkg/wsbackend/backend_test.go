package wsbackend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/perrors"
)

// fakeConn is an in-process stand-in for *websocket.Conn: WriteJSON hands
// the encoded request to a scripted responder, which produces the
// wireResponse that the next ReadJSON call returns.
type fakeConn struct {
	responder func(wireRequest) wireResponse
	inbox     chan wireResponse
	closed    bool
}

func newFakeConn(responder func(wireRequest) wireResponse) *fakeConn {
	return &fakeConn{responder: responder, inbox: make(chan wireResponse, 16)}
}

func (f *fakeConn) WriteJSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var req wireRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	f.inbox <- f.responder(req)
	return nil
}

func (f *fakeConn) ReadJSON(v any) error {
	resp, ok := <-f.inbox
	if !ok {
		return assert.AnError
	}
	raw, _ := json.Marshal(resp)
	return json.Unmarshal(raw, v)
}

func (f *fakeConn) Close() error {
	f.closed = true
	close(f.inbox)
	return nil
}

func TestClientCreateAndReadBlock(t *testing.T) {
	stored := map[string]string{}
	responder := func(req wireRequest) wireResponse {
		switch req.Cmd {
		case "BlockService:create":
			stored[req.Params["id"].(string)] = req.Params["content"].(string)
			return wireResponse{ID: req.ID, Status: "ok"}
		case "BlockService:read":
			id := req.Params["id"].(string)
			return wireResponse{ID: req.ID, Status: "ok", Result: map[string]any{"content": stored[id]}}
		default:
			return wireResponse{ID: req.ID, Status: "bad_msg", Label: "unexpected " + req.Cmd}
		}
	}

	cl := newClient(newFakeConn(responder))
	defer cl.Close()

	ctx := context.Background()
	require.NoError(t, cl.CreateBlock(ctx, "block-1", []byte("payload")))

	content, err := cl.ReadBlock(ctx, "block-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), content)
}

func TestClientVlobUpdateAnswersSeedChallenge(t *testing.T) {
	const writeSeed = "secret-write-seed"
	var lastChallenge string
	var sawCorrectAnswer bool

	responder := func(req wireRequest) wireResponse {
		switch req.Cmd {
		case "VlobService:get_seed_challenge":
			lastChallenge = "challenge-123"
			return wireResponse{ID: req.ID, Status: "ok", Result: map[string]any{"challenge": lastChallenge}}
		case "VlobService:update":
			want := cryptoprim.Digest([]byte(lastChallenge + writeSeed))
			if req.Params["seed_answer"] == want {
				sawCorrectAnswer = true
			}
			return wireResponse{ID: req.ID, Status: "ok"}
		default:
			return wireResponse{ID: req.ID, Status: "bad_msg"}
		}
	}

	cl := newClient(newFakeConn(responder))
	defer cl.Close()

	err := cl.UpdateVlob(context.Background(), "vlob-1", writeSeed, 2, []byte("new blob"))
	require.NoError(t, err)
	assert.True(t, sawCorrectAnswer)
}

func TestClientPropagatesBackendErrorStatus(t *testing.T) {
	responder := func(req wireRequest) wireResponse {
		return wireResponse{ID: req.ID, Status: "block_not_found", Label: "no such block"}
	}
	cl := newClient(newFakeConn(responder))
	defer cl.Close()

	_, err := cl.ReadBlock(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such block")
	assert.ErrorIs(t, err, perrors.ErrBlockNotFound)
}

func TestClientDoesNotMislabelUnrelatedFailureAsNotFound(t *testing.T) {
	responder := func(req wireRequest) wireResponse {
		return wireResponse{ID: req.ID, Status: "backend_unavailable", Label: "connection reset"}
	}
	cl := newClient(newFakeConn(responder))
	defer cl.Close()

	_, err := cl.ReadBlock(context.Background(), "block-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrBackendUnavailable)
	assert.False(t, errors.Is(err, perrors.ErrBlockNotFound))
}
