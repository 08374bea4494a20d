package wsbackend

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/effect"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/perrors"
)

// wireRequest is one JSON-RPC-like envelope sent to the backend.
type wireRequest struct {
	ID     string         `json:"id"`
	Cmd    string         `json:"cmd"`
	Params map[string]any `json:"params,omitempty"`
}

// wireResponse is what the backend sends back, correlated by ID.
type wireResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Label  string         `json:"label,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// conn is the subset of *websocket.Conn the Client depends on, so tests
// can substitute an in-process fake instead of a live socket.
type conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Client is a block/vlob backend connection over one WebSocket. It
// implements both backend.BlockBackend and backend.VlobBackend.
type Client struct {
	c conn

	mailbox *effect.Mailbox

	mu      sync.Mutex
	pending map[string]chan wireResponse
	nextID  uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a WebSocket connection to url and wraps it as a Client.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", perrors.ErrBackendUnavailable, url, err)
	}
	return newClient(c), nil
}

func newClient(c conn) *Client {
	cl := &Client{
		c:       c,
		pending: make(map[string]chan wireResponse),
		closed:  make(chan struct{}),
	}
	cl.mailbox = effect.NewMailbox(effect.DispatcherFunc(cl.writeWire), 32, "wsbackend")
	go cl.readLoop()
	return cl
}

// Close tears down the connection and fails any outstanding requests.
func (cl *Client) Close() error {
	var err error
	cl.closeOnce.Do(func() {
		cl.mailbox.Close()
		err = cl.c.Close()
		close(cl.closed)
	})
	return err
}

func (cl *Client) writeWire(_ context.Context, req effect.Request) (any, error) {
	wr := req.Params.(wireRequest)
	if err := cl.c.WriteJSON(wr); err != nil {
		return nil, fmt.Errorf("%w: write: %v", perrors.ErrBackendUnavailable, err)
	}
	return nil, nil
}

func (cl *Client) readLoop() {
	logger := log.WithComponent("wsbackend")
	for {
		var resp wireResponse
		if err := cl.c.ReadJSON(&resp); err != nil {
			logger.Warn().Err(err).Msg("read loop terminating")
			cl.failAllPending(err)
			return
		}
		cl.mu.Lock()
		ch, ok := cl.pending[resp.ID]
		if ok {
			delete(cl.pending, resp.ID)
		}
		cl.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (cl *Client) failAllPending(err error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for id, ch := range cl.pending {
		ch <- wireResponse{ID: id, Status: "backend_unavailable", Label: err.Error()}
		delete(cl.pending, id)
	}
}

func (cl *Client) call(ctx context.Context, cmd string, params map[string]any) (wireResponse, error) {
	id := fmt.Sprintf("%d", atomic.AddUint64(&cl.nextID, 1))
	respCh := make(chan wireResponse, 1)

	cl.mu.Lock()
	cl.pending[id] = respCh
	cl.mu.Unlock()

	if _, err := cl.mailbox.Submit(ctx, effect.Request{
		Method: cmd,
		Params: wireRequest{ID: id, Cmd: cmd, Params: params},
	}); err != nil {
		cl.mu.Lock()
		delete(cl.pending, id)
		cl.mu.Unlock()
		return wireResponse{}, err
	}

	select {
	case resp := <-respCh:
		if resp.Status != "ok" {
			if sentinel := sentinelForStatus(resp.Status); sentinel != nil {
				return resp, fmt.Errorf("%s: %w: %s", cmd, sentinel, resp.Label)
			}
			return resp, fmt.Errorf("%s: %s", cmd, resp.Label)
		}
		return resp, nil
	case <-ctx.Done():
		return wireResponse{}, ctx.Err()
	}
}

// sentinelForStatus maps a wire status tag back to the perrors sentinel
// it was serialized from, the inverse of perrors.Status, so callers can
// errors.Is against the actual failure instead of one assumed by the
// calling backend method.
func sentinelForStatus(status string) error {
	switch status {
	case "bad_msg":
		return perrors.ErrBadMsg
	case "file_not_found":
		return perrors.ErrFileNotFound
	case "vlob_not_found":
		return perrors.ErrVlobNotFound
	case "block_not_found":
		return perrors.ErrBlockNotFound
	case "bad_version":
		return perrors.ErrBadVersion
	case "version_conflict":
		return perrors.ErrVersionConflict
	case "trust_seed_error":
		return perrors.ErrTrustSeed
	case "integrity_failure":
		return perrors.ErrIntegrityFailure
	case "backend_unavailable":
		return perrors.ErrBackendUnavailable
	default:
		return nil
	}
}

// answerSeedChallenge proves possession of trustSeed for a challenge the
// backend handed out via get_seed_challenge, per spec: H(challenge ||
// trust_seed).
func answerSeedChallenge(challenge, trustSeed string) string {
	return cryptoprim.Digest([]byte(challenge + trustSeed))
}

func (cl *Client) seedChallenge(ctx context.Context, service, id, trustSeed string) (string, error) {
	resp, err := cl.call(ctx, service+":get_seed_challenge", map[string]any{"id": id})
	if err != nil {
		return "", err
	}
	challenge, _ := resp.Result["challenge"].(string)
	return answerSeedChallenge(challenge, trustSeed), nil
}

func encodeBytes(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func decodeBytes(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }
