package hyperliquid

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buger/jsonparser"
	gws "github.com/gorilla/websocket"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

const (
	websocketChannelPost  = "post"
	websocketChannelPong  = "pong"
	websocketChannelError = "error"

	wsPostTypeAction = "action"
	wsPostTypeError  = "error"

	defaultWSPingInterval = 50 * time.Second
	defaultWSTimeout      = 15 * time.Second
)

type wsPostRequest struct {
	Method  string        `json:"method"`
	ID      uint64        `json:"id"`
	Request wsPostPayload `json:"request"`
}

type wsPostPayload struct {
	Type    string  `json:"type"`
	Payload *Signed `json:"payload"`
}

type wsPostReply struct {
	ID       uint64 `json:"id"`
	Response struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	} `json:"response"`
}

type wsMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// WebsocketSubmitter posts signed actions over the websocket API.
type WebsocketSubmitter struct {
	url     string
	timeout time.Duration

	conn    *gws.Conn
	writeMu sync.Mutex
	nextID  atomic.Uint64

	wsPendingMu sync.Mutex
	wsPending   map[uint64]chan wsPostReply

	done     chan struct{}
	closeErr error
	wg       sync.WaitGroup
}

// NewWebsocketSubmitter returns an unconnected submitter for url.
func NewWebsocketSubmitter(url string) *WebsocketSubmitter {
	return &WebsocketSubmitter{
		url:       url,
		timeout:   defaultWSTimeout,
		wsPending: make(map[uint64]chan wsPostReply),
	}
}

// WSURLForChain returns the default websocket URL for chain.
func WSURLForChain(chain SigningChain) string {
	if chain.IsMainnet() {
		return MainnetWSURL
	}
	return TestnetWSURL
}

// Connect dials the websocket and starts the reader and keepalive loops.
func (w *WebsocketSubmitter) Connect(ctx context.Context) error {
	dialer := gws.Dialer{
		HandshakeTimeout: w.timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, resp, err := dialer.DialContext(ctx, w.url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("unable to connect to websocket %s: %w", w.url, err)
	}
	w.conn = conn
	w.done = make(chan struct{})
	w.wg.Add(2)
	go w.wsReadData()
	go w.keepalive(defaultWSPingInterval)
	log.Infof(log.WebsocketSys, "connected to %s", w.url)
	return nil
}

// Submit implements Submitter.
func (w *WebsocketSubmitter) Submit(ctx context.Context, s *Signed) (*ExchangeResponse, error) {
	if s == nil {
		return nil, errActionRequired
	}
	if w.conn == nil {
		return nil, errWebsocketNotConnected
	}
	id := w.nextID.Add(1)
	reply := make(chan wsPostReply, 1)
	w.wsPendingMu.Lock()
	w.wsPending[id] = reply
	w.wsPendingMu.Unlock()
	defer w.dequeuePending(id)

	req := wsPostRequest{
		Method:  "post",
		ID:      id,
		Request: wsPostPayload{Type: wsPostTypeAction, Payload: s},
	}
	if err := w.sendJSON(req); err != nil {
		submissionsTotal.WithLabelValues("websocket", "error").Inc()
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		return nil, fmt.Errorf("%w: %w", errWebsocketClosed, w.closeErr)
	case r := <-reply:
		switch r.Response.Type {
		case wsPostTypeAction:
			resp, err := ParseExchangeResponse(r.Response.Payload)
			if err != nil {
				submissionsTotal.WithLabelValues("websocket", "rejected").Inc()
				return nil, err
			}
			submissionsTotal.WithLabelValues("websocket", "ok").Inc()
			return resp, nil
		case wsPostTypeError:
			submissionsTotal.WithLabelValues("websocket", "rejected").Inc()
			msg, err := jsonparser.ParseString(trimQuotes(r.Response.Payload))
			if err != nil {
				msg = string(r.Response.Payload)
			}
			return nil, newAPIError(msg)
		}
		return nil, fmt.Errorf("%w: type %q", errUnexpectedPostReply, r.Response.Type)
	}
}

func trimQuotes(b []byte) []byte {
	if n := len(b); n >= 2 && b[0] == '"' && b[n-1] == '"' {
		return b[1 : n-1]
	}
	return b
}

func (w *WebsocketSubmitter) dequeuePending(id uint64) {
	w.wsPendingMu.Lock()
	delete(w.wsPending, id)
	w.wsPendingMu.Unlock()
}

func (w *WebsocketSubmitter) sendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteMessage(gws.TextMessage, b)
}

func (w *WebsocketSubmitter) wsReadData() {
	defer w.wg.Done()
	defer close(w.done)
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			w.closeErr = err
			return
		}
		if err := w.wsHandleData(msg); err != nil {
			log.Errorf(log.WebsocketSys, "%v", err)
		}
	}
}

func (w *WebsocketSubmitter) wsHandleData(msg []byte) error {
	channel, err := jsonparser.GetString(msg, "channel")
	if err != nil {
		return fmt.Errorf("websocket message without channel: %w", err)
	}
	switch channel {
	case websocketChannelPost:
		var m wsMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			return err
		}
		var reply wsPostReply
		if err := json.Unmarshal(m.Data, &reply); err != nil {
			return err
		}
		w.wsPendingMu.Lock()
		ch, ok := w.wsPending[reply.ID]
		w.wsPendingMu.Unlock()
		if !ok {
			return fmt.Errorf("%w: id %d", errUnexpectedPostReply, reply.ID)
		}
		select {
		case ch <- reply:
		default:
			return fmt.Errorf("%w: duplicate id %d", errUnexpectedPostReply, reply.ID)
		}
	case websocketChannelPong:
	case websocketChannelError:
		log.Warnf(log.WebsocketSys, "websocket error: %s", msg)
	default:
		log.Debugf(log.WebsocketSys, "ignoring channel %s", channel)
	}
	return nil
}

func (w *WebsocketSubmitter) keepalive(interval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.sendJSON(map[string]string{"method": "ping"}); err != nil {
				log.Warnf(log.WebsocketSys, "ping failed: %v", err)
			}
		}
	}
}

// Close shuts the connection and waits for the loops to stop.
func (w *WebsocketSubmitter) Close() error {
	if w.conn == nil {
		return nil
	}
	w.writeMu.Lock()
	_ = w.conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	w.writeMu.Unlock()
	err := w.conn.Close()
	w.wg.Wait()
	return err
}
