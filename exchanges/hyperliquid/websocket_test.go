package hyperliquid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/buger/jsonparser"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestWebsocketServer answers every post with reply(id, action type).
func newTestWebsocketServer(t *testing.T, reply func(id uint64, actionType string) string) string {
	t.Helper()
	upgrader := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if method, _ := jsonparser.GetString(msg, "method"); method != "post" {
				continue
			}
			id, err := jsonparser.GetInt(msg, "id")
			if err != nil {
				return
			}
			actionType, _ := jsonparser.GetString(msg, "request", "payload", "action", "type")
			out := reply(uint64(id), actionType)
			if out == "" {
				continue
			}
			if err := conn.WriteMessage(gws.TextMessage, []byte(out)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func postReply(id uint64, replyType, payload string) string {
	return `{"channel":"post","data":{"id":` + strconv.FormatUint(id, 10) + `,"response":{"type":"` + replyType + `","payload":` + payload + `}}}`
}

func TestWebsocketSubmitterSubmit(t *testing.T) {
	t.Parallel()
	url := newTestWebsocketServer(t, func(id uint64, actionType string) string {
		if actionType == "noop" {
			return postReply(id, wsPostTypeError, `"Invalid nonce"`)
		}
		return postReply(id, wsPostTypeAction, `{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":7}}]}}}`)
	})
	ws := NewWebsocketSubmitter(url)
	require.NoError(t, ws.Connect(context.Background()))
	t.Cleanup(func() { assert.NoError(t, ws.Close()) })

	order := &Signed{Action: WithNonce(&BulkOrder{Grouping: GroupingNA}, 1), Nonce: 1}
	resp, err := ws.Submit(context.Background(), order)
	require.NoError(t, err)
	oid, status, entryErr, err := resp.ExtractOrderStatus()
	require.NoError(t, err)
	require.NoError(t, entryErr)
	assert.Equal(t, "7", oid)
	assert.Equal(t, OrderStatusActive, status)

	_, err = ws.Submit(context.Background(), &Signed{Action: WithNonce(&Noop{}, 2), Nonce: 2})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid nonce", apiErr.Message)

	_, err = ws.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, errActionRequired)
}

func TestWebsocketSubmitterContextAndClose(t *testing.T) {
	t.Parallel()
	url := newTestWebsocketServer(t, func(uint64, string) string { return "" })
	ws := NewWebsocketSubmitter(url)
	require.NoError(t, ws.Connect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ws.Submit(ctx, &Signed{Action: WithNonce(&Noop{}, 1), Nonce: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, ws.Close())
	_, err = ws.Submit(context.Background(), &Signed{Action: WithNonce(&Noop{}, 2), Nonce: 2})
	require.Error(t, err, "submit after close must error")
}

func TestWebsocketSubmitterNotConnected(t *testing.T) {
	t.Parallel()
	ws := NewWebsocketSubmitter(TestnetWSURL)
	_, err := ws.Submit(context.Background(), &Signed{Action: &Noop{}})
	assert.ErrorIs(t, err, errWebsocketNotConnected)
	assert.NoError(t, ws.Close())
	assert.Equal(t, MainnetWSURL, WSURLForChain(Mainnet))
	assert.Equal(t, TestnetWSURL, WSURLForChain(Testnet))
}

func TestWebsocketHandleData(t *testing.T) {
	t.Parallel()
	ws := NewWebsocketSubmitter(TestnetWSURL)
	ch := make(chan wsPostReply, 1)
	ws.wsPending[3] = ch

	require.NoError(t, ws.wsHandleData([]byte(postReply(3, wsPostTypeAction, `{"status":"ok"}`))))
	got := <-ch
	assert.Equal(t, uint64(3), got.ID)
	assert.Equal(t, wsPostTypeAction, got.Response.Type)

	require.NoError(t, ws.wsHandleData([]byte(postReply(3, wsPostTypeAction, `{}`))))
	assert.ErrorIs(t, ws.wsHandleData([]byte(postReply(3, wsPostTypeAction, `{}`))), errUnexpectedPostReply, "a second unread reply must be rejected")
	assert.ErrorIs(t, ws.wsHandleData([]byte(postReply(9, wsPostTypeAction, `{}`))), errUnexpectedPostReply)
	assert.NoError(t, ws.wsHandleData([]byte(`{"channel":"pong"}`)))
	assert.NoError(t, ws.wsHandleData([]byte(`{"channel":"subscriptionResponse","data":{}}`)))
	assert.Error(t, ws.wsHandleData([]byte(`{"data":{}}`)))
}
