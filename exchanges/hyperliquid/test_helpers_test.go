package hyperliquid

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
)

const (
	testPrivateKey  = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113b37ad5dee0c90c0f0da58c16"
	testAddress     = "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"
	testVault       = "0x1111111111111111111111111111111111111111"
	testNonce       = uint64(1700000000000)
	metaPayload     = `{"universe":[{"name":"BTC","szDecimals":5,"maxLeverage":40,"marginTableId":1,"onlyIsolated":false,"isDelisted":false},{"name":"OLD","szDecimals":1,"maxLeverage":3,"isDelisted":true},{"name":"ETH","szDecimals":4,"maxLeverage":25}]}`
	spotMetaPayload = `{"universe":[{"tokens":[1,0],"name":"PURR/USDC","index":0,"isCanonical":true},{"tokens":[2,0],"name":"@1","index":1,"isCanonical":false}],"tokens":[{"name":"USDC","szDecimals":8,"weiDecimals":8,"index":0},{"name":"PURR","szDecimals":0,"weiDecimals":5,"index":1},{"name":"HFUN","szDecimals":2,"weiDecimals":8,"index":2}]}`
)

var testClock = ClockFunc(func() time.Time { return time.UnixMilli(int64(testNonce)) })

func mustLocalSigner(t *testing.T, key string) *LocalSigner {
	t.Helper()
	s, err := NewLocalSigner(key)
	require.NoError(t, err, "NewLocalSigner must not error")
	return s
}

func mustHash(t *testing.T, s string) common.Hash {
	t.Helper()
	b := common.FromHex(s)
	require.Len(t, b, common.HashLength, "hash must be 32 bytes")
	return common.BytesToHash(b)
}

func ptrTo[T any](v T) *T {
	return &v
}

func mustCloseBody(t *testing.T, closer io.Closer) {
	t.Helper()
	if err := closer.Close(); err != nil {
		t.Fatalf("body must close: %v", err)
	}
}

func mustDecodeJSON(t *testing.T, reader io.Reader, target any) {
	t.Helper()
	if err := json.NewDecoder(reader).Decode(target); err != nil {
		t.Fatalf("decode json must not error: %v", err)
	}
}

func mustWrite(t *testing.T, w http.ResponseWriter, payload string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(payload)); err != nil {
		t.Fatalf("write must not error: %v", err)
	}
}

func mustUnmarshalJSON(t *testing.T, data []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal json must not error: %v", err)
	}
}

func requireMap(t *testing.T, value any) map[string]any {
	t.Helper()
	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", value)
	}
	return m
}

func newTestRESTSubmitter(t *testing.T, handler http.HandlerFunc) *RESTSubmitter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	r, err := request.New("hyperliquid-test", srv.Client(), request.WithLimiter(RateLimits(0, 0)), request.WithMaxRetries(0))
	require.NoError(t, err, "request.New must not error")
	rest, err := NewRESTSubmitter(srv.URL+"/", r, false)
	require.NoError(t, err, "NewRESTSubmitter must not error")
	t.Cleanup(func() { assert.NoError(t, rest.Close(), "Close must release the client") })
	return rest
}
