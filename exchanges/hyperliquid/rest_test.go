package hyperliquid

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
)

func TestRESTSubmitterSubmit(t *testing.T) {
	t.Parallel()
	signer := mustLocalSigner(t, testPrivateKey)
	p, err := Prepare(&ScheduleCancel{}, Testnet, nil, nil, testClock)
	require.NoError(t, err)
	s, err := p.Sign(context.Background(), signer)
	require.NoError(t, err)

	rest := newTestRESTSubmitter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, exchangePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		defer mustCloseBody(t, r.Body)
		var body map[string]any
		mustDecodeJSON(t, r.Body, &body)
		assert.InDelta(t, testNonce, body["nonce"], 0)
		assert.Equal(t, "scheduleCancel", requireMap(t, body["action"])["type"])
		mustWrite(t, w, `{"status":"ok","response":{"type":"default"}}`)
	})
	resp, err := rest.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, ResponseStatusOK, resp.Status)

	_, err = rest.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, errActionRequired)
}

func TestRESTSubmitterErrors(t *testing.T) {
	t.Parallel()
	s := &Signed{Action: WithNonce(&Noop{}, 1), Nonce: 1}
	for _, tc := range []struct {
		name   string
		status int
		body   string
		check  func(*testing.T, error)
	}{
		{"api error", http.StatusOK, `{"status":"err","response":"Insufficient staked HYPE"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, APIErrorInsufficientStakedHype, apiErr.Kind)
		}},
		{"client json", http.StatusUnprocessableEntity, `{"code":422,"msg":"Failed to deserialize","data":"line \"1\""}`, func(t *testing.T, err error) {
			var clientErr *ClientRequestError
			require.ErrorAs(t, err, &clientErr)
			assert.Equal(t, http.StatusUnprocessableEntity, clientErr.StatusCode)
			require.NotNil(t, clientErr.ErrorCode)
			assert.Equal(t, 422, *clientErr.ErrorCode)
			assert.Equal(t, "Failed to deserialize", clientErr.Message)
			require.NotNil(t, clientErr.Data)
			assert.Equal(t, `line "1"`, *clientErr.Data)
		}},
		{"client object data", http.StatusBadRequest, `{"msg":"bad","data":{"field":"nonce"}}`, func(t *testing.T, err error) {
			var clientErr *ClientRequestError
			require.ErrorAs(t, err, &clientErr)
			assert.Nil(t, clientErr.ErrorCode)
			require.NotNil(t, clientErr.Data)
			assert.JSONEq(t, `{"field":"nonce"}`, *clientErr.Data)
		}},
		{"client plain", http.StatusBadRequest, `Bad Request`, func(t *testing.T, err error) {
			var clientErr *ClientRequestError
			require.ErrorAs(t, err, &clientErr)
			assert.Equal(t, "Bad Request", clientErr.Message)
			assert.Nil(t, clientErr.Data)
			assert.Contains(t, clientErr.Error(), "status 400")
		}},
		{"server", http.StatusBadGateway, `upstream down`, func(t *testing.T, err error) {
			var serverErr *ServerRequestError
			require.ErrorAs(t, err, &serverErr)
			assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
			assert.Equal(t, "upstream down", serverErr.Message)
		}},
		{"malformed", http.StatusOK, `{"status":1}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEncodingFailure)
		}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rest := newTestRESTSubmitter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := rest.Submit(context.Background(), s)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestNewRESTSubmitterValidation(t *testing.T) {
	t.Parallel()
	_, err := NewRESTSubmitter(MainnetAPIURL, nil, false)
	assert.ErrorIs(t, err, ErrConfiguration)
	r, err := request.New("hyperliquid-test", new(http.Client))
	require.NoError(t, err)
	_, err = NewRESTSubmitter("  ", r, false)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, MainnetAPIURL, APIURLForChain(Mainnet))
	assert.Equal(t, TestnetAPIURL, APIURLForChain(Testnet))
}
