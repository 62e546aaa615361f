package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
)

const (
	testPrivateKey = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113b37ad5dee0c90c0f0da58c16"
	testAddress    = "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"
	testNonce      = uint64(1700000000000)
)

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T, apiURL string) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := "network: testnet\nlogging:\n  enabled: false\nsigner:\n  type: local\n  private_key: \"" + testPrivateKey + "\"\n"
	if apiURL != "" {
		cfg += "api_url: " + apiURL + "\nretry:\n  max_retries: 0\n"
	}
	path := filepath.Join(dir, "hlsign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &fixture{dir: dir, config: path}
}

func (f *fixture) file(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out, hyperliquid.FixedClock(testNonce))
	err := app.Run(append([]string{"hlsign", "--config", f.config}, args...))
	return strings.TrimSpace(out.String()), err
}

func TestAddressCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	out, err := f.run(t, "", "address")
	require.NoError(t, err)
	assert.Equal(t, testAddress, out)

	out, err = f.run(t, "", "address", "--format", "{{ .Address | upper | trimPrefix \"0X\" }}")
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(strings.TrimPrefix(testAddress, "0x")), out)
}

func TestPrepareSignRecover(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	action := f.file(t, "noop.json", `{"type":"noop","noop":{}}`)

	out, err := f.run(t, "", "prepare", "--action", action, "--format", "{{ .Scheme }} {{ .Nonce }} {{ .Digest }}")
	require.NoError(t, err)
	p, err := hyperliquid.Prepare(&hyperliquid.Noop{}, hyperliquid.Testnet, nil, nil, hyperliquid.FixedClock(testNonce))
	require.NoError(t, err)
	assert.Equal(t, "l1 1700000000000 "+p.Digest().Hex(), out)

	body, err := f.run(t, "", "sign", "--action", action, "--nonce", "42")
	require.NoError(t, err)
	s, err := hyperliquid.DecodeSigned([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), s.Nonce)

	out, err = f.run(t, body, "recover", "--signed", "-")
	require.NoError(t, err)
	assert.Equal(t, testAddress, out)

	out, err = f.run(t, "", "sign", "--action", action, "--format", "{{ .Signer }}")
	require.NoError(t, err)
	assert.Equal(t, testAddress, out)
}

func TestUserSignedActionChain(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	testnet := f.file(t, "send.json", `{"type":"usdSend","usdSend":{"destination":"0x0d1d9635d0640821d15e323ac8adadfa9c111414","amount":"1"},"signatureChainId":"0x66eee","hyperliquidChain":"Testnet"}`)
	out, err := f.run(t, "", "prepare", "--action", testnet, "--format", "{{ .Scheme }} {{ .Nonce }}")
	require.NoError(t, err)
	assert.Equal(t, "user-signed 1700000000000", out)

	mainnet := f.file(t, "send-mainnet.json", `{"type":"usdSend","usdSend":{"destination":"0x0d1d9635d0640821d15e323ac8adadfa9c111414","amount":"1"},"signatureChainId":"0xa4b1","hyperliquidChain":"Mainnet"}`)
	_, err = f.run(t, "", "prepare", "--action", mainnet)
	assert.ErrorIs(t, err, errChainMismatch)
}

func TestSendCommand(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":77}}]}}}`))
	}))
	t.Cleanup(srv.Close)
	f := newFixture(t, srv.URL)
	action := f.file(t, "order.json", `{"type":"order","order":{"orders":[{"a":0,"b":true,"p":"100","s":"1","r":false,"t":{"limit":{"tif":"Gtc"}}}],"grouping":"na"}}`)

	out, err := f.run(t, "", "send", "--action", action)
	require.NoError(t, err)
	assert.Equal(t, "ok 77", out)

	body, err := f.run(t, "", "sign", "--action", action)
	require.NoError(t, err)
	out, err = f.run(t, "", "send", "--signed", f.file(t, "signed.json", body), "--format", "{{ .OrderStatus }}")
	require.NoError(t, err)
	assert.Equal(t, "active", out)

	_, err = f.run(t, "", "send")
	assert.ErrorIs(t, err, errNothingToSend)
	_, err = f.run(t, "", "send", "--action", action, "--signed", action)
	assert.ErrorIs(t, err, errTooManyToSend)
}

func TestInputErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	_, err := f.run(t, "  ", "recover", "--signed", "-")
	assert.ErrorIs(t, err, errEmptyInputFile)
	_, err = f.run(t, "", "prepare", "--action", filepath.Join(f.dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = f.run(t, "", "prepare", "--action", f.file(t, "bad.json", `{"type":"teleport"}`))
	assert.ErrorIs(t, err, hyperliquid.ErrEncodingFailure)
	_, err = f.run(t, "", "address", "--format", "{{ .Missing")
	assert.ErrorContains(t, err, "parse --format")
}

func TestMetricsOutput(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	action := f.file(t, "noop.json", `{"type":"noop","noop":{}}`)
	_, err := f.run(t, "", "--metrics", "sign", "--action", action)
	require.NoError(t, err)

	reg, err := newMetricsRegistry()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writeMetrics(&buf, reg))
	assert.Contains(t, buf.String(), "hlsign_signing_signatures_total")
}
