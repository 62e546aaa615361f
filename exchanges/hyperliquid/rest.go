package hyperliquid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

// Default endpoints.
const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
	MainnetWSURL  = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL  = "wss://api.hyperliquid-testnet.xyz/ws"

	infoPath     = "/info"
	exchangePath = "/exchange"
)

// Submitter delivers a signed action to the exchange.
type Submitter interface {
	Submit(ctx context.Context, s *Signed) (*ExchangeResponse, error)
}

// RESTSubmitter posts signed actions and info queries over HTTP.
type RESTSubmitter struct {
	requester *request.Requester
	baseURL   string
	verbose   bool
}

// NewRESTSubmitter returns a submitter for baseURL using requester.
func NewRESTSubmitter(baseURL string, requester *request.Requester, verbose bool) (*RESTSubmitter, error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, request.ErrRequestSystemIsNil)
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: base URL required", ErrConfiguration)
	}
	return &RESTSubmitter{
		requester: requester,
		baseURL:   strings.TrimRight(baseURL, "/"),
		verbose:   verbose,
	}, nil
}

// Close releases the HTTP client owned by the requester.
func (r *RESTSubmitter) Close() error {
	return r.requester.Shutdown()
}

// APIURLForChain returns the default REST URL for chain.
func APIURLForChain(chain SigningChain) string {
	if chain.IsMainnet() {
		return MainnetAPIURL
	}
	return TestnetAPIURL
}

// Submit posts s to /exchange.
func (r *RESTSubmitter) Submit(ctx context.Context, s *Signed) (*ExchangeResponse, error) {
	if s == nil {
		return nil, errActionRequired
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.sendPOST(ctx, exchangePath, body, &raw, exchangeRateLimit); err != nil {
		submissionsTotal.WithLabelValues("rest", "error").Inc()
		return nil, err
	}
	resp, err := ParseExchangeResponse(raw)
	if err != nil {
		submissionsTotal.WithLabelValues("rest", "rejected").Inc()
		return nil, err
	}
	submissionsTotal.WithLabelValues("rest", "ok").Inc()
	return resp, nil
}

func (r *RESTSubmitter) sendInfo(ctx context.Context, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal info request: %w", err)
	}
	return r.sendPOST(ctx, infoPath, body, result, infoRateLimit)
}

func (r *RESTSubmitter) sendPOST(ctx context.Context, path string, body []byte, result any, limit request.EndpointLimit) error {
	generate := func() (*request.Item, error) {
		return &request.Item{
			Method:  http.MethodPost,
			Path:    r.baseURL + path,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    bytes.NewReader(body),
			Result:  result,
			Verbose: r.verbose,
		}, nil
	}
	auth := request.UnauthenticatedRequest
	if limit == exchangeRateLimit {
		auth = request.AuthenticatedRequest
	}
	err := r.requester.SendPayload(ctx, limit, generate, auth)
	if err == nil {
		return nil
	}
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	mapped := requestErrorFromStatus(statusErr)
	log.Warnf(log.ExchangeSys, "POST %s: %v", path, mapped)
	return mapped
}

// requestErrorFromStatus maps a non-2xx answer onto the client or server
// request error.
func requestErrorFromStatus(e *request.StatusError) error {
	if e.StatusCode >= http.StatusInternalServerError {
		return &ServerRequestError{StatusCode: e.StatusCode, Message: string(e.Body)}
	}
	out := &ClientRequestError{StatusCode: e.StatusCode, Message: string(e.Body)}
	var body struct {
		Code *int            `json:"code"`
		Msg  *string         `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &body) != nil || body.Msg == nil {
		return out
	}
	out.ErrorCode = body.Code
	out.Message = *body.Msg
	if len(body.Data) > 0 && !bytes.Equal(body.Data, []byte("null")) {
		data := string(body.Data)
		if n := len(body.Data); n >= 2 && body.Data[0] == '"' {
			if s, err := jsonparser.ParseString(body.Data[1 : n-1]); err == nil {
				data = s
			}
		}
		out.Data = &data
	}
	return out
}
