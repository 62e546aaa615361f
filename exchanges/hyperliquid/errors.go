package hyperliquid

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel failure classes. Every error produced while encoding, signing or
// recovering wraps exactly one of these.
var (
	ErrEncodingFailure       = errors.New("encoding failure")
	ErrSignatureFailure      = errors.New("signature failure")
	ErrRecoverAddressFailure = errors.New("recover address failure")
	ErrConfiguration         = errors.New("configuration error")
)

var (
	errPrivateKeyNotProvided   = errors.New("private key not provided")
	errInvalidPrivateKeyLength = errors.New("invalid private key length")
	errSignerRequired          = errors.New("signer required")
	errSubmitterRequired       = errors.New("submitter required")
	errActionRequired          = errors.New("action required")
	errNilSigningMeta          = errors.New("signing meta required")
	errChainRequired           = errors.New("signing chain required")
	errNegativeNonceTimestamp  = errors.New("clock returned a timestamp before the unix epoch")
	errNonceMissing            = errors.New("action nonce missing")
	errUnboundTypedField       = errors.New("type preimage field has no bound value")
	errTypedFieldMismatch      = errors.New("field value does not match declared type")
	errMalformedPreimage       = errors.New("malformed type preimage")
	errUnsupportedTypedType    = errors.New("unsupported typed data type")
	errUintOverflow            = errors.New("value overflows declared uint width")
	errNotTypedDataAction      = errors.New("action is not signed with typed data")
	errUnknownActionType       = errors.New("unknown action type")
	errMissingPayload          = errors.New("action payload missing")
	errInvalidSignature        = errors.New("invalid signature")
	errInvalidRecoveryID       = errors.New("invalid recovery id")
	errInvalidAddress          = errors.New("invalid address")
	errUnknownResponseStatus   = errors.New("unknown response status")
	errResponseMissing         = errors.New("response missing")
	errResponseStatusesEmpty   = errors.New("response statuses empty")
	errExchangeStatusEntry     = errors.New("exchange rejected order")
	errUnknownCoin             = errors.New("unknown coin")
	errFloatRounding           = errors.New("float conversion causes rounding")
	errInvalidOrderType        = errors.New("order type must be limit or trigger")
	errInvalidThreshold        = errors.New("multi-sig threshold out of range")
	errWebsocketNotConnected   = errors.New("websocket not connected")
	errWebsocketClosed         = errors.New("websocket closed")
	errUnexpectedPostReply     = errors.New("unexpected websocket post reply")
)

// APIErrorKind classifies exchange rejections.
type APIErrorKind uint8

// API error kinds.
const (
	APIErrorOther APIErrorKind = iota
	APIErrorInsufficientStakedHype
)

func (k APIErrorKind) String() string {
	if k == APIErrorInsufficientStakedHype {
		return "InsufficientStakedHype"
	}
	return "Other"
}

// APIError is returned when the exchange answers {"status":"err"}.
type APIError struct {
	Kind    APIErrorKind
	Message string
}

func newAPIError(msg string) *APIError {
	kind := APIErrorOther
	if strings.Contains(strings.ToLower(msg), "insufficient staked") {
		kind = APIErrorInsufficientStakedHype
	}
	return &APIError{Kind: kind, Message: msg}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

// ClientRequestError is a 4xx answer from the exchange.
type ClientRequestError struct {
	StatusCode int
	ErrorCode  *int
	Message    string
	Data       *string
}

func (e *ClientRequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "client request error: status %d", e.StatusCode)
	if e.ErrorCode != nil {
		fmt.Fprintf(&b, " code %d", *e.ErrorCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Data != nil {
		fmt.Fprintf(&b, " (data: %s)", *e.Data)
	}
	return b.String()
}

// ServerRequestError is a 5xx answer from the exchange.
type ServerRequestError struct {
	StatusCode int
	Message    string
}

func (e *ServerRequestError) Error() string {
	return fmt.Sprintf("server request error: status %d: %s", e.StatusCode, e.Message)
}
