package hyperliquid

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

// Client binds a chain, signer and submitter so actions can be signed and
// sent in one call.
type Client struct {
	chain        SigningChain
	signer       Signer
	submitter    Submitter
	clock        Clock
	vaultAddress *common.Address
	expiresAfter *uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClock overrides the nonce clock.
func WithClock(c Clock) ClientOption {
	return func(cl *Client) {
		cl.clock = c
	}
}

// WithVault signs and sends every action on behalf of vault.
func WithVault(vault common.Address) ClientOption {
	return func(cl *Client) {
		cl.vaultAddress = &vault
	}
}

// WithExpiry sets expiresAfter on every L1 action.
func WithExpiry(expiresAfter uint64) ClientOption {
	return func(cl *Client) {
		cl.expiresAfter = &expiresAfter
	}
}

// NewClient returns a client for chain. submitter may be nil when actions are
// only signed.
func NewClient(chain SigningChain, signer Signer, submitter Submitter, opts ...ClientOption) (*Client, error) {
	if chain.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errChainRequired)
	}
	if signer == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errSignerRequired)
	}
	c := &Client{chain: chain, signer: signer, submitter: submitter, clock: SystemClock{}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Chain returns the signing chain.
func (c *Client) Chain() SigningChain {
	return c.chain
}

// WithVaultAddress returns a copy of c acting for vault. A nil vault clears it.
func (c *Client) WithVaultAddress(vault *common.Address) *Client {
	cp := *c
	cp.vaultAddress = vault
	return &cp
}

// WithExpiresAfter returns a copy of c with expiresAfter. nil clears it.
func (c *Client) WithExpiresAfter(expiresAfter *uint64) *Client {
	cp := *c
	cp.expiresAfter = expiresAfter
	return &cp
}

// PrepareAction binds a nonce to a and computes its digest. User-signed
// actions are never sent with an expiry, so it is dropped for them.
func (c *Client) PrepareAction(a Action) (*Prepared, error) {
	if a == nil {
		return nil, errActionRequired
	}
	expiresAfter := c.expiresAfter
	if expiresAfter != nil && a.Kind().Scheme() == SchemeUserSigned {
		log.Warnf(log.SigningSys, "%s is user-signed, ignoring expiresAfter %d", a.Kind(), *expiresAfter)
		expiresAfter = nil
	}
	return Prepare(a, c.chain, c.vaultAddress, expiresAfter, c.clock)
}

// SignAction prepares and signs a.
func (c *Client) SignAction(ctx context.Context, a Action) (*Signed, error) {
	p, err := c.PrepareAction(a)
	if err != nil {
		return nil, err
	}
	return p.Sign(ctx, c.signer)
}

// SendAction submits an already signed action.
func (c *Client) SendAction(ctx context.Context, s *Signed) (*ExchangeResponse, error) {
	if c.submitter == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errSubmitterRequired)
	}
	if s == nil {
		return nil, errActionRequired
	}
	resp, err := c.submitter.Submit(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("submit %s nonce %d: %w", s.Action.Kind(), s.Nonce, err)
	}
	return resp, nil
}

// ExecuteAction signs and submits a.
func (c *Client) ExecuteAction(ctx context.Context, a Action) (*ExchangeResponse, error) {
	s, err := c.SignAction(ctx, a)
	if err != nil {
		return nil, err
	}
	return c.SendAction(ctx, s)
}

// SignMultiSig returns this client's signature over a as a co-signer of the
// multi-sig user, submitted by outerSigner.
func (c *Client) SignMultiSig(ctx context.Context, a Action, nonce uint64, multiSigUser, outerSigner common.Address) (Signature, error) {
	meta := &SigningMeta{Nonce: nonce, VaultAddress: c.vaultAddress, ExpiresAfter: c.expiresAfter, Chain: c.chain}
	digest, err := MultiSigSigningHash(a, meta, multiSigUser, outerSigner)
	if err != nil {
		return Signature{}, err
	}
	sig, err := c.signer.SignDigest(ctx, digest)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: multi-sig %s: %w", ErrSignatureFailure, a.Kind(), err)
	}
	return sig, nil
}
