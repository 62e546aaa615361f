package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thrasher-corp/gct-hyperliquid/common"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	errNoTerminal     = errors.New("no terminal to read the keystore passphrase from; set signer.passphrase")
	errChainMismatch  = errors.New("action chain does not match the configured chain")
	errNothingToSend  = errors.New("one of --action or --signed is required")
	errTooManyToSend  = errors.New("--action and --signed are mutually exclusive")
	errEmptyInputFile = errors.New("input is empty")
)

type addressView struct {
	Address string
}

type preparedView struct {
	Kind         string
	Scheme       string
	Chain        string
	Nonce        uint64
	Digest       string
	ConnectionID string
	VaultAddress string
	ExpiresAfter *uint64
}

type signedView struct {
	Kind      string
	Nonce     uint64
	Signer    string
	Signature string
	Body      string
}

type responseView struct {
	Status      string
	Type        string
	OrderID     string
	OrderStatus string
	Error       string
	Response    *hyperliquid.ExchangeResponse
}

func promptPassphrase() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	fmt.Fprint(os.Stderr, "keystore passphrase: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readInput(c *cli.Context, name string) ([]byte, error) {
	path := c.String(name)
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(c.App.Reader)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read --%s: %w", name, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, fmt.Errorf("--%s: %w", name, errEmptyInputFile)
	}
	return b, nil
}

// readAction decodes the --action file and applies --nonce. A user-signed
// action which names its chain must name the configured one.
func (r *runner) readAction(c *cli.Context) (hyperliquid.Action, error) {
	raw, err := readInput(c, "action")
	if err != nil {
		return nil, err
	}
	a, actionChain, err := hyperliquid.DecodeAction(raw)
	if err != nil {
		return nil, err
	}
	chain, err := r.cfg.Chain()
	if err != nil {
		return nil, err
	}
	if !actionChain.IsZero() && actionChain != chain {
		return nil, fmt.Errorf("%w: %s != %s", errChainMismatch, actionChain, chain)
	}
	if n := c.Uint64("nonce"); n != 0 {
		hyperliquid.WithNonce(a, n)
	}
	return a, nil
}

func (r *runner) address(c *cli.Context) error {
	s, err := r.cfg.NewSigner(c.Context, r.prompt)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), addressView{Address: common.Lower0x(s.Address().Hex())})
}

func (r *runner) prepare(c *cli.Context) error {
	a, err := r.readAction(c)
	if err != nil {
		return err
	}
	chain, err := r.cfg.Chain()
	if err != nil {
		return err
	}
	expiresAfter := r.cfg.ExpiresAfterFrom(r.now())
	if a.Kind().Scheme() == hyperliquid.SchemeUserSigned {
		expiresAfter = nil
	}
	p, err := hyperliquid.Prepare(a, chain, r.cfg.Vault(), expiresAfter, r.clock)
	if err != nil {
		return err
	}
	view := preparedView{
		Kind:         a.Kind().String(),
		Scheme:       a.Kind().Scheme().String(),
		Chain:        chain.String(),
		Nonce:        p.Nonce,
		Digest:       p.Digest().Hex(),
		ExpiresAfter: p.ExpiresAfter,
	}
	if l1, ok := p.SigningData().(hyperliquid.L1SigningData); ok {
		view.ConnectionID = l1.ConnectionID.Hex()
	}
	if p.VaultAddress != nil {
		view.VaultAddress = common.Lower0x(p.VaultAddress.Hex())
	}
	return render(c.App.Writer, c.String("format"), view)
}

func (r *runner) signAction(c *cli.Context, submitter hyperliquid.Submitter) (*hyperliquid.Client, *hyperliquid.Signed, error) {
	a, err := r.readAction(c)
	if err != nil {
		return nil, nil, err
	}
	signer, err := r.cfg.NewSigner(c.Context, r.prompt)
	if err != nil {
		return nil, nil, err
	}
	client, err := r.cfg.NewClient(signer, submitter, r.now(), hyperliquid.WithClock(r.clock))
	if err != nil {
		return nil, nil, err
	}
	s, err := client.SignAction(c.Context, a)
	if err != nil {
		return nil, nil, err
	}
	return client, s, nil
}

func (r *runner) sign(c *cli.Context) error {
	_, s, err := r.signAction(c, nil)
	if err != nil {
		return err
	}
	body, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	addr, err := s.RecoverSigner(s.Chain)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), signedView{
		Kind:      s.Action.Kind().String(),
		Nonce:     s.Nonce,
		Signer:    common.Lower0x(addr.Hex()),
		Signature: s.Signature.String(),
		Body:      string(body),
	})
}

func (r *runner) readSigned(c *cli.Context) (*hyperliquid.Signed, error) {
	raw, err := readInput(c, "signed")
	if err != nil {
		return nil, err
	}
	s, err := hyperliquid.DecodeSigned(raw)
	if err != nil {
		return nil, err
	}
	if s.Chain.IsZero() {
		if s.Chain, err = r.cfg.Chain(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *runner) recover(c *cli.Context) error {
	s, err := r.readSigned(c)
	if err != nil {
		return err
	}
	addr, err := s.RecoverSigner(s.Chain)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), addressView{Address: common.Lower0x(addr.Hex())})
}

func (r *runner) send(c *cli.Context) error {
	hasAction, hasSigned := c.String("action") != "", c.String("signed") != ""
	switch {
	case hasAction && hasSigned:
		return errTooManyToSend
	case !hasAction && !hasSigned:
		return errNothingToSend
	}
	submitter, closeFn, err := r.cfg.NewSubmitter(c.Context)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			fmt.Fprintln(c.App.ErrWriter, err)
		}
	}()

	var resp *hyperliquid.ExchangeResponse
	if hasSigned {
		s, err := r.readSigned(c)
		if err != nil {
			return err
		}
		if resp, err = submitter.Submit(c.Context, s); err != nil {
			return err
		}
	} else {
		client, s, err := r.signAction(c, submitter)
		if err != nil {
			return err
		}
		if resp, err = client.SendAction(c.Context, s); err != nil {
			return err
		}
	}

	view := responseView{Status: resp.Status, Response: resp}
	if resp.Response != nil {
		view.Type = resp.Response.Type
		if len(resp.Response.Data.Statuses) > 0 {
			oid, status, entryErr, err := resp.ExtractOrderStatus()
			if err == nil {
				view.OrderID, view.OrderStatus = oid, status.String()
			}
			if entryErr != nil {
				view.Error = entryErr.Error()
			}
		}
	}
	return render(c.App.Writer, c.String("format"), view)
}
