// Package config loads hlsign settings from YAML and HLSIGN_ environment
// variables and builds the signer, transport and client they describe.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/thrasher-corp/gct-hyperliquid/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	envPrefix         = "HLSIGN"
	defaultConfigName = "hlsign"

	// Networks
	NetworkMainnet = "Mainnet"
	NetworkTestnet = "Testnet"
	NetworkCustom  = "Custom"

	// Signer types
	SignerLocal    = "local"
	SignerKeystore = "keystore"
	SignerKMS      = "kms"

	// Transports
	TransportREST      = "rest"
	TransportWebsocket = "websocket"

	defaultHTTPTimeout = 15 * time.Second
)

var (
	errInvalidConfig = errors.New("invalid config")
	titleCaser       = cases.Title(language.English)
	lowerCaser       = cases.Lower(language.English)
)

// Config is the full hlsign configuration.
type Config struct {
	Network      string          `mapstructure:"network"`
	CustomChain  CustomChain     `mapstructure:"custom_chain"`
	APIURL       string          `mapstructure:"api_url"`
	WSURL        string          `mapstructure:"ws_url"`
	Transport    string          `mapstructure:"transport"`
	Dex          string          `mapstructure:"dex"`
	VaultAddress string          `mapstructure:"vault_address"`
	ExpiresAfter time.Duration   `mapstructure:"expires_after"`
	Signer       SignerConfig    `mapstructure:"signer"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Retry        RetryConfig     `mapstructure:"retry"`
	HTTPTimeout  time.Duration   `mapstructure:"http_timeout"`
	Verbose      bool            `mapstructure:"verbose"`
	Logging      log.Config      `mapstructure:"logging"`
}

// CustomChain describes a network which is neither mainnet nor testnet.
type CustomChain struct {
	Source           string `mapstructure:"source"`
	Name             string `mapstructure:"name"`
	SignatureChainID uint64 `mapstructure:"signature_chain_id"`
}

// SignerConfig selects and configures the signing key.
type SignerConfig struct {
	Type         string `mapstructure:"type"`
	PrivateKey   string `mapstructure:"private_key"`
	KeystorePath string `mapstructure:"keystore_path"`
	Passphrase   string `mapstructure:"passphrase"`
	KMSKeyID     string `mapstructure:"kms_key_id"`
	KMSRegion    string `mapstructure:"kms_region"`
}

// RateLimitConfig holds per second request budgets. Zero disables limiting.
type RateLimitConfig struct {
	InfoPerSecond     int `mapstructure:"info_per_second"`
	ExchangePerSecond int `mapstructure:"exchange_per_second"`
}

// RetryConfig bounds REST retries on timeouts and 429 responses.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", NetworkTestnet)
	v.SetDefault("custom_chain.source", "")
	v.SetDefault("custom_chain.name", "")
	v.SetDefault("custom_chain.signature_chain_id", 0)
	v.SetDefault("api_url", "")
	v.SetDefault("ws_url", "")
	v.SetDefault("transport", TransportREST)
	v.SetDefault("dex", "")
	v.SetDefault("vault_address", "")
	v.SetDefault("expires_after", time.Duration(0))
	v.SetDefault("signer.type", SignerLocal)
	v.SetDefault("signer.private_key", "")
	v.SetDefault("signer.keystore_path", "")
	v.SetDefault("signer.passphrase", "")
	v.SetDefault("signer.kms_key_id", "")
	v.SetDefault("signer.kms_region", "")
	v.SetDefault("rate_limit.info_per_second", hyperliquid.DefaultInfoRequestsPerSecond)
	v.SetDefault("rate_limit.exchange_per_second", hyperliquid.DefaultExchangeRequestsPerSecond)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.backoff", 100*time.Millisecond)
	v.SetDefault("retry.max_backoff", time.Second)
	v.SetDefault("http_timeout", defaultHTTPTimeout)
	v.SetDefault("verbose", false)
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.encoding", "console")
}

// Load reads path, or hlsign.yaml from the working directory when path is
// empty, applies HLSIGN_ overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config")
			}
			log.Debugln(log.ConfigSys, "no config file found, using defaults and environment")
		}
	}

	c := new(Config)
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	c.normalise()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if f := v.ConfigFileUsed(); f != "" {
		log.Infof(log.ConfigSys, "loaded config %s network %s", f, c.Network)
	}
	return c, nil
}

func (c *Config) normalise() {
	c.Network = titleCaser.String(strings.TrimSpace(c.Network))
	c.Transport = lowerCaser.String(strings.TrimSpace(c.Transport))
	c.Signer.Type = lowerCaser.String(strings.TrimSpace(c.Signer.Type))
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.WSURL = strings.TrimSpace(c.WSURL)
}

func oneOf(value, param string, allowed ...string) vala.Checker {
	return func() (bool, string) {
		for _, a := range allowed {
			if value == a {
				return true, ""
			}
		}
		return false, fmt.Sprintf("parameter %s must be one of %s, got %q", param, strings.Join(allowed, "|"), value)
	}
}

func requiredWhen(cond bool, value, param string) vala.Checker {
	return func() (bool, string) {
		if !cond || strings.TrimSpace(value) != "" {
			return true, ""
		}
		return false, "parameter " + param + " is required"
	}
}

func hexAddress(value, param string) vala.Checker {
	return func() (bool, string) {
		if value == "" || common.IsHexAddress(value) {
			return true, ""
		}
		return false, fmt.Sprintf("parameter %s is not a hex address: %q", param, value)
	}
}

func nonNegative(d time.Duration, param string) vala.Checker {
	return func() (bool, string) {
		if d >= 0 {
			return true, ""
		}
		return false, fmt.Sprintf("parameter %s must not be negative", param)
	}
}

// Validate checks that the config describes a usable chain, signer and
// transport.
func (c *Config) Validate() error {
	custom := c.Network == NetworkCustom
	err := vala.BeginValidation().Validate(
		oneOf(c.Network, "network", NetworkMainnet, NetworkTestnet, NetworkCustom),
		oneOf(c.Transport, "transport", TransportREST, TransportWebsocket),
		oneOf(c.Signer.Type, "signer.type", SignerLocal, SignerKeystore, SignerKMS),
		requiredWhen(custom, c.CustomChain.Name, "custom_chain.name"),
		requiredWhen(custom, c.CustomChain.Source, "custom_chain.source"),
		requiredWhen(custom, c.APIURL, "api_url"),
		requiredWhen(custom && c.Transport == TransportWebsocket, c.WSURL, "ws_url"),
		requiredWhen(c.Signer.Type == SignerKeystore, c.Signer.KeystorePath, "signer.keystore_path"),
		requiredWhen(c.Signer.Type == SignerKMS, c.Signer.KMSKeyID, "signer.kms_key_id"),
		requiredWhen(c.Signer.Type == SignerKMS, c.Signer.KMSRegion, "signer.kms_region"),
		hexAddress(c.VaultAddress, "vault_address"),
		nonNegative(c.ExpiresAfter, "expires_after"),
		nonNegative(c.HTTPTimeout, "http_timeout"),
		nonNegative(c.Retry.Backoff, "retry.backoff"),
		nonNegative(c.Retry.MaxBackoff, "retry.max_backoff"),
		nonNegative(time.Duration(c.Retry.MaxRetries), "retry.max_retries"),
	).Check()
	if err != nil {
		return errors.Wrapf(hyperliquid.ErrConfiguration, "%v: %v", errInvalidConfig, err)
	}
	if custom && c.CustomChain.SignatureChainID == 0 {
		return errors.Wrapf(hyperliquid.ErrConfiguration, "%v: parameter custom_chain.signature_chain_id is required", errInvalidConfig)
	}
	return nil
}

// Chain returns the signing chain selected by Network.
func (c *Config) Chain() (hyperliquid.SigningChain, error) {
	if c.Network == NetworkCustom {
		return hyperliquid.CustomChain(c.CustomChain.Source, c.CustomChain.Name, c.CustomChain.SignatureChainID), nil
	}
	return hyperliquid.ChainByName(c.Network)
}

// Vault returns the configured vault address, if any.
func (c *Config) Vault() *common.Address {
	if c.VaultAddress == "" {
		return nil
	}
	a := common.HexToAddress(c.VaultAddress)
	return &a
}

// ExpiresAfterFrom returns the expiresAfter timestamp for actions signed at
// now, or nil when no expiry is configured.
func (c *Config) ExpiresAfterFrom(now time.Time) *uint64 {
	if c.ExpiresAfter <= 0 {
		return nil
	}
	ms := uint64(now.Add(c.ExpiresAfter).UnixMilli())
	return &ms
}

// PassphraseFunc supplies a keystore passphrase which is not in the config.
type PassphraseFunc func() (string, error)

// NewSigner builds the configured signer. prompt is only called for keystore
// signers without a configured passphrase.
func (c *Config) NewSigner(ctx context.Context, prompt PassphraseFunc) (hyperliquid.AddressSigner, error) {
	switch c.Signer.Type {
	case SignerLocal:
		s, err := hyperliquid.NewLocalSigner(c.Signer.PrivateKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SignerKeystore:
		pass := c.Signer.Passphrase
		if pass == "" && prompt != nil {
			var err error
			if pass, err = prompt(); err != nil {
				return nil, errors.Wrap(err, "failed to read keystore passphrase")
			}
		}
		s, err := hyperliquid.LoadKeystoreSigner(c.Signer.KeystorePath, pass)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SignerKMS:
		return newKMSSigner(ctx, c.Signer.KMSRegion, c.Signer.KMSKeyID)
	}
	return nil, errors.Wrapf(hyperliquid.ErrConfiguration, "unknown signer type %q", c.Signer.Type)
}
