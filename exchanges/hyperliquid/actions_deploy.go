package hyperliquid

import (
	"cmp"
	"strings"

	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// RegisterAssetRequest describes a new perp listing.
type RegisterAssetRequest struct {
	Coin          string `json:"coin"`
	SzDecimals    uint32 `json:"szDecimals"`
	OraclePx      string `json:"oraclePx"`
	MarginTableID uint32 `json:"marginTableId"`
	OnlyIsolated  bool   `json:"onlyIsolated"`
}

// PerpDexSchemaInput is supplied when the first asset of a new dex is registered.
type PerpDexSchemaInput struct {
	FullName        string   `json:"fullName"`
	CollateralToken uint32   `json:"collateralToken"`
	OracleUpdater   *Address `json:"oracleUpdater"`
}

// RegisterAsset registers a perp asset on a builder deployed dex. Absent
// optional fields are sent as null.
type RegisterAsset struct {
	l1Nonce      `json:"-"`
	MaxGas       *uint64              `json:"maxGas"`
	AssetRequest RegisterAssetRequest `json:"assetRequest"`
	Dex          string               `json:"dex"`
	Schema       *PerpDexSchemaInput  `json:"schema"`
}

// Kind implements Action.
func (*RegisterAsset) Kind() ActionKind { return KindPerpDeployRegisterAsset }

// SetOracle publishes oracle, mark and external prices for a dex.
type SetOracle struct {
	l1Nonce         `json:"-"`
	Dex             string           `json:"dex"`
	OraclePxs       []Pair[string]   `json:"oraclePxs"`
	MarkPxs         [][]Pair[string] `json:"markPxs"`
	ExternalPerpPxs []Pair[string]   `json:"externalPerpPxs"`
}

// Kind implements Action.
func (*SetOracle) Kind() ActionKind { return KindPerpDeploySetOracle }

// NewSetOracle builds a SetOracle with every price list sorted by coin.
func NewSetOracle(dex string, oraclePxs map[string]string, markPxs []map[string]string, externalPerpPxs map[string]string) *SetOracle {
	marks := make([][]Pair[string], 0, len(markPxs))
	for _, m := range markPxs {
		marks = append(marks, pairsFromMap(m, strings.Compare))
	}
	return &SetOracle{
		Dex:             dex,
		OraclePxs:       pairsFromMap(oraclePxs, strings.Compare),
		MarkPxs:         marks,
		ExternalPerpPxs: pairsFromMap(externalPerpPxs, strings.Compare),
	}
}

// pairList is the shared body of the perpDeploy actions whose payload is a
// bare list of tuples.
type pairList[V any] struct {
	l1Nonce `json:"-"`
	Entries []Pair[V]
}

// MarshalJSON implements json.Marshaler.
func (l pairList[V]) MarshalJSON() ([]byte, error) {
	if l.Entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *pairList[V]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &l.Entries)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (l pairList[V]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(l.Entries)); err != nil {
		return err
	}
	for i := range l.Entries {
		if err := l.Entries[i].EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

// SetFundingMultipliers sets per coin funding multipliers.
type SetFundingMultipliers struct {
	pairList[string]
}

// NewSetFundingMultipliers sorts multipliers by coin.
func NewSetFundingMultipliers(multipliers map[string]string) *SetFundingMultipliers {
	return &SetFundingMultipliers{pairList[string]{Entries: pairsFromMap(multipliers, strings.Compare)}}
}

// Kind implements Action.
func (*SetFundingMultipliers) Kind() ActionKind { return KindPerpDeploySetFundingMultipliers }

// SetFundingInterestRates sets per coin funding interest rates.
type SetFundingInterestRates struct {
	pairList[string]
}

// NewSetFundingInterestRates sorts rates by coin.
func NewSetFundingInterestRates(rates map[string]string) *SetFundingInterestRates {
	return &SetFundingInterestRates{pairList[string]{Entries: pairsFromMap(rates, strings.Compare)}}
}

// Kind implements Action.
func (*SetFundingInterestRates) Kind() ActionKind { return KindPerpDeploySetFundingInterestRates }

// SetMarginTableIDs assigns margin tables to coins.
type SetMarginTableIDs struct {
	pairList[int64]
}

// NewSetMarginTableIDs sorts assignments by coin.
func NewSetMarginTableIDs(ids map[string]int64) *SetMarginTableIDs {
	return &SetMarginTableIDs{pairList[int64]{Entries: pairsFromMap(ids, cmp.Compare[int64])}}
}

// Kind implements Action.
func (*SetMarginTableIDs) Kind() ActionKind { return KindPerpDeploySetMarginTableIDs }

// SetOpenInterestCaps caps open interest per coin, in USD.
type SetOpenInterestCaps struct {
	pairList[uint64]
}

// NewSetOpenInterestCaps builds "dex:SYMBOL" names and sorts the caps.
func NewSetOpenInterestCaps(dex string, caps map[string]uint64) *SetOpenInterestCaps {
	named := make(map[string]uint64, len(caps))
	for symbol, c := range caps {
		named[dex+":"+symbol] = c
	}
	return &SetOpenInterestCaps{pairList[uint64]{Entries: pairsFromMap(named, cmp.Compare[uint64])}}
}

// Kind implements Action.
func (*SetOpenInterestCaps) Kind() ActionKind { return KindPerpDeploySetOpenInterestCaps }

// SetGrowthModes toggles growth mode per coin.
type SetGrowthModes struct {
	pairList[bool]
}

// NewSetGrowthModes sorts modes by coin.
func NewSetGrowthModes(modes map[string]bool) *SetGrowthModes {
	return &SetGrowthModes{pairList[bool]{Entries: pairsFromMap(modes, compareBool)}}
}

// Kind implements Action.
func (*SetGrowthModes) Kind() ActionKind { return KindPerpDeploySetGrowthModes }

// HaltTrading halts or resumes a coin.
type HaltTrading struct {
	l1Nonce  `json:"-"`
	Coin     string `json:"coin"`
	IsHalted bool   `json:"isHalted"`
}

// Kind implements Action.
func (*HaltTrading) Kind() ActionKind { return KindPerpDeployHaltTrading }

// SetFeeRecipient sets the dex fee recipient.
type SetFeeRecipient struct {
	l1Nonce      `json:"-"`
	Dex          string  `json:"dex"`
	FeeRecipient Address `json:"feeRecipient"`
}

// Kind implements Action.
func (*SetFeeRecipient) Kind() ActionKind { return KindPerpDeploySetFeeRecipient }

// MarginTier is one leverage band of a margin table.
type MarginTier struct {
	LowerBound  uint64 `json:"lowerBound"`
	MaxLeverage uint32 `json:"maxLeverage"`
}

// MarginTable is a named set of tiers.
type MarginTable struct {
	Description string       `json:"description"`
	MarginTiers []MarginTier `json:"marginTiers"`
}

// InsertMarginTable adds a margin table to a dex.
type InsertMarginTable struct {
	l1Nonce     `json:"-"`
	Dex         string      `json:"dex"`
	MarginTable MarginTable `json:"marginTable"`
}

// Kind implements Action.
func (*InsertMarginTable) Kind() ActionKind { return KindPerpDeployInsertMarginTable }

// SubDeployer grants or revokes a deployer permission.
type SubDeployer struct {
	Variant string  `json:"variant"`
	User    Address `json:"user"`
	Allowed bool    `json:"allowed"`
}

// SetSubDeployers updates sub-deployer permissions.
type SetSubDeployers struct {
	l1Nonce      `json:"-"`
	Dex          string        `json:"dex"`
	SubDeployers []SubDeployer `json:"subDeployers"`
}

// Kind implements Action.
func (*SetSubDeployers) Kind() ActionKind { return KindPerpDeploySetSubDeployers }

// TokenSpec describes a spot token.
type TokenSpec struct {
	Name        string `json:"name"`
	SzDecimals  uint32 `json:"szDecimals"`
	WeiDecimals uint32 `json:"weiDecimals"`
}

// RegisterToken2 registers a spot token.
type RegisterToken2 struct {
	l1Nonce  `json:"-"`
	Spec     TokenSpec `json:"spec"`
	MaxGas   uint64    `json:"maxGas"`
	FullName *string   `json:"fullName,omitempty"`
}

// Kind implements Action.
func (*RegisterToken2) Kind() ActionKind { return KindSpotDeployRegisterToken2 }

// nullPayload is the body of validator actions whose payload is null.
type nullPayload struct {
	l1Nonce `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (nullPayload) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (*nullPayload) UnmarshalJSON([]byte) error {
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (nullPayload) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeNil()
}

// CSignerJailSelf jails the calling validator signer.
type CSignerJailSelf struct {
	nullPayload
}

// Kind implements Action.
func (*CSignerJailSelf) Kind() ActionKind { return KindCSignerJailSelf }

// CSignerUnjailSelf unjails the calling validator signer.
type CSignerUnjailSelf struct {
	nullPayload
}

// Kind implements Action.
func (*CSignerUnjailSelf) Kind() ActionKind { return KindCSignerUnjailSelf }
