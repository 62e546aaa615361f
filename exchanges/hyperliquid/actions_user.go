package hyperliquid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// UsdSend transfers USDC between perp accounts.
type UsdSend struct {
	Destination Address `json:"destination"`
	Amount      Amount  `json:"amount"`
	TimeNonce
}

// Kind implements Action.
func (*UsdSend) Kind() ActionKind { return KindUsdSend }

func (a *UsdSend) typedValue(name string) (typedValue, bool) {
	switch name {
	case "destination":
		return accountValue(a.Destination), true
	case "amount":
		return stringValue(a.Amount.String()), true
	}
	return typedValue{}, false
}

// SpotSend transfers a spot token.
type SpotSend struct {
	Destination Address `json:"destination"`
	Token       string  `json:"token"`
	Amount      Amount  `json:"amount"`
	TimeNonce
}

// Kind implements Action.
func (*SpotSend) Kind() ActionKind { return KindSpotSend }

func (a *SpotSend) typedValue(name string) (typedValue, bool) {
	switch name {
	case "destination":
		return accountValue(a.Destination), true
	case "token":
		return stringValue(a.Token), true
	case "amount":
		return stringValue(a.Amount.String()), true
	}
	return typedValue{}, false
}

// Withdraw3 withdraws USDC through the bridge.
type Withdraw3 struct {
	Destination Address `json:"destination"`
	Amount      Amount  `json:"amount"`
	TimeNonce
}

// Kind implements Action.
func (*Withdraw3) Kind() ActionKind { return KindWithdraw3 }

func (a *Withdraw3) typedValue(name string) (typedValue, bool) {
	switch name {
	case "destination":
		return accountValue(a.Destination), true
	case "amount":
		return stringValue(a.Amount.String()), true
	}
	return typedValue{}, false
}

// UsdClassTransfer moves USDC between the spot and perp balances.
type UsdClassTransfer struct {
	Amount Amount `json:"amount"`
	ToPerp bool   `json:"toPerp"`
	UserNonce
}

// Kind implements Action.
func (*UsdClassTransfer) Kind() ActionKind { return KindUsdClassTransfer }

func (a *UsdClassTransfer) typedValue(name string) (typedValue, bool) {
	switch name {
	case "amount":
		return stringValue(a.Amount.String()), true
	case "toPerp":
		return boolValue(a.ToPerp), true
	}
	return typedValue{}, false
}

// SendAsset moves a token between dexes and accounts.
type SendAsset struct {
	Destination    Address `json:"destination"`
	SourceDex      string  `json:"sourceDex"`
	DestinationDex string  `json:"destinationDex"`
	Token          string  `json:"token"`
	Amount         Amount  `json:"amount"`
	FromSubAccount string  `json:"fromSubAccount"`
	UserNonce
}

// Kind implements Action.
func (*SendAsset) Kind() ActionKind { return KindSendAsset }

func (a *SendAsset) typedValue(name string) (typedValue, bool) {
	switch name {
	case "destination":
		return accountValue(a.Destination), true
	case "sourceDex":
		return stringValue(a.SourceDex), true
	case "destinationDex":
		return stringValue(a.DestinationDex), true
	case "token":
		return stringValue(a.Token), true
	case "amount":
		return stringValue(a.Amount.String()), true
	case "fromSubAccount":
		return stringValue(a.FromSubAccount), true
	}
	return typedValue{}, false
}

// ApproveAgent authorises an agent key to sign L1 actions for the account.
type ApproveAgent struct {
	AgentAddress Address `json:"agentAddress"`
	AgentName    string  `json:"agentName"`
	UserNonce
}

// Kind implements Action.
func (*ApproveAgent) Kind() ActionKind { return KindApproveAgent }

func (a *ApproveAgent) typedValue(name string) (typedValue, bool) {
	switch name {
	case "agentAddress":
		return accountValue(a.AgentAddress), true
	case "agentName":
		return stringValue(a.AgentName), true
	}
	return typedValue{}, false
}

// ApproveBuilderFee caps the fee a builder may charge, e.g. "0.001%".
type ApproveBuilderFee struct {
	MaxFeeRate string  `json:"maxFeeRate"`
	Builder    Address `json:"builder"`
	UserNonce
}

// Kind implements Action.
func (*ApproveBuilderFee) Kind() ActionKind { return KindApproveBuilderFee }

func (a *ApproveBuilderFee) typedValue(name string) (typedValue, bool) {
	switch name {
	case "maxFeeRate":
		return stringValue(a.MaxFeeRate), true
	case "builder":
		return accountValue(a.Builder), true
	}
	return typedValue{}, false
}

// TokenDelegate stakes or unstakes to a validator, in wei.
type TokenDelegate struct {
	Validator    Address `json:"validator"`
	Wei          uint64  `json:"wei"`
	IsUndelegate bool    `json:"isUndelegate"`
	UserNonce
}

// Kind implements Action.
func (*TokenDelegate) Kind() ActionKind { return KindTokenDelegate }

func (a *TokenDelegate) typedValue(name string) (typedValue, bool) {
	switch name {
	case "validator":
		return accountValue(a.Validator), true
	case "wei":
		return uintValue(a.Wei), true
	case "isUndelegate":
		return boolValue(a.IsUndelegate), true
	}
	return typedValue{}, false
}

// ConvertToMultiSigUser turns the account into a multi-sig user, or back into
// a normal user when Signers is "null".
type ConvertToMultiSigUser struct {
	Signers string `json:"signers"`
	UserNonce
}

// Kind implements Action.
func (*ConvertToMultiSigUser) Kind() ActionKind { return KindConvertToMultiSigUser }

func (a *ConvertToMultiSigUser) typedValue(name string) (typedValue, bool) {
	if name == "signers" {
		return stringValue(a.Signers), true
	}
	return typedValue{}, false
}

// NewConvertToMultiSigUser builds the signers document from the authorised
// users, lowercased and sorted, and the signature threshold.
func NewConvertToMultiSigUser(authorizedUsers []common.Address, threshold uint32) (*ConvertToMultiSigUser, error) {
	users := make([]string, 0, len(authorizedUsers))
	for _, u := range authorizedUsers {
		users = append(users, strconv.Quote(NewAddress(u).Lower()))
	}
	slices.Sort(users)
	users = slices.Compact(users)
	if threshold == 0 || int(threshold) > len(users) {
		return nil, fmt.Errorf("%w: %w: %d of %d", ErrConfiguration, errInvalidThreshold, threshold, len(users))
	}
	signers := `{"authorizedUsers": [` + strings.Join(users, ", ") + `], "threshold": ` + strconv.FormatUint(uint64(threshold), 10) + `}`
	return &ConvertToMultiSigUser{Signers: signers}, nil
}

// NewConvertToNormalUser reverts a multi-sig user to a single signer account.
func NewConvertToNormalUser() *ConvertToMultiSigUser {
	return &ConvertToMultiSigUser{Signers: "null"}
}

// UserDexAbstraction toggles dex abstraction for a user.
type UserDexAbstraction struct {
	User    Address `json:"user"`
	Enabled bool    `json:"enabled"`
	UserNonce
}

// Kind implements Action.
func (*UserDexAbstraction) Kind() ActionKind { return KindUserDexAbstraction }

func (a *UserDexAbstraction) typedValue(name string) (typedValue, bool) {
	switch name {
	case "user":
		return accountValue(a.User), true
	case "enabled":
		return boolValue(a.Enabled), true
	}
	return typedValue{}, false
}
