package hyperliquid

import (
	"fmt"
	"strconv"
)

// Scheme is the signing scheme an action kind uses.
type Scheme uint8

// Signing schemes.
const (
	SchemeUnknown Scheme = iota
	// SchemeL1 hashes the msgpack encoded action into an Agent connection id.
	SchemeL1
	// SchemeUserSigned hashes the action as EIP-712 typed data.
	SchemeUserSigned
)

func (s Scheme) String() string {
	switch s {
	case SchemeL1:
		return "l1"
	case SchemeUserSigned:
		return "user-signed"
	}
	return "unknown"
}

// ActionKind identifies an action variant.
type ActionKind uint8

// Action kinds.
const (
	KindUnknown ActionKind = iota

	KindOrder
	KindCancel
	KindCancelByCloid
	KindBatchModify
	KindUpdateLeverage
	KindUpdateIsolatedMargin
	KindScheduleCancel
	KindSetReferrer
	KindCreateSubAccount
	KindEvmUserModify
	KindClaimRewards
	KindVaultTransfer
	KindSpotUser
	KindNoop

	KindPerpDeployRegisterAsset
	KindPerpDeploySetOracle
	KindPerpDeploySetFundingMultipliers
	KindPerpDeploySetFundingInterestRates
	KindPerpDeployHaltTrading
	KindPerpDeploySetMarginTableIDs
	KindPerpDeploySetFeeRecipient
	KindPerpDeploySetOpenInterestCaps
	KindPerpDeployInsertMarginTable
	KindPerpDeploySetSubDeployers
	KindPerpDeploySetGrowthModes
	KindSpotDeployRegisterToken2
	KindCSignerJailSelf
	KindCSignerUnjailSelf

	KindUsdSend
	KindSpotSend
	KindWithdraw3
	KindUsdClassTransfer
	KindSendAsset
	KindApproveAgent
	KindApproveBuilderFee
	KindTokenDelegate
	KindConvertToMultiSigUser
	KindUserDexAbstraction

	kindCount
)

type kindDescriptor struct {
	name         string
	actionType   string
	payloadKey   string
	scheme       Scheme
	excludeVault bool
	preimage     string
	newAction    func() Action

	parsed *typedPreimage
}

// l1 describes an L1 kind whose payload nests under its own type name.
func l1(name, actionType string, newAction func() Action) kindDescriptor {
	return kindDescriptor{name: name, actionType: actionType, payloadKey: actionType, scheme: SchemeL1, newAction: newAction}
}

// admin describes an L1 deployer or validator kind. The vault never enters its hash.
func admin(name, actionType, payloadKey string, newAction func() Action) kindDescriptor {
	return kindDescriptor{name: name, actionType: actionType, payloadKey: payloadKey, scheme: SchemeL1, excludeVault: true, newAction: newAction}
}

func userSigned(name, actionType, preimage string, newAction func() Action) kindDescriptor {
	return kindDescriptor{name: name, actionType: actionType, payloadKey: actionType, scheme: SchemeUserSigned, preimage: preimage, newAction: newAction}
}

var kindsByActionType map[string][]ActionKind

var kindTable = [kindCount]kindDescriptor{
	KindOrder:                l1("Order", "order", func() Action { return new(BulkOrder) }),
	KindCancel:               l1("Cancel", "cancel", func() Action { return new(BulkCancel) }),
	KindCancelByCloid:        l1("CancelByCloid", "cancelByCloid", func() Action { return new(BulkCancelByCloid) }),
	KindBatchModify:          l1("BatchModify", "batchModify", func() Action { return new(BatchModify) }),
	KindUpdateLeverage:       l1("UpdateLeverage", "updateLeverage", func() Action { return new(UpdateLeverage) }),
	KindUpdateIsolatedMargin: l1("UpdateIsolatedMargin", "updateIsolatedMargin", func() Action { return new(UpdateIsolatedMargin) }),
	KindScheduleCancel:       l1("ScheduleCancel", "scheduleCancel", func() Action { return new(ScheduleCancel) }),
	KindSetReferrer:          l1("SetReferrer", "setReferrer", func() Action { return new(SetReferrer) }),
	KindCreateSubAccount:     l1("CreateSubAccount", "createSubAccount", func() Action { return new(CreateSubAccount) }),
	KindEvmUserModify:        l1("EvmUserModify", "evmUserModify", func() Action { return new(EvmUserModify) }),
	KindClaimRewards:         l1("ClaimRewards", "claimRewards", func() Action { return new(ClaimRewards) }),
	KindVaultTransfer:        l1("VaultTransfer", "vaultTransfer", func() Action { return new(VaultTransfer) }),
	KindSpotUser:             l1("SpotUser", "spotUser", func() Action { return new(SpotUser) }),
	KindNoop:                 l1("Noop", "noop", func() Action { return new(Noop) }),

	KindPerpDeployRegisterAsset:           admin("PerpDeployRegisterAsset", "perpDeploy", "registerAsset", func() Action { return new(RegisterAsset) }),
	KindPerpDeploySetOracle:               admin("PerpDeploySetOracle", "perpDeploy", "setOracle", func() Action { return new(SetOracle) }),
	KindPerpDeploySetFundingMultipliers:   admin("PerpDeploySetFundingMultipliers", "perpDeploy", "setFundingMultipliers", func() Action { return new(SetFundingMultipliers) }),
	KindPerpDeploySetFundingInterestRates: admin("PerpDeploySetFundingInterestRates", "perpDeploy", "setFundingInterestRates", func() Action { return new(SetFundingInterestRates) }),
	KindPerpDeployHaltTrading:             admin("PerpDeployHaltTrading", "perpDeploy", "haltTrading", func() Action { return new(HaltTrading) }),
	KindPerpDeploySetMarginTableIDs:       admin("PerpDeploySetMarginTableIds", "perpDeploy", "setMarginTableIds", func() Action { return new(SetMarginTableIDs) }),
	KindPerpDeploySetFeeRecipient:         admin("PerpDeploySetFeeRecipient", "perpDeploy", "setFeeRecipient", func() Action { return new(SetFeeRecipient) }),
	KindPerpDeploySetOpenInterestCaps:     admin("PerpDeploySetOpenInterestCaps", "perpDeploy", "setOpenInterestCaps", func() Action { return new(SetOpenInterestCaps) }),
	KindPerpDeployInsertMarginTable:       admin("PerpDeployInsertMarginTable", "perpDeploy", "insertMarginTable", func() Action { return new(InsertMarginTable) }),
	KindPerpDeploySetSubDeployers:         admin("PerpDeploySetSubDeployers", "perpDeploy", "setSubDeployers", func() Action { return new(SetSubDeployers) }),
	KindPerpDeploySetGrowthModes:          admin("PerpDeploySetGrowthModes", "perpDeploy", "setGrowthModes", func() Action { return new(SetGrowthModes) }),
	KindSpotDeployRegisterToken2:          admin("SpotDeployRegisterToken2", "spotDeploy", "registerToken2", func() Action { return new(RegisterToken2) }),
	KindCSignerJailSelf:                   admin("CSignerJailSelf", "CSignerAction", "jailSelf", func() Action { return new(CSignerJailSelf) }),
	KindCSignerUnjailSelf:                 admin("CSignerUnjailSelf", "CSignerAction", "unjailSelf", func() Action { return new(CSignerUnjailSelf) }),

	KindUsdSend: userSigned("UsdSend", "usdSend",
		"HyperliquidTransaction:UsdSend(string hyperliquidChain,string destination,string amount,uint64 time)",
		func() Action { return new(UsdSend) }),
	KindSpotSend: userSigned("SpotSend", "spotSend",
		"HyperliquidTransaction:SpotSend(string hyperliquidChain,string destination,string token,string amount,uint64 time)",
		func() Action { return new(SpotSend) }),
	KindWithdraw3: userSigned("Withdraw3", "withdraw3",
		"HyperliquidTransaction:Withdraw(string hyperliquidChain,string destination,string amount,uint64 time)",
		func() Action { return new(Withdraw3) }),
	KindUsdClassTransfer: userSigned("UsdClassTransfer", "usdClassTransfer",
		"HyperliquidTransaction:UsdClassTransfer(string hyperliquidChain,string amount,bool toPerp,uint64 nonce)",
		func() Action { return new(UsdClassTransfer) }),
	KindSendAsset: userSigned("SendAsset", "sendAsset",
		"HyperliquidTransaction:SendAsset(string hyperliquidChain,string destination,string sourceDex,string destinationDex,string token,string amount,string fromSubAccount,uint64 nonce)",
		func() Action { return new(SendAsset) }),
	KindApproveAgent: userSigned("ApproveAgent", "approveAgent",
		"HyperliquidTransaction:ApproveAgent(string hyperliquidChain,address agentAddress,string agentName,uint64 nonce)",
		func() Action { return new(ApproveAgent) }),
	KindApproveBuilderFee: userSigned("ApproveBuilderFee", "approveBuilderFee",
		"HyperliquidTransaction:ApproveBuilderFee(string hyperliquidChain,string maxFeeRate,address builder,uint64 nonce)",
		func() Action { return new(ApproveBuilderFee) }),
	KindTokenDelegate: userSigned("TokenDelegate", "tokenDelegate",
		"HyperliquidTransaction:TokenDelegate(string hyperliquidChain,address validator,uint64 wei,bool isUndelegate,uint64 nonce)",
		func() Action { return new(TokenDelegate) }),
	KindConvertToMultiSigUser: userSigned("ConvertToMultiSigUser", "convertToMultiSigUser",
		"HyperliquidTransaction:ConvertToMultiSigUser(string hyperliquidChain,string signers,uint64 nonce)",
		func() Action { return new(ConvertToMultiSigUser) }),
	KindUserDexAbstraction: userSigned("UserDexAbstraction", "userDexAbstraction",
		"HyperliquidTransaction:UserDexAbstraction(string hyperliquidChain,address user,bool enabled,uint64 nonce)",
		func() Action { return new(UserDexAbstraction) }),
}

func init() {
	if err := validateKindTable(); err != nil {
		panic(err)
	}
}

// validateKindTable checks every descriptor and binds every typed preimage
// parameter against a zero value of its action, so a broken catalog fails at
// start-up rather than at signing time.
func validateKindTable() error {
	kindsByActionType = make(map[string][]ActionKind)
	for k := KindUnknown + 1; k < kindCount; k++ {
		d := &kindTable[k]
		if d.actionType == "" || d.payloadKey == "" || d.newAction == nil {
			return fmt.Errorf("%w: kind %d has no descriptor", ErrConfiguration, k)
		}
		if got := d.newAction().Kind(); got != k {
			return fmt.Errorf("%w: %s constructor builds %s", ErrConfiguration, d.name, got)
		}
		kindsByActionType[d.actionType] = append(kindsByActionType[d.actionType], k)
		if d.scheme != SchemeUserSigned {
			continue
		}
		p, err := parsePreimage(d.preimage)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		probe := d.newAction()
		probe.bindNonce(0)
		if _, err := structHashFor(p, probe, Mainnet, nil); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		d.parsed = p
	}
	return nil
}

func (k ActionKind) descriptor() *kindDescriptor {
	if k == KindUnknown || k >= kindCount {
		return nil
	}
	return &kindTable[k]
}

// Valid reports whether k names a catalogued action.
func (k ActionKind) Valid() bool {
	return k.descriptor() != nil
}

// ActionType is the "type" tag sent on the wire.
func (k ActionKind) ActionType() string {
	if d := k.descriptor(); d != nil {
		return d.actionType
	}
	return ""
}

// PayloadKey is the key the payload nests under in the wire action object.
func (k ActionKind) PayloadKey() string {
	if d := k.descriptor(); d != nil {
		return d.payloadKey
	}
	return ""
}

// Scheme returns the signing scheme for k.
func (k ActionKind) Scheme() Scheme {
	if d := k.descriptor(); d != nil {
		return d.scheme
	}
	return SchemeUnknown
}

// ExcludeVaultFromHash reports whether the vault address is left out of the
// signing hash. The vault is still sent in the envelope.
func (k ActionKind) ExcludeVaultFromHash() bool {
	if d := k.descriptor(); d != nil {
		return d.excludeVault
	}
	return false
}

// TypePreimage returns the EIP-712 type string for user-signed kinds.
func (k ActionKind) TypePreimage() string {
	if d := k.descriptor(); d != nil {
		return d.preimage
	}
	return ""
}

func (k ActionKind) String() string {
	if d := k.descriptor(); d != nil {
		return d.name
	}
	return "ActionKind(" + strconv.Itoa(int(k)) + ")"
}

// Classify returns the signing scheme for a.
func Classify(a Action) Scheme {
	if a == nil {
		return SchemeUnknown
	}
	return a.Kind().Scheme()
}

// Kinds returns every catalogued kind.
func Kinds() []ActionKind {
	out := make([]ActionKind, 0, kindCount-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
