package events

import (
	"math/big"
	"strings"

	"halochain/core/types"
	"halochain/crypto"
)

const (
	// TypeCDPPositionUpdated is emitted whenever a position adjustment commits.
	TypeCDPPositionUpdated = "cdp.position_updated"
	// TypeCDPPositionTransferred is emitted when a whole position changes owner.
	TypeCDPPositionTransferred = "cdp.position_transferred"
	// TypeCDPConfiscated is emitted when collateral and debit are seized to the
	// treasury outside of a voluntary adjustment.
	TypeCDPConfiscated = "cdp.confiscated"
	// TypeCDPLiquidated is emitted when an unsafe position has been closed and
	// handed to the recovery mechanism.
	TypeCDPLiquidated = "cdp.liquidated"
	// TypeCDPSettled is emitted when a position is settled after shutdown.
	TypeCDPSettled = "cdp.settled"
	// TypeCDPParamsUpdated is emitted for every collateral parameter change.
	TypeCDPParamsUpdated = "cdp.params_updated"
)

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// CDPPositionUpdated reports the realized signed deltas of a successful
// position adjustment.
type CDPPositionUpdated struct {
	Owner                crypto.Address
	Collateral           string
	CollateralAdjustment *big.Int
	DebitAdjustment      *big.Int
}

func (CDPPositionUpdated) EventType() string { return TypeCDPPositionUpdated }

func (e CDPPositionUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeCDPPositionUpdated,
		Attributes: map[string]string{
			"owner":                e.Owner.String(),
			"collateral":           e.Collateral,
			"collateralAdjustment": bigString(e.CollateralAdjustment),
			"debitAdjustment":      bigString(e.DebitAdjustment),
		},
	}
}

// CDPPositionTransferred reports a whole-position ownership move.
type CDPPositionTransferred struct {
	From       crypto.Address
	To         crypto.Address
	Collateral string
}

func (CDPPositionTransferred) EventType() string { return TypeCDPPositionTransferred }

func (e CDPPositionTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeCDPPositionTransferred,
		Attributes: map[string]string{
			"from":       e.From.String(),
			"to":         e.To.String(),
			"collateral": e.Collateral,
		},
	}
}

// CDPConfiscated reports collateral and debit seized to the treasury.
type CDPConfiscated struct {
	Owner            crypto.Address
	Collateral       string
	CollateralAmount *big.Int
	DebitAmount      *big.Int
}

func (CDPConfiscated) EventType() string { return TypeCDPConfiscated }

func (e CDPConfiscated) Event() *types.Event {
	return &types.Event{
		Type: TypeCDPConfiscated,
		Attributes: map[string]string{
			"owner":            e.Owner.String(),
			"collateral":       e.Collateral,
			"collateralAmount": bigString(e.CollateralAmount),
			"debitAmount":      bigString(e.DebitAmount),
		},
	}
}

// CDPLiquidated reports a closed unsafe position together with the recovery
// route that received the seized collateral.
type CDPLiquidated struct {
	Owner            crypto.Address
	Collateral       string
	SeizedCollateral *big.Int
	BadDebtValue     *big.Int
	TargetValue      *big.Int
	Route            string
}

func (CDPLiquidated) EventType() string { return TypeCDPLiquidated }

func (e CDPLiquidated) Event() *types.Event {
	route := strings.TrimSpace(e.Route)
	if route == "" {
		route = "auction"
	}
	return &types.Event{
		Type: TypeCDPLiquidated,
		Attributes: map[string]string{
			"owner":            e.Owner.String(),
			"collateral":       e.Collateral,
			"seizedCollateral": bigString(e.SeizedCollateral),
			"badDebtValue":     bigString(e.BadDebtValue),
			"targetValue":      bigString(e.TargetValue),
			"route":            route,
		},
	}
}

// CDPSettled reports a position settled during the shutdown procedure.
type CDPSettled struct {
	Owner                 crypto.Address
	Collateral            string
	ConfiscatedCollateral *big.Int
	SettledDebitValue     *big.Int
}

func (CDPSettled) EventType() string { return TypeCDPSettled }

func (e CDPSettled) Event() *types.Event {
	return &types.Event{
		Type: TypeCDPSettled,
		Attributes: map[string]string{
			"owner":                 e.Owner.String(),
			"collateral":            e.Collateral,
			"confiscatedCollateral": bigString(e.ConfiscatedCollateral),
			"settledDebitValue":     bigString(e.SettledDebitValue),
		},
	}
}

// CDPParamsUpdated reports a single governance-controlled parameter change.
type CDPParamsUpdated struct {
	Collateral string
	Field      string
	Value      string
}

func (CDPParamsUpdated) EventType() string { return TypeCDPParamsUpdated }

func (e CDPParamsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeCDPParamsUpdated,
		Attributes: map[string]string{
			"collateral": e.Collateral,
			"field":      e.Field,
			"value":      e.Value,
		},
	}
}
