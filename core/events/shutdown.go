package events

import (
	"math/big"
	"strconv"
	"strings"

	"halochain/core/types"
	"halochain/crypto"
)

const (
	// TypeShutdownInitiated is emitted exactly once when the emergency
	// shutdown flips the protocol into settlement mode.
	TypeShutdownInitiated = "shutdown.initiated"
	// TypeShutdownRefundOpened is emitted exactly once when the final
	// redemption stage opens.
	TypeShutdownRefundOpened = "shutdown.refund_opened"
	// TypeShutdownRefunded is emitted per successful collateral refund.
	TypeShutdownRefunded = "shutdown.refunded"
)

// ShutdownInitiated marks the irreversible protocol halt.
type ShutdownInitiated struct {
	BlockHeight uint64
}

func (ShutdownInitiated) EventType() string { return TypeShutdownInitiated }

func (e ShutdownInitiated) Event() *types.Event {
	return &types.Event{
		Type: TypeShutdownInitiated,
		Attributes: map[string]string{
			"blockHeight": strconv.FormatUint(e.BlockHeight, 10),
		},
	}
}

// ShutdownRefundOpened marks the opening of the final redemption stage.
type ShutdownRefundOpened struct {
	BlockHeight uint64
}

func (ShutdownRefundOpened) EventType() string { return TypeShutdownRefundOpened }

func (e ShutdownRefundOpened) Event() *types.Event {
	return &types.Event{
		Type: TypeShutdownRefundOpened,
		Attributes: map[string]string{
			"blockHeight": strconv.FormatUint(e.BlockHeight, 10),
		},
	}
}

// RefundedCollateral is one leg of a collateral basket refund.
type RefundedCollateral struct {
	Collateral string
	Amount     *big.Int
}

// ShutdownRefunded reports a stablecoin burn exchanged for a pro-rata basket
// of remaining collateral.
type ShutdownRefunded struct {
	Account      crypto.Address
	StableAmount *big.Int
	Refunded     []RefundedCollateral
}

func (ShutdownRefunded) EventType() string { return TypeShutdownRefunded }

func (e ShutdownRefunded) Event() *types.Event {
	legs := make([]string, 0, len(e.Refunded))
	for _, leg := range e.Refunded {
		legs = append(legs, leg.Collateral+":"+bigString(leg.Amount))
	}
	return &types.Event{
		Type: TypeShutdownRefunded,
		Attributes: map[string]string{
			"account":      e.Account.String(),
			"stableAmount": bigString(e.StableAmount),
			"refunded":     strings.Join(legs, ","),
		},
	}
}
