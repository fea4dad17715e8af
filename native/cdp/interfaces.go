package cdp

import (
	"math/big"

	"halochain/crypto"
)

// ledgerState is the persistence surface the engine requires. The production
// implementation is core/state.Manager; tests supply in-memory fakes.
//
// Getters return nil (without error) when the record does not exist.
type ledgerState interface {
	CDPGetPosition(symbol string, addr crypto.Address) (*Position, error)
	CDPPutPosition(symbol string, addr crypto.Address, pos *Position) error
	CDPDeletePosition(symbol string, addr crypto.Address) error
	CDPGetAggregate(symbol string) (*Aggregate, error)
	CDPPutAggregate(symbol string, agg *Aggregate) error
	CDPGetCollateralParams(symbol string) (*CollateralParams, error)
	CDPPutCollateralParams(symbol string, params *CollateralParams) error
	CDPGetExchangeRate(symbol string) (*big.Int, error)
	CDPPutExchangeRate(symbol string, rate *big.Int) error
}

// PriceSource supplies relative prices between currencies. Prices are ray
// scaled: GetRelativePrice(base, quote) is the amount of quote one unit of
// base is worth. The source is expected to serve a frozen snapshot after its
// LockPrice has been invoked by the shutdown coordinator.
type PriceSource interface {
	GetRelativePrice(base, quote string) (*big.Int, bool)
}

// AuctionManager receives seized collateral when liquidation cannot be
// cleared through the swap engine. The auction lifecycle itself is external
// to this module.
type AuctionManager interface {
	// NewCollateralAuction starts recovery of target stablecoin value from
	// the seized collateral; refundRecipient receives any auction remainder.
	NewCollateralAuction(refundRecipient crypto.Address, collateral string, amount, target, badDebt *big.Int) error
}

// Treasury is the CDP treasury collaborator: it issues and retires the
// backed stablecoin, books protocol surplus and bad debt, and escrows
// confiscated collateral.
type Treasury interface {
	// DepositBackedDebit mints stablecoin to the account when debt is drawn.
	DepositBackedDebit(to crypto.Address, amount *big.Int) error
	// WithdrawBackedDebit burns stablecoin from the account when debt is
	// repaid or refunded.
	WithdrawBackedDebit(from crypto.Address, amount *big.Int) error
	// OnSystemSurplus books accrued stability fees as protocol surplus.
	OnSystemSurplus(amount *big.Int) error
	// OnSystemDebit books the stablecoin value of seized debt as bad debt
	// pending recovery.
	OnSystemDebit(amount *big.Int) error
	// TransferCollateralFrom pulls confiscated collateral into the treasury.
	TransferCollateralFrom(collateral string, from crypto.Address, amount *big.Int) error
	// TransferCollateralTo pays treasury-held collateral out.
	TransferCollateralTo(collateral string, to crypto.Address, amount *big.Int) error
	// SwapCollateralToStable sells treasury-held collateral on the swap
	// engine for at least minTarget stablecoin.
	SwapCollateralToStable(collateral string, supplyAmount, minTarget *big.Int) error
}

// DEX quotes the swap engine used as the fast liquidation route.
type DEX interface {
	// SupplyAmountNeeded returns how much supply currency must be sold to
	// obtain targetAmount of the target currency; zero when unquotable.
	SupplyAmountNeeded(supply, target string, targetAmount *big.Int) *big.Int
	// TargetAmount returns how much target currency selling supplyAmount
	// yields.
	TargetAmount(supply, target string, supplyAmount *big.Int) *big.Int
	// ExchangeSlippage returns the ray-scaled price impact of selling
	// supplyAmount; ok is false when the pair has no liquidity.
	ExchangeSlippage(supply, target string, supplyAmount *big.Int) (*big.Int, bool)
}

// Currency is the token balance ledger collaborator. The production
// implementation is the core/state token ledger.
type Currency interface {
	Transfer(symbol string, from, to crypto.Address, amount *big.Int) error
	// EnsureCanWithdraw verifies the account holds at least amount of the
	// token without mutating anything.
	EnsureCanWithdraw(symbol string, from crypto.Address, amount *big.Int) error
}

// ShutdownView reports whether the protocol has been emergency-shutdown.
type ShutdownView interface {
	IsShutdown() bool
}
