package cdp

import "math/big"

// Position records the locked collateral and outstanding debit of a single
// account for a single collateral type. Debit is an internal unit converted to
// stablecoin value through the collateral's debit exchange rate.
type Position struct {
	// Collateral is the locked collateral balance, in the collateral token's
	// smallest unit.
	Collateral *big.Int
	// Debit is the outstanding debit balance in internal debit units.
	Debit *big.Int
}

// IsZero reports whether the position holds neither collateral nor debit.
// Zero positions are removed from state.
func (p *Position) IsZero() bool {
	if p == nil {
		return true
	}
	return nz(p.Collateral).Sign() == 0 && nz(p.Debit).Sign() == 0
}

// Aggregate mirrors the per-collateral sums over all positions. It is updated
// in lock-step with every position mutation and never independently.
type Aggregate struct {
	TotalCollateral *big.Int
	TotalDebit      *big.Int
}

// CollateralParams holds the governance-controlled risk configuration for one
// collateral type. Nil fields fall back to the protocol defaults carried by
// the engine.
type CollateralParams struct {
	// StabilityFee is the extra per-block fee rate for this collateral,
	// added on top of the protocol's global stability fee. Ray scaled.
	StabilityFee *big.Int
	// LiquidationRatio is the collateral ratio below which positions become
	// eligible for forced liquidation. Ray scaled.
	LiquidationRatio *big.Int
	// LiquidationPenalty is the extra fraction added to bad debt when
	// computing the liquidation target. Ray scaled.
	LiquidationPenalty *big.Int
	// RequiredCollateralRatio is the minimum ratio enforced on voluntary
	// debt increases. Ray scaled; nil disables the check.
	RequiredCollateralRatio *big.Int
	// MaximumTotalDebitValue caps the stablecoin value of this collateral's
	// aggregate debit. Nil means a zero cap.
	MaximumTotalDebitValue *big.Int
}

// Clone returns a deep copy to avoid callers mutating shared pointers.
func (p *CollateralParams) Clone() *CollateralParams {
	if p == nil {
		return nil
	}
	clone := &CollateralParams{}
	if p.StabilityFee != nil {
		clone.StabilityFee = new(big.Int).Set(p.StabilityFee)
	}
	if p.LiquidationRatio != nil {
		clone.LiquidationRatio = new(big.Int).Set(p.LiquidationRatio)
	}
	if p.LiquidationPenalty != nil {
		clone.LiquidationPenalty = new(big.Int).Set(p.LiquidationPenalty)
	}
	if p.RequiredCollateralRatio != nil {
		clone.RequiredCollateralRatio = new(big.Int).Set(p.RequiredCollateralRatio)
	}
	if p.MaximumTotalDebitValue != nil {
		clone.MaximumTotalDebitValue = new(big.Int).Set(p.MaximumTotalDebitValue)
	}
	return clone
}

// ProtocolParams groups the protocol-wide CDP configuration: the set of
// accepted collaterals, the stable currency they back, and the defaults used
// when a collateral has no per-currency override.
type ProtocolParams struct {
	// CollateralCurrencies lists the accepted collateral token symbols.
	CollateralCurrencies []string
	// StableSymbol is the synthetic stablecoin token symbol.
	StableSymbol string
	// GlobalStabilityFee is the per-block fee applied to every collateral in
	// addition to its own stability fee. Ray scaled.
	GlobalStabilityFee *big.Int
	// DefaultLiquidationRatio applies when a collateral has no override.
	DefaultLiquidationRatio *big.Int
	// DefaultLiquidationPenalty applies when a collateral has no override.
	DefaultLiquidationPenalty *big.Int
	// DefaultDebitExchangeRate seeds the debit exchange rate before any
	// interest has accrued. Ray scaled, conventionally 1.0.
	DefaultDebitExchangeRate *big.Int
	// MinimumDebitValue rejects adjustments that would leave a position with
	// dust debt too small to liquidate economically.
	MinimumDebitValue *big.Int
	// MaxSwapSlippage bounds the price impact accepted when liquidating via
	// the swap engine instead of an auction. Ray scaled; zero disables the
	// swap route entirely.
	MaxSwapSlippage *big.Int
}

// HasCollateral reports whether the symbol is an accepted collateral type.
func (p ProtocolParams) HasCollateral(symbol string) bool {
	for _, id := range p.CollateralCurrencies {
		if id == symbol {
			return true
		}
	}
	return false
}
