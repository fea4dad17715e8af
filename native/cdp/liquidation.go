package cdp

import (
	"math/big"

	"halochain/core/events"
	"halochain/crypto"
	nativecommon "halochain/native/common"
	"halochain/observability/metrics"
)

// Liquidation routes recorded on the emitted event.
const (
	RouteDEX     = "dex"
	RouteAuction = "auction"
)

// IsCDPUnsafe reports whether the position's collateral ratio has fallen
// below the collateral's liquidation ratio. A position with no debt is always
// safe. An unavailable price feed reads as safe: liquidation never triggers
// off missing data.
func (e *Engine) IsCDPUnsafe(symbol string, owner crypto.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	if !e.params.HasCollateral(symbol) {
		return false, ErrInvalidCollateral
	}
	pos, err := e.loadPosition(symbol, owner)
	if err != nil {
		return false, err
	}
	if pos.Debit.Sign() == 0 {
		return false, nil
	}
	price, ok := e.prices.GetRelativePrice(symbol, e.params.StableSymbol)
	if !ok {
		return false, nil
	}
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return false, err
	}
	liquidationRatio, err := e.LiquidationRatio(symbol)
	if err != nil {
		return false, err
	}
	ratio := collateralRatio(price, rate, pos.Collateral, pos.Debit)
	return ratio.Cmp(liquidationRatio) < 0, nil
}

// LiquidateUnsafeCDP seizes an undercollateralized position. The whole
// position is confiscated, the outstanding debt is booked as bad debt with
// the treasury, and the seized collateral is sold to recover the bad debt
// plus the liquidation penalty. Recovery goes through the swap engine when a
// quote within the slippage limit covers the target, otherwise the collateral
// is put up for auction.
func (e *Engine) LiquidateUnsafeCDP(symbol string, owner crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.isShutdown() {
		return ErrAlreadyShutdown
	}
	if !e.params.HasCollateral(symbol) {
		return ErrInvalidCollateral
	}

	pos, err := e.loadPosition(symbol, owner)
	if err != nil {
		return err
	}
	if pos.Debit.Sign() == 0 {
		return ErrCDPStillSafe
	}
	price, ok := e.prices.GetRelativePrice(symbol, e.params.StableSymbol)
	if !ok {
		return ErrInvalidFeedPrice
	}
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return err
	}
	liquidationRatio, err := e.LiquidationRatio(symbol)
	if err != nil {
		return err
	}
	if collateralRatio(price, rate, pos.Collateral, pos.Debit).Cmp(liquidationRatio) >= 0 {
		return ErrCDPStillSafe
	}

	seized := new(big.Int).Set(pos.Collateral)
	badDebtValue := rayMul(rate, pos.Debit)
	penalty, err := e.LiquidationPenalty(symbol)
	if err != nil {
		return err
	}
	targetValue := new(big.Int).Add(badDebtValue, rayMul(badDebtValue, penalty))

	if err := e.confiscateCollateralAndDebit(owner, symbol, pos.Collateral, pos.Debit); err != nil {
		return err
	}
	if err := e.treasury.OnSystemDebit(badDebtValue); err != nil {
		return err
	}
	if err := e.treasury.TransferCollateralFrom(symbol, e.vaultAddress, seized); err != nil {
		return err
	}

	route := RouteAuction
	if supplyNeeded := e.dexSupplyWithinLimits(symbol, targetValue, seized); supplyNeeded != nil {
		if err := e.treasury.SwapCollateralToStable(symbol, supplyNeeded, targetValue); err != nil {
			return err
		}
		if remainder := new(big.Int).Sub(seized, supplyNeeded); remainder.Sign() > 0 {
			if err := e.treasury.TransferCollateralTo(symbol, owner, remainder); err != nil {
				return err
			}
		}
		route = RouteDEX
	} else {
		if err := e.auctions.NewCollateralAuction(owner, symbol, seized, targetValue, badDebtValue); err != nil {
			return err
		}
	}

	e.emit(events.CDPLiquidated{
		Owner:            owner,
		Collateral:       symbol,
		SeizedCollateral: seized,
		BadDebtValue:     badDebtValue,
		TargetValue:      targetValue,
		Route:            route,
	})
	metrics.CDP().ObserveLiquidation(symbol, route)
	return nil
}

// dexSupplyWithinLimits returns the collateral amount that must be sold on
// the swap engine to recover targetValue, or nil when the swap route is not
// viable: no DEX wired, no quote, quote beyond the seized amount, or price
// impact over the configured slippage limit.
func (e *Engine) dexSupplyWithinLimits(symbol string, targetValue, seized *big.Int) *big.Int {
	if e.dex == nil || targetValue.Sign() == 0 {
		return nil
	}
	supplyNeeded := e.dex.SupplyAmountNeeded(symbol, e.params.StableSymbol, targetValue)
	if supplyNeeded == nil || supplyNeeded.Sign() == 0 || supplyNeeded.Cmp(seized) > 0 {
		return nil
	}
	limit := e.params.MaxSwapSlippage
	if limit == nil {
		return nil
	}
	slippage, ok := e.dex.ExchangeSlippage(symbol, e.params.StableSymbol, supplyNeeded)
	if !ok || slippage.Cmp(limit) > 0 {
		return nil
	}
	return supplyNeeded
}

// SettleCDPHasDebit settles a position after emergency shutdown: collateral
// worth the outstanding debt, capped at the position's collateral balance, is
// confiscated into the treasury and the debt is cleared. The position's
// remaining collateral stays in place for the refund stage.
func (e *Engine) SettleCDPHasDebit(symbol string, owner crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.params.HasCollateral(symbol) {
		return ErrInvalidCollateral
	}
	if !e.isShutdown() {
		return ErrMustAfterShutdown
	}
	pos, err := e.loadPosition(symbol, owner)
	if err != nil {
		return err
	}
	if pos.Debit.Sign() == 0 {
		return ErrAlreadyNoDebit
	}
	// Inverse price: collateral units per stablecoin unit, from the frozen
	// feed snapshot.
	inversePrice, ok := e.prices.GetRelativePrice(e.params.StableSymbol, symbol)
	if !ok {
		return ErrInvalidFeedPrice
	}
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return err
	}
	badDebtValue := rayMul(rate, pos.Debit)
	confiscated := bigMin(rayMul(inversePrice, badDebtValue), pos.Collateral)

	if err := e.confiscateCollateralAndDebit(owner, symbol, confiscated, pos.Debit); err != nil {
		return err
	}
	if err := e.treasury.OnSystemDebit(badDebtValue); err != nil {
		return err
	}
	if confiscated.Sign() > 0 {
		if err := e.treasury.TransferCollateralFrom(symbol, e.vaultAddress, confiscated); err != nil {
			return err
		}
	}

	e.emit(events.CDPSettled{
		Owner:                 owner,
		Collateral:            symbol,
		ConfiscatedCollateral: confiscated,
		SettledDebitValue:     badDebtValue,
	})
	metrics.CDP().ObserveSettlement(symbol)
	return nil
}
