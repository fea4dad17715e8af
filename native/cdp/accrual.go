package cdp

import (
	"math/big"

	"halochain/observability/metrics"
)

// OnFinalize runs per-block stability fee accrual for every accepted
// collateral. It is called once at the end of each block and never fails the
// block: a collateral whose accrual cannot complete is skipped for this block
// and retried at the next height, with the skip logged and counted.
func (e *Engine) OnFinalize(blockHeight uint64) {
	if e == nil || e.state == nil {
		return
	}
	if e.isShutdown() {
		return
	}
	for _, symbol := range e.params.CollateralCurrencies {
		if err := e.accrueStabilityFee(symbol); err != nil {
			e.logger.Warn("cdp accrual skipped",
				"collateral", symbol,
				"height", blockHeight,
				"error", err,
			)
			metrics.CDP().ObserveAccrualSkipped(symbol)
		}
	}
}

// accrueStabilityFee compounds one block of stability fee into the
// collateral's debit exchange rate. The minted surplus is handed to the
// treasury first; the rate only advances when the deposit succeeds, so the
// recorded rate never outruns the minted stablecoin.
func (e *Engine) accrueStabilityFee(symbol string) error {
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return err
	}
	fee, err := e.StabilityFee(symbol)
	if err != nil {
		return err
	}
	if fee.Sign() == 0 {
		return nil
	}
	agg, err := e.loadAggregate(symbol)
	if err != nil {
		return err
	}
	if agg.TotalDebit.Sign() == 0 {
		return nil
	}

	increment := rayMul(rate, fee)
	issued := rayMul(increment, agg.TotalDebit)
	if issued.Sign() == 0 {
		return nil
	}
	if err := e.treasury.OnSystemSurplus(issued); err != nil {
		return err
	}
	newRate := new(big.Int).Add(rate, increment)
	if err := e.state.CDPPutExchangeRate(symbol, newRate); err != nil {
		return err
	}
	metrics.CDP().ObserveAccrual(symbol)
	return nil
}
