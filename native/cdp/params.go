package cdp

import (
	"math/big"

	"halochain/core/events"
	"halochain/crypto"
)

// CollateralParamUpdates carries an authority-submitted partial update of a
// collateral's risk parameters. A nil field leaves the stored value unchanged.
type CollateralParamUpdates struct {
	StabilityFee            *big.Int
	LiquidationRatio        *big.Int
	LiquidationPenalty      *big.Int
	RequiredCollateralRatio *big.Int
	MaximumTotalDebitValue  *big.Int
}

func (e *Engine) collateralParams(symbol string) (*CollateralParams, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.CDPGetCollateralParams(symbol)
}

// DebitExchangeRate returns the collateral's debit exchange rate: the stored
// accrued rate when accrual has run, otherwise the configured default,
// otherwise one ray.
func (e *Engine) DebitExchangeRate(symbol string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	rate, err := e.state.CDPGetExchangeRate(symbol)
	if err != nil {
		return nil, err
	}
	if rate != nil && rate.Sign() > 0 {
		return rate, nil
	}
	if e.params.DefaultDebitExchangeRate != nil && e.params.DefaultDebitExchangeRate.Sign() > 0 {
		return new(big.Int).Set(e.params.DefaultDebitExchangeRate), nil
	}
	return Ray(), nil
}

// StabilityFee returns the per-block fee rate for the collateral: the sum of
// the global fee and the collateral's own fee.
func (e *Engine) StabilityFee(symbol string) (*big.Int, error) {
	params, err := e.collateralParams(symbol)
	if err != nil {
		return nil, err
	}
	fee := nz(e.params.GlobalStabilityFee)
	if params != nil && params.StabilityFee != nil {
		fee = new(big.Int).Add(fee, params.StabilityFee)
	}
	return fee, nil
}

// LiquidationRatio returns the ratio below which the collateral's positions
// become liquidatable.
func (e *Engine) LiquidationRatio(symbol string) (*big.Int, error) {
	params, err := e.collateralParams(symbol)
	if err != nil {
		return nil, err
	}
	if params != nil && params.LiquidationRatio != nil {
		return new(big.Int).Set(params.LiquidationRatio), nil
	}
	return nz(e.params.DefaultLiquidationRatio), nil
}

// LiquidationPenalty returns the surcharge rate applied to bad debt when a
// position is liquidated.
func (e *Engine) LiquidationPenalty(symbol string) (*big.Int, error) {
	params, err := e.collateralParams(symbol)
	if err != nil {
		return nil, err
	}
	if params != nil && params.LiquidationPenalty != nil {
		return new(big.Int).Set(params.LiquidationPenalty), nil
	}
	return nz(e.params.DefaultLiquidationPenalty), nil
}

// RequiredCollateralRatio returns the ratio demanded when a position takes on
// new debt, or nil when the collateral does not impose one.
func (e *Engine) RequiredCollateralRatio(symbol string) (*big.Int, error) {
	params, err := e.collateralParams(symbol)
	if err != nil {
		return nil, err
	}
	if params != nil && params.RequiredCollateralRatio != nil {
		return new(big.Int).Set(params.RequiredCollateralRatio), nil
	}
	return nil, nil
}

// MaximumTotalDebitValue returns the collateral's debt ceiling denominated in
// stablecoin value. An unset ceiling reads as zero, which blocks new debt.
func (e *Engine) MaximumTotalDebitValue(symbol string) (*big.Int, error) {
	params, err := e.collateralParams(symbol)
	if err != nil {
		return nil, err
	}
	if params != nil && params.MaximumTotalDebitValue != nil {
		return new(big.Int).Set(params.MaximumTotalDebitValue), nil
	}
	return big.NewInt(0), nil
}

// SetCollateralParams applies a partial risk-parameter update submitted by the
// protocol authority. One event is emitted per changed field so downstream
// consumers can track individual knobs.
func (e *Engine) SetCollateralParams(authority crypto.Address, symbol string, updates CollateralParamUpdates) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if authority.String() != e.updateAuthority.String() {
		return ErrUpdateAuthority
	}
	if !e.params.HasCollateral(symbol) {
		return ErrInvalidCollateral
	}
	stored, err := e.collateralParams(symbol)
	if err != nil {
		return err
	}
	if stored == nil {
		stored = &CollateralParams{}
	} else {
		stored = stored.Clone()
	}

	type fieldUpdate struct {
		name  string
		value *big.Int
		slot  **big.Int
	}
	changed := make([]fieldUpdate, 0, 5)
	for _, f := range []fieldUpdate{
		{"stability_fee", updates.StabilityFee, &stored.StabilityFee},
		{"liquidation_ratio", updates.LiquidationRatio, &stored.LiquidationRatio},
		{"liquidation_penalty", updates.LiquidationPenalty, &stored.LiquidationPenalty},
		{"required_collateral_ratio", updates.RequiredCollateralRatio, &stored.RequiredCollateralRatio},
		{"maximum_total_debit_value", updates.MaximumTotalDebitValue, &stored.MaximumTotalDebitValue},
	} {
		if f.value == nil {
			continue
		}
		if f.value.Sign() < 0 {
			return ErrAmountConvertFailed
		}
		*f.slot = new(big.Int).Set(f.value)
		changed = append(changed, f)
	}
	if len(changed) == 0 {
		return nil
	}
	if err := e.state.CDPPutCollateralParams(symbol, stored); err != nil {
		return err
	}
	for _, f := range changed {
		e.emit(events.CDPParamsUpdated{Collateral: symbol, Field: f.name, Value: f.value.String()})
	}
	return nil
}

// SeedCollateralParams writes the collateral's initial risk parameters during
// genesis. No authority check and no events; the chain has no observers yet.
func (e *Engine) SeedCollateralParams(symbol string, params CollateralParams) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.params.HasCollateral(symbol) {
		return ErrInvalidCollateral
	}
	return e.state.CDPPutCollateralParams(symbol, params.Clone())
}
