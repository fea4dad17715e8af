package cdp

import (
	"math/big"

	"halochain/core/events"
	"halochain/crypto"
)

// loadPosition returns the persisted position for the account under the
// collateral symbol, or a zero position when none exists. The returned value
// is a copy; callers mutate it freely.
func (e *Engine) loadPosition(symbol string, addr crypto.Address) (*Position, error) {
	pos, err := e.state.CDPGetPosition(symbol, addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return &Position{Collateral: big.NewInt(0), Debit: big.NewInt(0)}, nil
	}
	return &Position{Collateral: nz(pos.Collateral), Debit: nz(pos.Debit)}, nil
}

// loadAggregate returns the collateral-wide totals, or zero totals when the
// collateral has no recorded positions yet.
func (e *Engine) loadAggregate(symbol string) (*Aggregate, error) {
	agg, err := e.state.CDPGetAggregate(symbol)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return &Aggregate{TotalCollateral: big.NewInt(0), TotalDebit: big.NewInt(0)}, nil
	}
	return &Aggregate{TotalCollateral: nz(agg.TotalCollateral), TotalDebit: nz(agg.TotalDebit)}, nil
}

// writeLedger is the single mutation point for the position ledger. It keeps
// the per-account record and the collateral aggregate consistent: the
// aggregate is re-derived from the position delta before both are persisted,
// and a fully emptied position is deleted rather than stored as zeros.
func (e *Engine) writeLedger(symbol string, addr crypto.Address, next *Position, agg *Aggregate) error {
	prev, err := e.loadPosition(symbol, addr)
	if err != nil {
		return err
	}
	updated := &Aggregate{
		TotalCollateral: new(big.Int).Add(new(big.Int).Sub(agg.TotalCollateral, prev.Collateral), next.Collateral),
		TotalDebit:      new(big.Int).Add(new(big.Int).Sub(agg.TotalDebit, prev.Debit), next.Debit),
	}
	if updated.TotalCollateral.Sign() < 0 {
		return ErrCollateralOverflow
	}
	if updated.TotalDebit.Sign() < 0 {
		return ErrDebitOverflow
	}

	if next.IsZero() {
		if err := e.state.CDPDeletePosition(symbol, addr); err != nil {
			return err
		}
	} else {
		if err := e.state.CDPPutPosition(symbol, addr, next); err != nil {
			return err
		}
	}
	// Copy the recomputed totals back so a caller issuing several writes in
	// one operation keeps working against the current aggregate.
	agg.TotalCollateral = updated.TotalCollateral
	agg.TotalDebit = updated.TotalDebit
	return e.state.CDPPutAggregate(symbol, updated)
}

// confiscateCollateralAndDebit removes the given amounts from the account's
// position without touching token balances or the treasury. The liquidation
// and settlement paths settle the economic legs themselves.
func (e *Engine) confiscateCollateralAndDebit(owner crypto.Address, symbol string, collateralAmount, debitAmount *big.Int) error {
	pos, err := e.loadPosition(symbol, owner)
	if err != nil {
		return err
	}
	newCollateral := new(big.Int).Sub(pos.Collateral, nz(collateralAmount))
	if newCollateral.Sign() < 0 {
		return ErrCollateralTooLow
	}
	newDebit := new(big.Int).Sub(pos.Debit, nz(debitAmount))
	if newDebit.Sign() < 0 {
		return ErrDebitTooLow
	}
	agg, err := e.loadAggregate(symbol)
	if err != nil {
		return err
	}
	if err := e.writeLedger(symbol, owner, &Position{Collateral: newCollateral, Debit: newDebit}, agg); err != nil {
		return err
	}
	e.emit(events.CDPConfiscated{
		Owner:            owner,
		Collateral:       symbol,
		CollateralAmount: nz(collateralAmount),
		DebitAmount:      nz(debitAmount),
	})
	return nil
}

// GetPosition returns the account's position for the collateral symbol. A
// missing record reads as a zero position.
func (e *Engine) GetPosition(symbol string, addr crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.params.HasCollateral(symbol) {
		return nil, ErrInvalidCollateral
	}
	return e.loadPosition(symbol, addr)
}

// GetAggregate returns the collateral-wide totals.
func (e *Engine) GetAggregate(symbol string) (*Aggregate, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.params.HasCollateral(symbol) {
		return nil, ErrInvalidCollateral
	}
	return e.loadAggregate(symbol)
}

// TotalDebit returns the aggregate debit balance recorded for the collateral.
func (e *Engine) TotalDebit(symbol string) (*big.Int, error) {
	agg, err := e.GetAggregate(symbol)
	if err != nil {
		return nil, err
	}
	return agg.TotalDebit, nil
}

// TotalCollateral returns the aggregate collateral balance recorded for the
// collateral.
func (e *Engine) TotalCollateral(symbol string) (*big.Int, error) {
	agg, err := e.GetAggregate(symbol)
	if err != nil {
		return nil, err
	}
	return agg.TotalCollateral, nil
}
