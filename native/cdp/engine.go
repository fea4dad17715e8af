package cdp

import (
	"log/slog"
	"math/big"

	"halochain/core/events"
	"halochain/crypto"
	nativecommon "halochain/native/common"
)

const moduleName = "cdp"

// Engine owns the position ledger and enforces the protocol's solvency rules
// on every position change. All collaborators are injected explicitly so the
// engine stays unit-testable without process-wide state.
type Engine struct {
	state        ledgerState
	vaultAddress crypto.Address
	params       ProtocolParams

	currency Currency
	prices   PriceSource
	treasury Treasury
	auctions AuctionManager
	dex      DEX
	shutdown ShutdownView

	updateAuthority crypto.Address
	pauses          nativecommon.PauseView
	emitter         events.Emitter
	logger          *slog.Logger
}

// NewEngine constructs a CDP engine configured with the module vault account
// that escrows locked collateral and the protocol-wide parameters.
func NewEngine(vaultAddr crypto.Address, params ProtocolParams) *Engine {
	return &Engine{
		vaultAddress: vaultAddr,
		params:       params,
		emitter:      events.NoopEmitter{},
		logger:       slog.Default(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state ledgerState) { e.state = state }

// SetCurrency wires the token balance ledger collaborator.
func (e *Engine) SetCurrency(currency Currency) {
	if e == nil {
		return
	}
	e.currency = currency
}

// SetPriceSource wires the price feed collaborator.
func (e *Engine) SetPriceSource(prices PriceSource) {
	if e == nil {
		return
	}
	e.prices = prices
}

// SetTreasury wires the CDP treasury collaborator.
func (e *Engine) SetTreasury(treasury Treasury) {
	if e == nil {
		return
	}
	e.treasury = treasury
}

// SetAuctionManager wires the collateral auction collaborator.
func (e *Engine) SetAuctionManager(auctions AuctionManager) {
	if e == nil {
		return
	}
	e.auctions = auctions
}

// SetDEX wires the swap engine used as the fast liquidation route. A nil DEX
// disables the swap route and all liquidations go to auction.
func (e *Engine) SetDEX(dex DEX) {
	if e == nil {
		return
	}
	e.dex = dex
}

// SetShutdownView wires the emergency shutdown flag provider.
func (e *Engine) SetShutdownView(view ShutdownView) {
	if e == nil {
		return
	}
	e.shutdown = view
}

// SetUpdateAuthority configures the account allowed to change collateral
// parameters.
func (e *Engine) SetUpdateAuthority(authority crypto.Address) {
	if e == nil {
		return
	}
	e.updateAuthority = authority
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets it to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger configures the structured logger used for non-fatal accrual
// failures.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// VaultAddress returns the module account escrowing locked collateral.
func (e *Engine) VaultAddress() crypto.Address { return e.vaultAddress }

// CollateralCurrencies returns the accepted collateral symbols.
func (e *Engine) CollateralCurrencies() []string {
	return append([]string(nil), e.params.CollateralCurrencies...)
}

// StableSymbol returns the synthetic stablecoin token symbol.
func (e *Engine) StableSymbol() string { return e.params.StableSymbol }

func (e *Engine) emit(ev events.Event) {
	if e == nil || e.emitter == nil || ev == nil {
		return
	}
	e.emitter.Emit(ev)
}

func (e *Engine) isShutdown() bool {
	return e.shutdown != nil && e.shutdown.IsShutdown()
}

// splitAdjustment converts a signed adjustment into an unsigned magnitude and
// a sign. A nil adjustment cannot be represented as a ledger balance.
func splitAdjustment(adjustment *big.Int) (*big.Int, int, error) {
	if adjustment == nil {
		return nil, 0, ErrAmountConvertFailed
	}
	return new(big.Int).Abs(adjustment), adjustment.Sign(), nil
}

// AdjustPosition applies a signed collateral and debit adjustment to the
// caller's position. Every constraint is validated before the first state
// write, so any failure leaves the ledger, token balances and treasury
// untouched.
func (e *Engine) AdjustPosition(who crypto.Address, symbol string, collateralAdjustment, debitAdjustment *big.Int) error {
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

	collateralDelta, collateralSign, err := splitAdjustment(collateralAdjustment)
	if err != nil {
		return err
	}
	debitDelta, debitSign, err := splitAdjustment(debitAdjustment)
	if err != nil {
		return err
	}

	pos, err := e.loadPosition(symbol, who)
	if err != nil {
		return err
	}
	agg, err := e.loadAggregate(symbol)
	if err != nil {
		return err
	}

	// Phase 1: compute the post-adjustment balances, failing on underflow
	// instead of clamping at zero.
	newCollateral := new(big.Int).Set(pos.Collateral)
	newTotalCollateral := new(big.Int).Set(agg.TotalCollateral)
	if collateralSign > 0 {
		newCollateral.Add(newCollateral, collateralDelta)
		newTotalCollateral.Add(newTotalCollateral, collateralDelta)
	} else if collateralSign < 0 {
		newCollateral.Sub(newCollateral, collateralDelta)
		if newCollateral.Sign() < 0 {
			return ErrCollateralTooLow
		}
		newTotalCollateral.Sub(newTotalCollateral, collateralDelta)
		if newTotalCollateral.Sign() < 0 {
			return ErrCollateralOverflow
		}
	}

	newDebit := new(big.Int).Set(pos.Debit)
	newTotalDebit := new(big.Int).Set(agg.TotalDebit)
	if debitSign > 0 {
		newDebit.Add(newDebit, debitDelta)
		newTotalDebit.Add(newTotalDebit, debitDelta)
	} else if debitSign < 0 {
		newDebit.Sub(newDebit, debitDelta)
		if newDebit.Sign() < 0 {
			return ErrDebitTooLow
		}
		newTotalDebit.Sub(newTotalDebit, debitDelta)
		if newTotalDebit.Sign() < 0 {
			return ErrDebitOverflow
		}
	}

	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return err
	}

	// Phase 2: aggregate debt ceiling, checked only when debt increases.
	if debitSign > 0 {
		if err := e.checkDebitCap(symbol, newTotalDebit, rate); err != nil {
			return err
		}
	}

	// Phase 3: solvency of the resulting position.
	if err := e.checkPositionValid(symbol, newCollateral, newDebit, rate, debitSign > 0); err != nil {
		return err
	}

	// Phase 4: token balances backing the transfers about to happen.
	if collateralSign > 0 {
		if err := e.currency.EnsureCanWithdraw(symbol, who, collateralDelta); err != nil {
			return err
		}
	} else if collateralSign < 0 {
		if err := e.currency.EnsureCanWithdraw(symbol, e.vaultAddress, collateralDelta); err != nil {
			return err
		}
	}
	debitValueDelta := rayMul(rate, debitDelta)
	if debitSign < 0 {
		if err := e.currency.EnsureCanWithdraw(e.params.StableSymbol, who, debitValueDelta); err != nil {
			return err
		}
	}

	// Phase 5: commit. The ledger write comes last; the preceding transfers
	// were validated above and the collaborators are assumed atomic.
	if debitSign > 0 {
		if err := e.treasury.DepositBackedDebit(who, debitValueDelta); err != nil {
			return err
		}
	} else if debitSign < 0 {
		if err := e.treasury.WithdrawBackedDebit(who, debitValueDelta); err != nil {
			return err
		}
	}
	if collateralSign > 0 {
		if err := e.currency.Transfer(symbol, who, e.vaultAddress, collateralDelta); err != nil {
			return err
		}
	} else if collateralSign < 0 {
		if err := e.currency.Transfer(symbol, e.vaultAddress, who, collateralDelta); err != nil {
			return err
		}
	}
	if err := e.writeLedger(symbol, who, &Position{Collateral: newCollateral, Debit: newDebit}, agg); err != nil {
		return err
	}

	e.emit(events.CDPPositionUpdated{
		Owner:                who,
		Collateral:           symbol,
		CollateralAdjustment: collateralAdjustment,
		DebitAdjustment:      debitAdjustment,
	})
	return nil
}

// TransferPosition moves the whole position of `from` to `to`. The resulting
// destination position is re-validated against the ratio checks; the source
// ends up empty and is trivially safe. The aggregate debt ceiling is not
// re-checked because the collateral's total debit is unchanged by the move.
func (e *Engine) TransferPosition(from, to crypto.Address, symbol string) error {
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
	// A self-transfer is a no-op. Both legs below are written as absolute
	// values computed from the pre-transfer snapshots, so letting it
	// through would double the position and the aggregate.
	if from.String() == to.String() {
		return nil
	}

	fromPos, err := e.loadPosition(symbol, from)
	if err != nil {
		return err
	}
	if fromPos.IsZero() {
		return nil
	}
	toPos, err := e.loadPosition(symbol, to)
	if err != nil {
		return err
	}

	combinedCollateral := new(big.Int).Add(toPos.Collateral, fromPos.Collateral)
	combinedDebit := new(big.Int).Add(toPos.Debit, fromPos.Debit)

	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return err
	}
	if err := e.checkPositionValid(symbol, combinedCollateral, combinedDebit, rate, true); err != nil {
		return err
	}

	agg, err := e.loadAggregate(symbol)
	if err != nil {
		return err
	}
	// Both legs commit inside one operation; a failure on either leg aborts
	// before any write because the destination was validated above.
	if err := e.writeLedger(symbol, from, &Position{Collateral: big.NewInt(0), Debit: big.NewInt(0)}, agg); err != nil {
		return err
	}
	if err := e.writeLedger(symbol, to, &Position{Collateral: combinedCollateral, Debit: combinedDebit}, agg); err != nil {
		return err
	}

	e.emit(events.CDPPositionTransferred{From: from, To: to, Collateral: symbol})
	return nil
}

// CollateralRatio computes locked collateral value over debit value for the
// given balances at the current feed price. Zero debit value yields a zero
// ratio; callers treat zero debit as infinitely safe before calling.
func (e *Engine) CollateralRatio(symbol string, collateralBalance, debitBalance *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	price, ok := e.prices.GetRelativePrice(symbol, e.params.StableSymbol)
	if !ok {
		return nil, ErrInvalidFeedPrice
	}
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return nil, err
	}
	return collateralRatio(price, rate, collateralBalance, debitBalance), nil
}

// collateralRatio is the pure ratio computation shared by the validity check
// and the liquidation engine. Products widen in big.Int before the single
// division.
func collateralRatio(price, exchangeRate, collateralBalance, debitBalance *big.Int) *big.Int {
	lockedValue := rayMul(price, nz(collateralBalance))
	debitValue := rayMul(exchangeRate, nz(debitBalance))
	return ratioFromRational(lockedValue, debitValue)
}

// checkPositionValid enforces the ratio and dust constraints on the would-be
// balances of a position. The required collateral ratio applies only to
// voluntary debt increases; the liquidation ratio applies always.
func (e *Engine) checkPositionValid(symbol string, collateralBalance, debitBalance, exchangeRate *big.Int, debitIncreased bool) error {
	debitValue := rayMul(exchangeRate, debitBalance)
	if debitValue.Sign() == 0 {
		return nil
	}

	price, ok := e.prices.GetRelativePrice(symbol, e.params.StableSymbol)
	if !ok {
		return ErrInvalidFeedPrice
	}
	ratio := collateralRatio(price, exchangeRate, collateralBalance, debitBalance)

	if debitIncreased {
		if required, err := e.RequiredCollateralRatio(symbol); err != nil {
			return err
		} else if required != nil && ratio.Cmp(required) < 0 {
			return ErrBelowRequiredCollateralRatio
		}
	}

	liquidationRatio, err := e.LiquidationRatio(symbol)
	if err != nil {
		return err
	}
	if ratio.Cmp(liquidationRatio) < 0 {
		return ErrBelowLiquidationRatio
	}

	if e.params.MinimumDebitValue != nil && debitValue.Cmp(e.params.MinimumDebitValue) < 0 {
		return ErrRemainDebitValueTooSmall
	}
	return nil
}

// checkDebitCap rejects aggregate debit whose stablecoin value exceeds the
// collateral's debt ceiling.
func (e *Engine) checkDebitCap(symbol string, totalDebit, exchangeRate *big.Int) error {
	cap, err := e.MaximumTotalDebitValue(symbol)
	if err != nil {
		return err
	}
	totalDebitValue := rayMul(exchangeRate, totalDebit)
	if totalDebitValue.Cmp(cap) > 0 {
		return ErrExceedDebitValueHardCap
	}
	return nil
}

// ExceedDebitValueCap reports whether the given aggregate debit balance would
// exceed the collateral's debt ceiling. Read-only companion of the cap check.
func (e *Engine) ExceedDebitValueCap(symbol string, totalDebit *big.Int) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	rate, err := e.DebitExchangeRate(symbol)
	if err != nil {
		return false, err
	}
	if err := e.checkDebitCap(symbol, nz(totalDebit), rate); err != nil {
		if err == ErrExceedDebitValueHardCap {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
