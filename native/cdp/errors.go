package cdp

import "errors"

var (
	// ErrNilState is returned when the engine has not been wired to state.
	ErrNilState = errors.New("cdp engine: state not configured")
	// ErrInvalidCollateral rejects operations against unknown collateral types.
	ErrInvalidCollateral = errors.New("cdp engine: invalid collateral currency")
	// ErrAmountConvertFailed is returned when a signed adjustment cannot be
	// converted to an unsigned ledger balance.
	ErrAmountConvertFailed = errors.New("cdp engine: amount conversion failed")
	// ErrCollateralOverflow guards the aggregate collateral sum.
	ErrCollateralOverflow = errors.New("cdp engine: collateral overflow")
	// ErrCollateralTooLow is returned when a withdrawal exceeds the locked
	// collateral balance; underflow fails the operation rather than clamping.
	ErrCollateralTooLow = errors.New("cdp engine: collateral too low")
	// ErrDebitOverflow guards the aggregate debit sum.
	ErrDebitOverflow = errors.New("cdp engine: debit overflow")
	// ErrDebitTooLow is returned when a repayment exceeds the outstanding
	// debit balance.
	ErrDebitTooLow = errors.New("cdp engine: debit too low")
	// ErrExceedDebitValueHardCap rejects debt increases beyond the
	// collateral's configured debt ceiling.
	ErrExceedDebitValueHardCap = errors.New("cdp engine: exceed total debit value hard cap")
	// ErrBelowRequiredCollateralRatio rejects voluntary debt increases that
	// would leave the position under the required collateral ratio.
	ErrBelowRequiredCollateralRatio = errors.New("cdp engine: below required collateral ratio")
	// ErrBelowLiquidationRatio rejects adjustments that would leave the
	// position below the liquidation ratio.
	ErrBelowLiquidationRatio = errors.New("cdp engine: below liquidation ratio")
	// ErrRemainDebitValueTooSmall rejects adjustments leaving dust debt.
	ErrRemainDebitValueTooSmall = errors.New("cdp engine: remaining debit value too small")
	// ErrInvalidFeedPrice is returned when the price source has no feed for a
	// collateral whose value must be assessed.
	ErrInvalidFeedPrice = errors.New("cdp engine: invalid feed price")
	// ErrCDPStillSafe is returned when liquidation is attempted on a position
	// at or above the liquidation ratio, including already-drained positions.
	ErrCDPStillSafe = errors.New("cdp engine: cdp still safe")
	// ErrAlreadyNoDebit is returned when settling a position without debt.
	ErrAlreadyNoDebit = errors.New("cdp engine: position has no debit")
	// ErrAlreadyShutdown rejects normal entry points after emergency shutdown.
	ErrAlreadyShutdown = errors.New("cdp engine: system already shutdown")
	// ErrMustAfterShutdown guards operations only valid during settlement.
	ErrMustAfterShutdown = errors.New("cdp engine: must after system shutdown")
	// ErrUpdateAuthority rejects parameter updates from unauthorized origins.
	ErrUpdateAuthority = errors.New("cdp engine: unauthorized parameter update")
)
