package shutdown

import "errors"

var (
	// ErrNilState indicates the coordinator has no persistence wired.
	ErrNilState = errors.New("shutdown coordinator: state not initialised")
	// ErrUpdateAuthority indicates the caller is not the configured
	// shutdown authority.
	ErrUpdateAuthority = errors.New("shutdown coordinator: caller is not the shutdown authority")
	// ErrAlreadyShutdown indicates the protocol has already been halted.
	ErrAlreadyShutdown = errors.New("shutdown coordinator: already shutdown")
	// ErrMustAfterShutdown indicates an operation that requires the halt
	// flag was invoked while the protocol is still running.
	ErrMustAfterShutdown = errors.New("shutdown coordinator: system must be shutdown first")
	// ErrRefundAlreadyOpen indicates the redemption stage was already
	// opened.
	ErrRefundAlreadyOpen = errors.New("shutdown coordinator: collateral refund already open")
	// ErrAuctionsPending indicates collateral is still locked in running
	// auctions, so the redemption stage cannot open yet.
	ErrAuctionsPending = errors.New("shutdown coordinator: collateral auctions still in progress")
	// ErrDebitOutstanding indicates unsettled position debt remains, so the
	// redemption stage cannot open yet.
	ErrDebitOutstanding = errors.New("shutdown coordinator: outstanding position debt not settled")
	// ErrCanNotRefund indicates a refund claim arrived before the
	// redemption stage opened.
	ErrCanNotRefund = errors.New("shutdown coordinator: collateral refund not open")
	// ErrInvalidAmount indicates a nil or non-positive refund amount.
	ErrInvalidAmount = errors.New("shutdown coordinator: refund amount must be positive")
	// ErrNoStableSupply indicates there is no circulating stablecoin to
	// redeem against.
	ErrNoStableSupply = errors.New("shutdown coordinator: no circulating stablecoin supply")
)
