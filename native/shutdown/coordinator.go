package shutdown

import (
	"log/slog"
	"math/big"

	"halochain/core/events"
	"halochain/crypto"
	"halochain/observability/metrics"
)

// State is the persisted stage of the shutdown procedure. Both flags are
// one-way: once set they are never cleared.
type State struct {
	Shutdown       bool
	CanRefund      bool
	ShutdownHeight uint64
}

// coordinatorState is the persistence surface the coordinator requires. The
// production implementation is core/state.Manager.
type coordinatorState interface {
	ShutdownGetState() (*State, error)
	ShutdownPutState(st *State) error
}

// CDPEngine is the slice of the position engine the coordinator needs to
// verify that all debt has been settled before refunds open.
type CDPEngine interface {
	CollateralCurrencies() []string
	TotalDebit(symbol string) (*big.Int, error)
}

// PriceLocker freezes a collateral's feed price at shutdown time so all
// settlements and refunds clear against one snapshot.
type PriceLocker interface {
	LockPrice(symbol string) error
}

// AuctionView reports collateral still locked in running auctions.
type AuctionView interface {
	TotalCollateralInAuction(symbol string) *big.Int
}

// Treasury is the slice of the CDP treasury the refund stage draws on.
type Treasury interface {
	// BackedDebitSupply returns the circulating stablecoin supply.
	BackedDebitSupply() (*big.Int, error)
	// WithdrawBackedDebit burns stablecoin from the claiming account.
	WithdrawBackedDebit(from crypto.Address, amount *big.Int) error
	// CollateralPool returns the treasury's holding of the collateral.
	CollateralPool(symbol string) (*big.Int, error)
	// TransferCollateralTo pays treasury-held collateral out.
	TransferCollateralTo(symbol string, to crypto.Address, amount *big.Int) error
}

// Coordinator drives the three-stage wind-down of the protocol: halt,
// settlement, and pro-rata collateral redemption. It also serves the
// shutdown flag the position engine consults on every operation.
type Coordinator struct {
	state     coordinatorState
	engine    CDPEngine
	prices    PriceLocker
	auctions  AuctionView
	treasury  Treasury
	authority crypto.Address
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewCoordinator constructs a shutdown coordinator gated on the given
// authority account.
func NewCoordinator(authority crypto.Address) *Coordinator {
	return &Coordinator{
		authority: authority,
		emitter:   events.NoopEmitter{},
		logger:    slog.Default(),
	}
}

// SetState wires the coordinator to the external persistence layer.
func (c *Coordinator) SetState(state coordinatorState) { c.state = state }

// SetEngine wires the position engine collaborator.
func (c *Coordinator) SetEngine(engine CDPEngine) {
	if c == nil {
		return
	}
	c.engine = engine
}

// SetPriceLocker wires the price feed collaborator.
func (c *Coordinator) SetPriceLocker(prices PriceLocker) {
	if c == nil {
		return
	}
	c.prices = prices
}

// SetAuctionView wires the auction collaborator.
func (c *Coordinator) SetAuctionView(auctions AuctionView) {
	if c == nil {
		return
	}
	c.auctions = auctions
}

// SetTreasury wires the CDP treasury collaborator.
func (c *Coordinator) SetTreasury(treasury Treasury) {
	if c == nil {
		return
	}
	c.treasury = treasury
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// emitter.
func (c *Coordinator) SetEmitter(emitter events.Emitter) {
	if c == nil {
		return
	}
	if emitter == nil {
		c.emitter = events.NoopEmitter{}
		return
	}
	c.emitter = emitter
}

// SetLogger configures the structured logger.
func (c *Coordinator) SetLogger(logger *slog.Logger) {
	if c == nil || logger == nil {
		return
	}
	c.logger = logger
}

func (c *Coordinator) emit(ev events.Event) {
	if c == nil || c.emitter == nil || ev == nil {
		return
	}
	c.emitter.Emit(ev)
}

func (c *Coordinator) loadState() (*State, error) {
	st, err := c.state.ShutdownGetState()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &State{}, nil
	}
	return st, nil
}

// IsShutdown reports whether the protocol has been halted. Read errors are
// treated as not shutdown; the mutation paths surface them.
func (c *Coordinator) IsShutdown() bool {
	if c == nil || c.state == nil {
		return false
	}
	st, err := c.loadState()
	if err != nil {
		return false
	}
	return st.Shutdown
}

// CanRefund reports whether the final redemption stage is open.
func (c *Coordinator) CanRefund() bool {
	if c == nil || c.state == nil {
		return false
	}
	st, err := c.loadState()
	if err != nil {
		return false
	}
	return st.CanRefund
}

// EmergencyShutdown halts the protocol at the given block height. Every
// collateral's feed price is frozen first so settlement runs against a
// consistent snapshot; the halt flag is set only after all locks succeed.
// The halt is irreversible.
func (c *Coordinator) EmergencyShutdown(caller crypto.Address, blockHeight uint64) error {
	if c == nil || c.state == nil {
		return ErrNilState
	}
	if caller.String() != c.authority.String() {
		return ErrUpdateAuthority
	}
	st, err := c.loadState()
	if err != nil {
		return err
	}
	if st.Shutdown {
		return ErrAlreadyShutdown
	}
	for _, symbol := range c.engine.CollateralCurrencies() {
		if err := c.prices.LockPrice(symbol); err != nil {
			return err
		}
	}
	st.Shutdown = true
	st.ShutdownHeight = blockHeight
	if err := c.state.ShutdownPutState(st); err != nil {
		return err
	}
	c.logger.Warn("emergency shutdown initiated", "height", blockHeight)
	metrics.CDP().SetShutdownStage(1)
	c.emit(events.ShutdownInitiated{BlockHeight: blockHeight})
	return nil
}

// OpenCollateralRefund opens the final redemption stage. It requires the
// protocol to be halted, no collateral left in running auctions, and every
// collateral's aggregate debit settled to zero.
func (c *Coordinator) OpenCollateralRefund(caller crypto.Address, blockHeight uint64) error {
	if c == nil || c.state == nil {
		return ErrNilState
	}
	if caller.String() != c.authority.String() {
		return ErrUpdateAuthority
	}
	st, err := c.loadState()
	if err != nil {
		return err
	}
	if !st.Shutdown {
		return ErrMustAfterShutdown
	}
	if st.CanRefund {
		return ErrRefundAlreadyOpen
	}
	for _, symbol := range c.engine.CollateralCurrencies() {
		if inAuction := c.auctions.TotalCollateralInAuction(symbol); inAuction != nil && inAuction.Sign() > 0 {
			return ErrAuctionsPending
		}
		totalDebit, err := c.engine.TotalDebit(symbol)
		if err != nil {
			return err
		}
		if totalDebit.Sign() > 0 {
			return ErrDebitOutstanding
		}
	}
	st.CanRefund = true
	if err := c.state.ShutdownPutState(st); err != nil {
		return err
	}
	c.logger.Info("collateral refund opened", "height", blockHeight)
	metrics.CDP().SetShutdownStage(2)
	c.emit(events.ShutdownRefundOpened{BlockHeight: blockHeight})
	return nil
}

// RefundCollaterals burns stableAmount of the caller's stablecoin and pays
// out the matching pro-rata share of every treasury collateral pool. Shares
// are computed against the pre-burn circulating supply, then the burn and the
// payouts commit.
func (c *Coordinator) RefundCollaterals(who crypto.Address, stableAmount *big.Int) error {
	if c == nil || c.state == nil {
		return ErrNilState
	}
	st, err := c.loadState()
	if err != nil {
		return err
	}
	if !st.CanRefund {
		return ErrCanNotRefund
	}
	if stableAmount == nil || stableAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	supply, err := c.treasury.BackedDebitSupply()
	if err != nil {
		return err
	}
	if supply == nil || supply.Sign() == 0 {
		return ErrNoStableSupply
	}
	if stableAmount.Cmp(supply) > 0 {
		return ErrInvalidAmount
	}

	symbols := c.engine.CollateralCurrencies()
	refunds := make([]events.RefundedCollateral, 0, len(symbols))
	for _, symbol := range symbols {
		pool, err := c.treasury.CollateralPool(symbol)
		if err != nil {
			return err
		}
		if pool == nil || pool.Sign() == 0 {
			continue
		}
		// share = pool * amount / supply, widened before the division.
		share := new(big.Int).Div(new(big.Int).Mul(pool, stableAmount), supply)
		if share.Sign() == 0 {
			continue
		}
		refunds = append(refunds, events.RefundedCollateral{Collateral: symbol, Amount: share})
	}

	if err := c.treasury.WithdrawBackedDebit(who, stableAmount); err != nil {
		return err
	}
	for _, leg := range refunds {
		if err := c.treasury.TransferCollateralTo(leg.Collateral, who, leg.Amount); err != nil {
			return err
		}
	}

	metrics.CDP().ObserveRefundPaid()
	c.emit(events.ShutdownRefunded{
		Account:      who,
		StableAmount: stableAmount,
		Refunded:     refunds,
	})
	return nil
}
