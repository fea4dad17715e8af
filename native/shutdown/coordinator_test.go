package shutdown

import (
	"errors"
	"math/big"
	"testing"

	"halochain/core/events"
	"halochain/crypto"
)

type memoryState struct {
	state *State
}

func (m *memoryState) ShutdownGetState() (*State, error) {
	if m.state == nil {
		return nil, nil
	}
	copied := *m.state
	return &copied, nil
}

func (m *memoryState) ShutdownPutState(st *State) error {
	copied := *st
	m.state = &copied
	return nil
}

type mockCDPEngine struct {
	symbols []string
	debits  map[string]*big.Int
}

func (m *mockCDPEngine) CollateralCurrencies() []string { return m.symbols }

func (m *mockCDPEngine) TotalDebit(symbol string) (*big.Int, error) {
	if debit, ok := m.debits[symbol]; ok {
		return new(big.Int).Set(debit), nil
	}
	return big.NewInt(0), nil
}

type mockPriceLocker struct {
	locked []string
	fail   bool
}

func (m *mockPriceLocker) LockPrice(symbol string) error {
	if m.fail {
		return errors.New("mock: feed unavailable")
	}
	m.locked = append(m.locked, symbol)
	return nil
}

type mockAuctionView struct {
	inAuction map[string]*big.Int
}

func (m *mockAuctionView) TotalCollateralInAuction(symbol string) *big.Int {
	if amount, ok := m.inAuction[symbol]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

type refundLeg struct {
	symbol string
	to     crypto.Address
	amount *big.Int
}

type mockShutdownTreasury struct {
	supply *big.Int
	pools  map[string]*big.Int
	burns  []*big.Int
	paid   []refundLeg
}

func (m *mockShutdownTreasury) BackedDebitSupply() (*big.Int, error) {
	return new(big.Int).Set(m.supply), nil
}

func (m *mockShutdownTreasury) WithdrawBackedDebit(from crypto.Address, amount *big.Int) error {
	m.burns = append(m.burns, new(big.Int).Set(amount))
	return nil
}

func (m *mockShutdownTreasury) CollateralPool(symbol string) (*big.Int, error) {
	if pool, ok := m.pools[symbol]; ok {
		return new(big.Int).Set(pool), nil
	}
	return big.NewInt(0), nil
}

func (m *mockShutdownTreasury) TransferCollateralTo(symbol string, to crypto.Address, amount *big.Int) error {
	m.paid = append(m.paid, refundLeg{symbol: symbol, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

type capturedEmitter struct {
	emitted []events.Event
}

func (e *capturedEmitter) Emit(ev events.Event) {
	e.emitted = append(e.emitted, ev)
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(prefix, raw)
}

type fixture struct {
	coordinator *Coordinator
	state       *memoryState
	engine      *mockCDPEngine
	prices      *mockPriceLocker
	auctions    *mockAuctionView
	treasury    *mockShutdownTreasury
	emitter     *capturedEmitter
	authority   crypto.Address
}

func newFixture() *fixture {
	authority := makeAddress(crypto.HaloPrefix, 0x10)
	f := &fixture{
		coordinator: NewCoordinator(authority),
		state:       &memoryState{},
		engine: &mockCDPEngine{
			symbols: []string{"HBTC", "HETH"},
			debits:  make(map[string]*big.Int),
		},
		prices:    &mockPriceLocker{},
		auctions:  &mockAuctionView{inAuction: make(map[string]*big.Int)},
		treasury:  &mockShutdownTreasury{supply: big.NewInt(0), pools: make(map[string]*big.Int)},
		emitter:   &capturedEmitter{},
		authority: authority,
	}
	f.coordinator.SetState(f.state)
	f.coordinator.SetEngine(f.engine)
	f.coordinator.SetPriceLocker(f.prices)
	f.coordinator.SetAuctionView(f.auctions)
	f.coordinator.SetTreasury(f.treasury)
	f.coordinator.SetEmitter(f.emitter)
	return f
}

func TestEmergencyShutdownLocksPricesAndFlag(t *testing.T) {
	f := newFixture()

	if f.coordinator.IsShutdown() {
		t.Fatalf("fresh coordinator reports shutdown")
	}
	if err := f.coordinator.EmergencyShutdown(f.authority, 42); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !f.coordinator.IsShutdown() {
		t.Fatalf("shutdown flag not set")
	}
	if len(f.prices.locked) != 2 {
		t.Fatalf("expected both feeds locked, got %v", f.prices.locked)
	}
	if f.state.state.ShutdownHeight != 42 {
		t.Fatalf("height not recorded: %d", f.state.state.ShutdownHeight)
	}

	// The halt is one-way.
	if err := f.coordinator.EmergencyShutdown(f.authority, 43); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("expected ErrAlreadyShutdown, got %v", err)
	}
}

func TestEmergencyShutdownRequiresAuthority(t *testing.T) {
	f := newFixture()
	intruder := makeAddress(crypto.HaloPrefix, 0x66)
	if err := f.coordinator.EmergencyShutdown(intruder, 42); !errors.Is(err, ErrUpdateAuthority) {
		t.Fatalf("expected ErrUpdateAuthority, got %v", err)
	}
	if f.coordinator.IsShutdown() {
		t.Fatalf("shutdown flag set by unauthorized caller")
	}
}

func TestEmergencyShutdownAbortsWhenFeedLockFails(t *testing.T) {
	f := newFixture()
	f.prices.fail = true
	if err := f.coordinator.EmergencyShutdown(f.authority, 42); err == nil {
		t.Fatalf("expected feed lock failure to surface")
	}
	if f.coordinator.IsShutdown() {
		t.Fatalf("shutdown flag set despite failed feed lock")
	}
}

func TestOpenCollateralRefundPreconditions(t *testing.T) {
	f := newFixture()

	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); !errors.Is(err, ErrMustAfterShutdown) {
		t.Fatalf("expected ErrMustAfterShutdown, got %v", err)
	}
	if err := f.coordinator.EmergencyShutdown(f.authority, 42); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	f.auctions.inAuction["HBTC"] = big.NewInt(5)
	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); !errors.Is(err, ErrAuctionsPending) {
		t.Fatalf("expected ErrAuctionsPending, got %v", err)
	}
	f.auctions.inAuction["HBTC"] = big.NewInt(0)

	f.engine.debits["HETH"] = big.NewInt(100)
	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); !errors.Is(err, ErrDebitOutstanding) {
		t.Fatalf("expected ErrDebitOutstanding, got %v", err)
	}
	f.engine.debits["HETH"] = big.NewInt(0)

	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); err != nil {
		t.Fatalf("open refund: %v", err)
	}
	if !f.coordinator.CanRefund() {
		t.Fatalf("refund flag not set")
	}
	if err := f.coordinator.OpenCollateralRefund(f.authority, 51); !errors.Is(err, ErrRefundAlreadyOpen) {
		t.Fatalf("expected ErrRefundAlreadyOpen, got %v", err)
	}
}

func TestRefundCollateralsProRata(t *testing.T) {
	f := newFixture()
	if err := f.coordinator.EmergencyShutdown(f.authority, 42); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); err != nil {
		t.Fatalf("open refund: %v", err)
	}

	who := makeAddress(crypto.HaloPrefix, 0x01)
	f.treasury.supply = big.NewInt(1000)
	f.treasury.pools["HBTC"] = big.NewInt(80)
	f.treasury.pools["HETH"] = big.NewInt(400)

	// Redeeming a quarter of the supply claims a quarter of each pool.
	if err := f.coordinator.RefundCollaterals(who, big.NewInt(250)); err != nil {
		t.Fatalf("refund: %v", err)
	}

	if len(f.treasury.burns) != 1 || f.treasury.burns[0].Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected a single burn of 250, got %+v", f.treasury.burns)
	}
	if len(f.treasury.paid) != 2 {
		t.Fatalf("expected two refund legs, got %d", len(f.treasury.paid))
	}
	got := map[string]*big.Int{}
	for _, leg := range f.treasury.paid {
		got[leg.symbol] = leg.amount
	}
	if got["HBTC"].Cmp(big.NewInt(20)) != 0 || got["HETH"].Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected refund amounts: %v", got)
	}
}

func TestRefundCollateralsGuards(t *testing.T) {
	f := newFixture()
	who := makeAddress(crypto.HaloPrefix, 0x01)

	if err := f.coordinator.RefundCollaterals(who, big.NewInt(10)); !errors.Is(err, ErrCanNotRefund) {
		t.Fatalf("expected ErrCanNotRefund, got %v", err)
	}

	if err := f.coordinator.EmergencyShutdown(f.authority, 42); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := f.coordinator.OpenCollateralRefund(f.authority, 50); err != nil {
		t.Fatalf("open refund: %v", err)
	}

	if err := f.coordinator.RefundCollaterals(who, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
	if err := f.coordinator.RefundCollaterals(who, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := f.coordinator.RefundCollaterals(who, big.NewInt(10)); !errors.Is(err, ErrNoStableSupply) {
		t.Fatalf("expected ErrNoStableSupply, got %v", err)
	}

	f.treasury.supply = big.NewInt(5)
	if err := f.coordinator.RefundCollaterals(who, big.NewInt(10)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount beyond supply, got %v", err)
	}
}
