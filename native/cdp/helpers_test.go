package cdp

import (
	"errors"
	"math/big"

	"halochain/core/events"
	"halochain/core/types"
	"halochain/crypto"
)

var errMockInsufficient = errors.New("mock: insufficient balance")

type mockLedgerState struct {
	positions  map[string]*Position
	aggregates map[string]*Aggregate
	params     map[string]*CollateralParams
	rates      map[string]*big.Int
}

func newMockLedgerState() *mockLedgerState {
	return &mockLedgerState{
		positions:  make(map[string]*Position),
		aggregates: make(map[string]*Aggregate),
		params:     make(map[string]*CollateralParams),
		rates:      make(map[string]*big.Int),
	}
}

func (m *mockLedgerState) posKey(symbol string, addr crypto.Address) string {
	return symbol + "/" + string(addr.Bytes())
}

func (m *mockLedgerState) CDPGetPosition(symbol string, addr crypto.Address) (*Position, error) {
	if pos, ok := m.positions[m.posKey(symbol, addr)]; ok {
		return &Position{Collateral: new(big.Int).Set(pos.Collateral), Debit: new(big.Int).Set(pos.Debit)}, nil
	}
	return nil, nil
}

func (m *mockLedgerState) CDPPutPosition(symbol string, addr crypto.Address, pos *Position) error {
	m.positions[m.posKey(symbol, addr)] = &Position{
		Collateral: new(big.Int).Set(pos.Collateral),
		Debit:      new(big.Int).Set(pos.Debit),
	}
	return nil
}

func (m *mockLedgerState) CDPDeletePosition(symbol string, addr crypto.Address) error {
	delete(m.positions, m.posKey(symbol, addr))
	return nil
}

func (m *mockLedgerState) CDPGetAggregate(symbol string) (*Aggregate, error) {
	if agg, ok := m.aggregates[symbol]; ok {
		return &Aggregate{
			TotalCollateral: new(big.Int).Set(agg.TotalCollateral),
			TotalDebit:      new(big.Int).Set(agg.TotalDebit),
		}, nil
	}
	return nil, nil
}

func (m *mockLedgerState) CDPPutAggregate(symbol string, agg *Aggregate) error {
	m.aggregates[symbol] = &Aggregate{
		TotalCollateral: new(big.Int).Set(agg.TotalCollateral),
		TotalDebit:      new(big.Int).Set(agg.TotalDebit),
	}
	return nil
}

func (m *mockLedgerState) CDPGetCollateralParams(symbol string) (*CollateralParams, error) {
	if params, ok := m.params[symbol]; ok {
		return params.Clone(), nil
	}
	return nil, nil
}

func (m *mockLedgerState) CDPPutCollateralParams(symbol string, params *CollateralParams) error {
	m.params[symbol] = params.Clone()
	return nil
}

func (m *mockLedgerState) CDPGetExchangeRate(symbol string) (*big.Int, error) {
	if rate, ok := m.rates[symbol]; ok {
		return new(big.Int).Set(rate), nil
	}
	return nil, nil
}

func (m *mockLedgerState) CDPPutExchangeRate(symbol string, rate *big.Int) error {
	m.rates[symbol] = new(big.Int).Set(rate)
	return nil
}

type mockCurrency struct {
	balances map[string]*big.Int
}

func newMockCurrency() *mockCurrency {
	return &mockCurrency{balances: make(map[string]*big.Int)}
}

func (m *mockCurrency) key(symbol string, addr crypto.Address) string {
	return symbol + "/" + string(addr.Bytes())
}

func (m *mockCurrency) setBalance(symbol string, addr crypto.Address, amount *big.Int) {
	m.balances[m.key(symbol, addr)] = new(big.Int).Set(amount)
}

func (m *mockCurrency) balance(symbol string, addr crypto.Address) *big.Int {
	if bal, ok := m.balances[m.key(symbol, addr)]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (m *mockCurrency) Transfer(symbol string, from, to crypto.Address, amount *big.Int) error {
	fromBal := m.balance(symbol, from)
	if fromBal.Cmp(amount) < 0 {
		return errMockInsufficient
	}
	m.balances[m.key(symbol, from)] = new(big.Int).Sub(fromBal, amount)
	m.balances[m.key(symbol, to)] = new(big.Int).Add(m.balance(symbol, to), amount)
	return nil
}

func (m *mockCurrency) EnsureCanWithdraw(symbol string, from crypto.Address, amount *big.Int) error {
	if m.balance(symbol, from).Cmp(amount) < 0 {
		return errMockInsufficient
	}
	return nil
}

type mockPrices struct {
	prices map[string]*big.Int
}

func newMockPrices() *mockPrices {
	return &mockPrices{prices: make(map[string]*big.Int)}
}

func (m *mockPrices) set(base, quote string, price *big.Int) {
	m.prices[base+"/"+quote] = new(big.Int).Set(price)
}

func (m *mockPrices) GetRelativePrice(base, quote string) (*big.Int, bool) {
	if price, ok := m.prices[base+"/"+quote]; ok {
		return new(big.Int).Set(price), true
	}
	return nil, false
}

type treasuryCall struct {
	kind   string
	addr   crypto.Address
	symbol string
	amount *big.Int
}

type mockTreasury struct {
	mints       []treasuryCall
	burns       []treasuryCall
	surplus     *big.Int
	debit       *big.Int
	transfers   []treasuryCall
	swaps       []treasuryCall
	failSurplus bool
}

func newMockTreasury() *mockTreasury {
	return &mockTreasury{surplus: big.NewInt(0), debit: big.NewInt(0)}
}

func (m *mockTreasury) DepositBackedDebit(to crypto.Address, amount *big.Int) error {
	m.mints = append(m.mints, treasuryCall{kind: "mint", addr: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) WithdrawBackedDebit(from crypto.Address, amount *big.Int) error {
	m.burns = append(m.burns, treasuryCall{kind: "burn", addr: from, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) OnSystemSurplus(amount *big.Int) error {
	if m.failSurplus {
		return errors.New("mock: surplus deposit rejected")
	}
	m.surplus = new(big.Int).Add(m.surplus, amount)
	return nil
}

func (m *mockTreasury) OnSystemDebit(amount *big.Int) error {
	m.debit = new(big.Int).Add(m.debit, amount)
	return nil
}

func (m *mockTreasury) TransferCollateralFrom(collateral string, from crypto.Address, amount *big.Int) error {
	m.transfers = append(m.transfers, treasuryCall{kind: "from", addr: from, symbol: collateral, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) TransferCollateralTo(collateral string, to crypto.Address, amount *big.Int) error {
	m.transfers = append(m.transfers, treasuryCall{kind: "to", addr: to, symbol: collateral, amount: new(big.Int).Set(amount)})
	return nil
}

func (m *mockTreasury) SwapCollateralToStable(collateral string, supplyAmount, minTarget *big.Int) error {
	m.swaps = append(m.swaps, treasuryCall{kind: "swap", symbol: collateral, amount: new(big.Int).Set(supplyAmount)})
	return nil
}

type auctionCall struct {
	recipient  crypto.Address
	collateral string
	amount     *big.Int
	target     *big.Int
	badDebt    *big.Int
}

type mockAuctions struct {
	auctions []auctionCall
}

func (m *mockAuctions) NewCollateralAuction(recipient crypto.Address, collateral string, amount, target, badDebt *big.Int) error {
	m.auctions = append(m.auctions, auctionCall{
		recipient:  recipient,
		collateral: collateral,
		amount:     new(big.Int).Set(amount),
		target:     new(big.Int).Set(target),
		badDebt:    new(big.Int).Set(badDebt),
	})
	return nil
}

type mockDEX struct {
	supplyNeeded map[string]*big.Int
	slippage     *big.Int
}

func newMockDEX() *mockDEX {
	return &mockDEX{supplyNeeded: make(map[string]*big.Int)}
}

func (m *mockDEX) SupplyAmountNeeded(supply, target string, targetAmount *big.Int) *big.Int {
	if needed, ok := m.supplyNeeded[supply+"/"+target]; ok {
		return new(big.Int).Set(needed)
	}
	return nil
}

func (m *mockDEX) TargetAmount(supply, target string, supplyAmount *big.Int) *big.Int {
	return big.NewInt(0)
}

func (m *mockDEX) ExchangeSlippage(supply, target string, supplyAmount *big.Int) (*big.Int, bool) {
	if m.slippage == nil {
		return nil, false
	}
	return new(big.Int).Set(m.slippage), true
}

type stubShutdown struct {
	shutdown bool
}

func (s stubShutdown) IsShutdown() bool { return s.shutdown }

type capturedEmitter struct {
	emitted []events.Event
}

func (e *capturedEmitter) Emit(ev events.Event) {
	e.emitted = append(e.emitted, ev)
}

func (e *capturedEmitter) byType(eventType string) []*types.Event {
	var matched []*types.Event
	for _, ev := range e.emitted {
		if ev.EventType() != eventType {
			continue
		}
		wire, ok := ev.(interface{ Event() *types.Event })
		if !ok {
			continue
		}
		matched = append(matched, wire.Event())
	}
	return matched
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(prefix, raw)
}

type testFixture struct {
	engine   *Engine
	state    *mockLedgerState
	currency *mockCurrency
	prices   *mockPrices
	treasury *mockTreasury
	auctions *mockAuctions
	emitter  *capturedEmitter
	vault    crypto.Address
}

const (
	testCollateral = "HBTC"
	testStable     = "HUSD"
)

func rayN(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ray)
}

// rayFrac returns num/den scaled to a ray.
func rayFrac(num, den int64) *big.Int {
	return new(big.Int).Div(new(big.Int).Mul(big.NewInt(num), ray), big.NewInt(den))
}

func newTestFixture() *testFixture {
	vault := makeAddress(crypto.VaultPrefix, 0xAA)
	params := ProtocolParams{
		CollateralCurrencies:      []string{testCollateral},
		StableSymbol:              testStable,
		DefaultLiquidationRatio:   rayFrac(3, 2),
		DefaultLiquidationPenalty: rayFrac(1, 10),
		MinimumDebitValue:         big.NewInt(0),
		MaxSwapSlippage:           rayFrac(15, 100),
	}
	engine := NewEngine(vault, params)

	f := &testFixture{
		engine:   engine,
		state:    newMockLedgerState(),
		currency: newMockCurrency(),
		prices:   newMockPrices(),
		treasury: newMockTreasury(),
		auctions: &mockAuctions{},
		emitter:  &capturedEmitter{},
		vault:    vault,
	}
	engine.SetState(f.state)
	engine.SetCurrency(f.currency)
	engine.SetPriceSource(f.prices)
	engine.SetTreasury(f.treasury)
	engine.SetAuctionManager(f.auctions)
	engine.SetEmitter(f.emitter)

	// 1 HBTC is worth 10 HUSD unless a test overrides the feed.
	f.prices.set(testCollateral, testStable, rayN(10))
	// Generous debt ceiling so only the cap tests trip it.
	f.state.params[testCollateral] = &CollateralParams{MaximumTotalDebitValue: big.NewInt(1_000_000)}
	return f
}

func (f *testFixture) position(addr crypto.Address) *Position {
	pos, err := f.engine.GetPosition(testCollateral, addr)
	if err != nil {
		panic(err)
	}
	return pos
}

func (f *testFixture) aggregate() *Aggregate {
	agg, err := f.engine.GetAggregate(testCollateral)
	if err != nil {
		panic(err)
	}
	return agg
}
