package state

import (
	"math/big"
	"testing"

	"halochain/crypto"
	"halochain/native/cdp"
	"halochain/native/shutdown"
)

func TestCDPPositionRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	who := makeAddress(crypto.HaloPrefix, 0x01)

	pos, err := mgr.CDPGetPosition("HBTC", who)
	if err != nil {
		t.Fatalf("get missing position: %v", err)
	}
	if pos != nil {
		t.Fatalf("expected nil for missing position, got %+v", pos)
	}

	want := &cdp.Position{Collateral: big.NewInt(100), Debit: big.NewInt(500)}
	if err := mgr.CDPPutPosition("HBTC", who, want); err != nil {
		t.Fatalf("put position: %v", err)
	}
	pos, err = mgr.CDPGetPosition("hbtc", who)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if pos == nil || pos.Collateral.Cmp(want.Collateral) != 0 || pos.Debit.Cmp(want.Debit) != 0 {
		t.Fatalf("unexpected position: %+v", pos)
	}

	// Same collateral, different account stays separate.
	other := makeAddress(crypto.HaloPrefix, 0x02)
	if pos, _ := mgr.CDPGetPosition("HBTC", other); pos != nil {
		t.Fatalf("position leaked across accounts")
	}

	if err := mgr.CDPDeletePosition("HBTC", who); err != nil {
		t.Fatalf("delete position: %v", err)
	}
	if pos, _ := mgr.CDPGetPosition("HBTC", who); pos != nil {
		t.Fatalf("position survived deletion")
	}
}

func TestCDPAggregateAndRateRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	if agg, err := mgr.CDPGetAggregate("HBTC"); err != nil || agg != nil {
		t.Fatalf("expected nil aggregate, got %+v err %v", agg, err)
	}
	want := &cdp.Aggregate{TotalCollateral: big.NewInt(100), TotalDebit: big.NewInt(500)}
	if err := mgr.CDPPutAggregate("HBTC", want); err != nil {
		t.Fatalf("put aggregate: %v", err)
	}
	agg, err := mgr.CDPGetAggregate("HBTC")
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}
	if agg.TotalCollateral.Cmp(want.TotalCollateral) != 0 || agg.TotalDebit.Cmp(want.TotalDebit) != 0 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}

	if rate, err := mgr.CDPGetExchangeRate("HBTC"); err != nil || rate != nil {
		t.Fatalf("expected nil rate, got %v err %v", rate, err)
	}
	if err := mgr.CDPPutExchangeRate("HBTC", big.NewInt(0)); err == nil {
		t.Fatalf("expected zero rate to be rejected")
	}
	stored := new(big.Int).Add(cdp.Ray(), big.NewInt(12345))
	if err := mgr.CDPPutExchangeRate("HBTC", stored); err != nil {
		t.Fatalf("put rate: %v", err)
	}
	rate, err := mgr.CDPGetExchangeRate("HBTC")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if rate.Cmp(stored) != 0 {
		t.Fatalf("unexpected rate: %s", rate)
	}
}

func TestCollateralParamsRoundTripPreservesUnset(t *testing.T) {
	mgr := newTestManager(t)

	want := &cdp.CollateralParams{
		LiquidationRatio:       new(big.Int).Mul(big.NewInt(3), big.NewInt(500_000_000_000_000_000)),
		MaximumTotalDebitValue: big.NewInt(1_000_000),
	}
	if err := mgr.CDPPutCollateralParams("HBTC", want); err != nil {
		t.Fatalf("put params: %v", err)
	}
	got, err := mgr.CDPGetCollateralParams("HBTC")
	if err != nil {
		t.Fatalf("get params: %v", err)
	}
	if got.LiquidationRatio.Cmp(want.LiquidationRatio) != 0 {
		t.Fatalf("liquidation ratio mangled: %s", got.LiquidationRatio)
	}
	if got.MaximumTotalDebitValue.Cmp(want.MaximumTotalDebitValue) != 0 {
		t.Fatalf("debit ceiling mangled: %s", got.MaximumTotalDebitValue)
	}
	// Optional fields that were never set come back nil, not zero.
	if got.StabilityFee != nil || got.RequiredCollateralRatio != nil || got.LiquidationPenalty != nil {
		t.Fatalf("unset fields materialised: %+v", got)
	}
}

func TestShutdownStateRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	st, err := mgr.ShutdownGetState()
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil shutdown state, got %+v", st)
	}

	want := &shutdown.State{Shutdown: true, CanRefund: true, ShutdownHeight: 42}
	if err := mgr.ShutdownPutState(want); err != nil {
		t.Fatalf("put state: %v", err)
	}
	st, err = mgr.ShutdownGetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !st.Shutdown || !st.CanRefund || st.ShutdownHeight != 42 {
		t.Fatalf("unexpected shutdown state: %+v", st)
	}
}

func TestManagerSatisfiesEngineWiring(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.RegisterToken("HUSD", "Halo Dollar", 18); err != nil {
		t.Fatalf("register stable: %v", err)
	}
	if err := mgr.RegisterToken("HBTC", "Halo Bitcoin", 8); err != nil {
		t.Fatalf("register collateral: %v", err)
	}

	vault := crypto.ModuleAddress(crypto.VaultPrefix, "cdp/vault")
	engine := cdp.NewEngine(vault, cdp.ProtocolParams{
		CollateralCurrencies: []string{"HBTC"},
		StableSymbol:         "HUSD",
	})
	engine.SetState(mgr)
	engine.SetCurrency(mgr)

	if err := engine.SeedCollateralParams("HBTC", cdp.CollateralParams{
		MaximumTotalDebitValue: big.NewInt(1000),
	}); err != nil {
		t.Fatalf("seed params: %v", err)
	}
	cap, err := engine.MaximumTotalDebitValue("HBTC")
	if err != nil {
		t.Fatalf("debit cap through engine: %v", err)
	}
	if cap.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected cap: %s", cap)
	}
}
