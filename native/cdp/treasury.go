package cdp

import (
	"fmt"
	"math/big"

	"halochain/crypto"
)

var treasuryPoolsKey = []byte("cdp/treasury/pools")

type storedTreasuryPools struct {
	Surplus string
	Debit   string
}

// TreasuryLedger is the state surface the treasury requires. The production
// implementation is core/state.Manager.
type TreasuryLedger interface {
	MintToken(symbol string, to crypto.Address, amount *big.Int) error
	BurnToken(symbol string, from crypto.Address, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	Transfer(symbol string, from, to crypto.Address, amount *big.Int) error
	TokenBalance(addr crypto.Address, symbol string) (*big.Int, error)
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// SwapExecutor performs an exact-target swap on behalf of an account: it
// sells up to maxSupplyAmount of the supply currency for exactly targetAmount
// of the target currency and returns the supply actually spent.
type SwapExecutor interface {
	SwapWithExactTarget(who crypto.Address, supply, target string, maxSupplyAmount, targetAmount *big.Int) (*big.Int, error)
}

// LedgerTreasury is the protocol treasury backed by the token ledger. It
// mints and burns the stablecoin against position debt, books accrued surplus
// and seized bad debt, and escrows confiscated collateral under its module
// account.
type LedgerTreasury struct {
	ledger  TreasuryLedger
	account crypto.Address
	stable  string
	swapper SwapExecutor
}

// NewLedgerTreasury constructs a treasury holding its funds under the given
// module account.
func NewLedgerTreasury(ledger TreasuryLedger, account crypto.Address, stableSymbol string) *LedgerTreasury {
	return &LedgerTreasury{ledger: ledger, account: account, stable: stableSymbol}
}

// SetSwapExecutor wires the swap engine used to sell collateral. A nil
// executor leaves the swap route unavailable.
func (t *LedgerTreasury) SetSwapExecutor(swapper SwapExecutor) {
	if t == nil {
		return
	}
	t.swapper = swapper
}

// Account returns the treasury module account.
func (t *LedgerTreasury) Account() crypto.Address { return t.account }

func (t *LedgerTreasury) loadPools() (surplus, debit *big.Int, err error) {
	var stored storedTreasuryPools
	ok, err := t.ledger.KVGet(treasuryPoolsKey, &stored)
	if err != nil {
		return nil, nil, err
	}
	surplus, debit = big.NewInt(0), big.NewInt(0)
	if !ok {
		return surplus, debit, nil
	}
	if stored.Surplus != "" {
		if _, valid := surplus.SetString(stored.Surplus, 10); !valid {
			return nil, nil, fmt.Errorf("treasury: malformed surplus pool %q", stored.Surplus)
		}
	}
	if stored.Debit != "" {
		if _, valid := debit.SetString(stored.Debit, 10); !valid {
			return nil, nil, fmt.Errorf("treasury: malformed debit pool %q", stored.Debit)
		}
	}
	return surplus, debit, nil
}

func (t *LedgerTreasury) writePools(surplus, debit *big.Int) error {
	return t.ledger.KVPut(treasuryPoolsKey, storedTreasuryPools{
		Surplus: surplus.String(),
		Debit:   debit.String(),
	})
}

// SurplusPool returns the accumulated protocol surplus.
func (t *LedgerTreasury) SurplusPool() (*big.Int, error) {
	surplus, _, err := t.loadPools()
	return surplus, err
}

// DebitPool returns the bad debt awaiting recovery.
func (t *LedgerTreasury) DebitPool() (*big.Int, error) {
	_, debit, err := t.loadPools()
	return debit, err
}

// DepositBackedDebit mints stablecoin to the account when debt is drawn.
func (t *LedgerTreasury) DepositBackedDebit(to crypto.Address, amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.MintToken(t.stable, to, amount)
}

// WithdrawBackedDebit burns stablecoin from the account when debt is repaid.
func (t *LedgerTreasury) WithdrawBackedDebit(from crypto.Address, amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.BurnToken(t.stable, from, amount)
}

// OnSystemSurplus books accrued stability fees: the stablecoin is minted to
// the treasury account and recorded in the surplus pool.
func (t *LedgerTreasury) OnSystemSurplus(amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := t.ledger.MintToken(t.stable, t.account, amount); err != nil {
		return err
	}
	surplus, debit, err := t.loadPools()
	if err != nil {
		return err
	}
	return t.writePools(new(big.Int).Add(surplus, amount), debit)
}

// OnSystemDebit books seized debt as bad debt pending recovery.
func (t *LedgerTreasury) OnSystemDebit(amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	surplus, debit, err := t.loadPools()
	if err != nil {
		return err
	}
	return t.writePools(surplus, new(big.Int).Add(debit, amount))
}

// TransferCollateralFrom pulls confiscated collateral into the treasury
// account.
func (t *LedgerTreasury) TransferCollateralFrom(collateral string, from crypto.Address, amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.Transfer(collateral, from, t.account, amount)
}

// TransferCollateralTo pays treasury-held collateral out.
func (t *LedgerTreasury) TransferCollateralTo(collateral string, to crypto.Address, amount *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.Transfer(collateral, t.account, to, amount)
}

// SwapCollateralToStable sells treasury-held collateral for exactly minTarget
// stablecoin. The proceeds retire bad debt first; anything beyond the debit
// pool is booked as surplus.
func (t *LedgerTreasury) SwapCollateralToStable(collateral string, supplyAmount, minTarget *big.Int) error {
	if t == nil || t.ledger == nil {
		return fmt.Errorf("treasury: not initialised")
	}
	if t.swapper == nil {
		return fmt.Errorf("treasury: no swap engine wired")
	}
	if _, err := t.swapper.SwapWithExactTarget(t.account, collateral, t.stable, supplyAmount, minTarget); err != nil {
		return err
	}
	surplus, debit, err := t.loadPools()
	if err != nil {
		return err
	}
	retired := bigMin(debit, minTarget)
	debit = new(big.Int).Sub(debit, retired)
	surplus = new(big.Int).Add(surplus, new(big.Int).Sub(minTarget, retired))
	if err := t.writePools(surplus, debit); err != nil {
		return err
	}
	// Stablecoin recovered against retired bad debt is burned from the
	// treasury holding so the circulating supply shrinks with the debt.
	if retired.Sign() > 0 {
		return t.ledger.BurnToken(t.stable, t.account, retired)
	}
	return nil
}

// BackedDebitSupply returns the circulating stablecoin supply.
func (t *LedgerTreasury) BackedDebitSupply() (*big.Int, error) {
	if t == nil || t.ledger == nil {
		return nil, fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.TokenSupply(t.stable)
}

// CollateralPool returns the treasury's holding of the collateral.
func (t *LedgerTreasury) CollateralPool(symbol string) (*big.Int, error) {
	if t == nil || t.ledger == nil {
		return nil, fmt.Errorf("treasury: not initialised")
	}
	return t.ledger.TokenBalance(t.account, symbol)
}
