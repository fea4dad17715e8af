package state

import (
	"fmt"
	"math/big"
	"strings"

	"halochain/crypto"
	"halochain/native/cdp"
)

var (
	cdpPositionPrefix  = "cdp/position/"
	cdpAggregatePrefix = "cdp/aggregate/"
	cdpParamsPrefix    = "cdp/params/"
	cdpRatePrefix      = "cdp/rate/"
)

func cdpPositionKey(symbol string, addr crypto.Address) []byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	buf := make([]byte, 0, len(cdpPositionPrefix)+len(normalized)+1+len(addr.Bytes()))
	buf = append(buf, cdpPositionPrefix...)
	buf = append(buf, normalized...)
	buf = append(buf, ':')
	buf = append(buf, addr.Bytes()...)
	return buf
}

func cdpAggregateKey(symbol string) []byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	return append([]byte(cdpAggregatePrefix), normalized...)
}

func cdpParamsKey(symbol string) []byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	return append([]byte(cdpParamsPrefix), normalized...)
}

func cdpRateKey(symbol string) []byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	return append([]byte(cdpRatePrefix), normalized...)
}

// Stored amounts are decimal strings; the empty string marks an unset
// optional field. RLP has no encoding for a nil big integer inside a struct.
type storedCDPPosition struct {
	Collateral string
	Debit      string
}

type storedCDPAggregate struct {
	TotalCollateral string
	TotalDebit      string
}

type storedCollateralParams struct {
	StabilityFee            string
	LiquidationRatio        string
	LiquidationPenalty      string
	RequiredCollateralRatio string
	MaximumTotalDebitValue  string
}

func encodeAmount(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func decodeAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("state: malformed stored amount %q", s)
	}
	return v, nil
}

func decodeAmountOrZero(s string) (*big.Int, error) {
	v, err := decodeAmount(s)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return big.NewInt(0), nil
	}
	return v, nil
}

// CDPGetPosition returns the stored position, or nil when the account has
// none for the collateral.
func (m *Manager) CDPGetPosition(symbol string, addr crypto.Address) (*cdp.Position, error) {
	var stored storedCDPPosition
	ok, err := m.KVGet(cdpPositionKey(symbol, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	collateral, err := decodeAmountOrZero(stored.Collateral)
	if err != nil {
		return nil, err
	}
	debit, err := decodeAmountOrZero(stored.Debit)
	if err != nil {
		return nil, err
	}
	return &cdp.Position{Collateral: collateral, Debit: debit}, nil
}

// CDPPutPosition persists the account's position for the collateral.
func (m *Manager) CDPPutPosition(symbol string, addr crypto.Address, pos *cdp.Position) error {
	if pos == nil {
		return fmt.Errorf("state: position must not be nil")
	}
	return m.KVPut(cdpPositionKey(symbol, addr), storedCDPPosition{
		Collateral: encodeAmount(pos.Collateral),
		Debit:      encodeAmount(pos.Debit),
	})
}

// CDPDeletePosition removes the account's position record.
func (m *Manager) CDPDeletePosition(symbol string, addr crypto.Address) error {
	return m.KVDelete(cdpPositionKey(symbol, addr))
}

// CDPGetAggregate returns the collateral-wide totals, or nil when no
// positions were ever recorded.
func (m *Manager) CDPGetAggregate(symbol string) (*cdp.Aggregate, error) {
	var stored storedCDPAggregate
	ok, err := m.KVGet(cdpAggregateKey(symbol), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	totalCollateral, err := decodeAmountOrZero(stored.TotalCollateral)
	if err != nil {
		return nil, err
	}
	totalDebit, err := decodeAmountOrZero(stored.TotalDebit)
	if err != nil {
		return nil, err
	}
	return &cdp.Aggregate{TotalCollateral: totalCollateral, TotalDebit: totalDebit}, nil
}

// CDPPutAggregate persists the collateral-wide totals.
func (m *Manager) CDPPutAggregate(symbol string, agg *cdp.Aggregate) error {
	if agg == nil {
		return fmt.Errorf("state: aggregate must not be nil")
	}
	return m.KVPut(cdpAggregateKey(symbol), storedCDPAggregate{
		TotalCollateral: encodeAmount(agg.TotalCollateral),
		TotalDebit:      encodeAmount(agg.TotalDebit),
	})
}

// CDPGetCollateralParams returns the stored risk parameters, or nil when the
// collateral has none.
func (m *Manager) CDPGetCollateralParams(symbol string) (*cdp.CollateralParams, error) {
	var stored storedCollateralParams
	ok, err := m.KVGet(cdpParamsKey(symbol), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	params := &cdp.CollateralParams{}
	if params.StabilityFee, err = decodeAmount(stored.StabilityFee); err != nil {
		return nil, err
	}
	if params.LiquidationRatio, err = decodeAmount(stored.LiquidationRatio); err != nil {
		return nil, err
	}
	if params.LiquidationPenalty, err = decodeAmount(stored.LiquidationPenalty); err != nil {
		return nil, err
	}
	if params.RequiredCollateralRatio, err = decodeAmount(stored.RequiredCollateralRatio); err != nil {
		return nil, err
	}
	if params.MaximumTotalDebitValue, err = decodeAmount(stored.MaximumTotalDebitValue); err != nil {
		return nil, err
	}
	return params, nil
}

// CDPPutCollateralParams persists the collateral's risk parameters.
func (m *Manager) CDPPutCollateralParams(symbol string, params *cdp.CollateralParams) error {
	if params == nil {
		return fmt.Errorf("state: collateral params must not be nil")
	}
	return m.KVPut(cdpParamsKey(symbol), storedCollateralParams{
		StabilityFee:            encodeAmount(params.StabilityFee),
		LiquidationRatio:        encodeAmount(params.LiquidationRatio),
		LiquidationPenalty:      encodeAmount(params.LiquidationPenalty),
		RequiredCollateralRatio: encodeAmount(params.RequiredCollateralRatio),
		MaximumTotalDebitValue:  encodeAmount(params.MaximumTotalDebitValue),
	})
}

// CDPGetExchangeRate returns the accrued debit exchange rate, or nil when
// accrual has never advanced the collateral.
func (m *Manager) CDPGetExchangeRate(symbol string) (*big.Int, error) {
	var stored string
	ok, err := m.KVGet(cdpRateKey(symbol), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeAmount(stored)
}

// CDPPutExchangeRate persists the accrued debit exchange rate.
func (m *Manager) CDPPutExchangeRate(symbol string, rate *big.Int) error {
	if rate == nil || rate.Sign() <= 0 {
		return fmt.Errorf("state: exchange rate must be positive")
	}
	return m.KVPut(cdpRateKey(symbol), rate.String())
}
