package cdp

import "math/big"

// All rates, ratios, prices and exchange rates are fixed-point integers scaled
// by 1e18 ("ray"). Balances are plain integers in the token's smallest unit.
// Intermediate products are computed on arbitrary-precision integers before
// dividing, so widening can never truncate.
var ray = big.NewInt(1_000_000_000_000_000_000)

// Ray returns the fixed-point scale used for rates and ratios.
func Ray() *big.Int { return new(big.Int).Set(ray) }

// rayMul computes floor(a * b / 1e18). Used both for rate*rate and for
// rate*balance products.
func rayMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	result := new(big.Int).Mul(a, b)
	return result.Quo(result, ray)
}

// ratioFromRational computes the fixed-point quotient num/den. A zero or nil
// denominator yields a zero ratio; callers that treat zero debit as
// "infinitely safe" must check for it before calling.
func ratioFromRational(num, den *big.Int) *big.Int {
	if num == nil || den == nil || den.Sign() == 0 {
		return big.NewInt(0)
	}
	result := new(big.Int).Mul(num, ray)
	return result.Quo(result, den)
}

// nz normalises a possibly-nil big integer to zero.
func nz(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func bigMin(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
