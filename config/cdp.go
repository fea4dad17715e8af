package config

import (
	"fmt"
	"strings"

	"halochain/native/cdp"
)

// ProtocolParams parses the configured CDP defaults into runtime values.
func (c *Config) ProtocolParams() (cdp.ProtocolParams, error) {
	params := cdp.ProtocolParams{
		StableSymbol: strings.ToUpper(strings.TrimSpace(c.CDP.StableSymbol)),
	}
	for _, col := range c.Collateral {
		params.CollateralCurrencies = append(params.CollateralCurrencies, strings.ToUpper(strings.TrimSpace(col.Symbol)))
	}

	var err error
	if params.GlobalStabilityFee, err = parseDecimalRay(c.CDP.GlobalStabilityFee); err != nil {
		return params, fmt.Errorf("invalid cdp.GlobalStabilityFee: %w", err)
	}
	if params.DefaultLiquidationRatio, err = parseDecimalRay(c.CDP.DefaultLiquidationRatio); err != nil {
		return params, fmt.Errorf("invalid cdp.DefaultLiquidationRatio: %w", err)
	}
	if params.DefaultLiquidationPenalty, err = parseDecimalRay(c.CDP.DefaultLiquidationPenalty); err != nil {
		return params, fmt.Errorf("invalid cdp.DefaultLiquidationPenalty: %w", err)
	}
	if params.DefaultDebitExchangeRate, err = parseDecimalRay(c.CDP.DefaultDebitExchangeRate); err != nil {
		return params, fmt.Errorf("invalid cdp.DefaultDebitExchangeRate: %w", err)
	}
	if params.MinimumDebitValue, err = parseUintAmount(c.CDP.MinimumDebitValue); err != nil {
		return params, fmt.Errorf("invalid cdp.MinimumDebitValue: %w", err)
	}
	if params.MaxSwapSlippage, err = parseDecimalRay(c.CDP.MaxSwapSlippage); err != nil {
		return params, fmt.Errorf("invalid cdp.MaxSwapSlippage: %w", err)
	}
	return params, nil
}

// RiskParams parses the collateral's genesis risk parameters into runtime
// values. Unset optional fields stay nil so the protocol defaults apply.
func (col CollateralConfig) RiskParams() (cdp.CollateralParams, error) {
	var params cdp.CollateralParams
	var err error
	if params.StabilityFee, err = parseDecimalRay(col.StabilityFee); err != nil {
		return params, fmt.Errorf("collateral %s: invalid StabilityFee: %w", col.Symbol, err)
	}
	if params.LiquidationRatio, err = parseDecimalRay(col.LiquidationRatio); err != nil {
		return params, fmt.Errorf("collateral %s: invalid LiquidationRatio: %w", col.Symbol, err)
	}
	if params.LiquidationPenalty, err = parseDecimalRay(col.LiquidationPenalty); err != nil {
		return params, fmt.Errorf("collateral %s: invalid LiquidationPenalty: %w", col.Symbol, err)
	}
	if params.RequiredCollateralRatio, err = parseDecimalRay(col.RequiredCollateralRatio); err != nil {
		return params, fmt.Errorf("collateral %s: invalid RequiredCollateralRatio: %w", col.Symbol, err)
	}
	if params.MaximumTotalDebitValue, err = parseUintAmount(col.MaximumTotalDebitValue); err != nil {
		return params, fmt.Errorf("collateral %s: invalid MaximumTotalDebitValue: %w", col.Symbol, err)
	}
	return params, nil
}
