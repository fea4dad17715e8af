package config

import (
	"fmt"
	"strings"

	"halochain/crypto"
	"halochain/native/cdp"
)

// Validate checks the parsed configuration for internal consistency before
// any runtime component consumes it.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	stable := strings.ToUpper(strings.TrimSpace(cfg.CDP.StableSymbol))
	if stable == "" {
		return fmt.Errorf("cdp.StableSymbol must not be empty")
	}
	protocol, err := cfg.ProtocolParams()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cfg.Collateral))
	for _, col := range cfg.Collateral {
		symbol := strings.ToUpper(strings.TrimSpace(col.Symbol))
		if symbol == "" {
			return fmt.Errorf("collateral: Symbol must not be empty")
		}
		if symbol == stable {
			return fmt.Errorf("collateral %s: must differ from the stable symbol", symbol)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("collateral %s: declared twice", symbol)
		}
		seen[symbol] = struct{}{}

		params, err := col.RiskParams()
		if err != nil {
			return err
		}
		if params.LiquidationRatio != nil && params.LiquidationRatio.Cmp(cdp.Ray()) <= 0 {
			return fmt.Errorf("collateral %s: LiquidationRatio must exceed 1", symbol)
		}
		// The ordering check runs against the ratio that will actually
		// apply at runtime, falling back to the protocol default when the
		// collateral does not set its own.
		liquidationRatio := params.LiquidationRatio
		if liquidationRatio == nil {
			liquidationRatio = protocol.DefaultLiquidationRatio
		}
		if params.RequiredCollateralRatio != nil && liquidationRatio != nil &&
			params.RequiredCollateralRatio.Cmp(liquidationRatio) < 0 {
			return fmt.Errorf("collateral %s: RequiredCollateralRatio below LiquidationRatio", symbol)
		}
	}

	for name, value := range map[string]string{
		"UpdateAuthority":   cfg.UpdateAuthority,
		"ShutdownAuthority": cfg.ShutdownAuthority,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := crypto.DecodeAddress(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
