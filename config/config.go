package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// CollateralConfig declares one accepted collateral currency together with
// its genesis risk parameters. Rates and ratios are decimal strings
// ("0.000000001", "1.5"); amounts are integer strings in base units.
type CollateralConfig struct {
	Symbol                  string `toml:"Symbol"`
	Name                    string `toml:"Name"`
	Decimals                uint8  `toml:"Decimals"`
	StabilityFee            string `toml:"StabilityFee"`
	LiquidationRatio        string `toml:"LiquidationRatio"`
	LiquidationPenalty      string `toml:"LiquidationPenalty"`
	RequiredCollateralRatio string `toml:"RequiredCollateralRatio,omitempty"`
	MaximumTotalDebitValue  string `toml:"MaximumTotalDebitValue"`
}

// CDPConfig carries the protocol-wide defaults applied when a collateral does
// not override them.
type CDPConfig struct {
	StableSymbol              string `toml:"StableSymbol"`
	GlobalStabilityFee        string `toml:"GlobalStabilityFee"`
	DefaultLiquidationRatio   string `toml:"DefaultLiquidationRatio"`
	DefaultLiquidationPenalty string `toml:"DefaultLiquidationPenalty"`
	DefaultDebitExchangeRate  string `toml:"DefaultDebitExchangeRate"`
	MinimumDebitValue         string `toml:"MinimumDebitValue"`
	MaxSwapSlippage           string `toml:"MaxSwapSlippage"`
}

type Pauses struct {
	CDP bool `toml:"CDP"`
}

type Config struct {
	DataDir           string             `toml:"DataDir"`
	NetworkName       string             `toml:"NetworkName"`
	UpdateAuthority   string             `toml:"UpdateAuthority"`
	ShutdownAuthority string             `toml:"ShutdownAuthority"`
	CDP               CDPConfig          `toml:"cdp"`
	Collateral        []CollateralConfig `toml:"collateral"`
	Pauses            Pauses             `toml:"pauses"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "halo-local"
	}
	if cfg.Collateral == nil {
		cfg.Collateral = []CollateralConfig{}
	}
	applyCDPDefaults(&cfg.CDP)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCDPDefaults(c *CDPConfig) {
	if strings.TrimSpace(c.StableSymbol) == "" {
		c.StableSymbol = "HUSD"
	}
	if strings.TrimSpace(c.GlobalStabilityFee) == "" {
		c.GlobalStabilityFee = "0"
	}
	if strings.TrimSpace(c.DefaultLiquidationRatio) == "" {
		c.DefaultLiquidationRatio = "1.5"
	}
	if strings.TrimSpace(c.DefaultLiquidationPenalty) == "" {
		c.DefaultLiquidationPenalty = "0.1"
	}
	if strings.TrimSpace(c.DefaultDebitExchangeRate) == "" {
		c.DefaultDebitExchangeRate = "1"
	}
	if strings.TrimSpace(c.MinimumDebitValue) == "" {
		c.MinimumDebitValue = "0"
	}
	if strings.TrimSpace(c.MaxSwapSlippage) == "" {
		c.MaxSwapSlippage = "0.15"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:     "./halo-data",
		NetworkName: "halo-local",
		Collateral:  []CollateralConfig{},
	}
	applyCDPDefaults(&cfg.CDP)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
