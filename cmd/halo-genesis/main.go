package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"halochain/config"
	"halochain/core/state"
	"halochain/crypto"
	"halochain/native/cdp"
	"halochain/observability/logging"
	"halochain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HALO_ENV"))
	logger := logging.Setup("halo-genesis", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	params, err := cfg.ProtocolParams()
	if err != nil {
		logger.Error("Failed to parse protocol parameters", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)

	if err := manager.RegisterToken(params.StableSymbol, params.StableSymbol, 18); err != nil {
		logger.Error("Failed to register stable token", slog.Any("error", err))
		os.Exit(1)
	}
	for _, col := range cfg.Collateral {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			name = col.Symbol
		}
		if err := manager.RegisterToken(col.Symbol, name, col.Decimals); err != nil {
			logger.Error("Failed to register collateral token",
				slog.String("symbol", col.Symbol), slog.Any("error", err))
			os.Exit(1)
		}
	}

	vault := crypto.ModuleAddress(crypto.VaultPrefix, "cdp/vault")
	engine := cdp.NewEngine(vault, params)
	engine.SetState(manager)
	engine.SetLogger(logger)

	for _, col := range cfg.Collateral {
		risk, err := col.RiskParams()
		if err != nil {
			logger.Error("Failed to parse collateral risk parameters",
				slog.String("symbol", col.Symbol), slog.Any("error", err))
			os.Exit(1)
		}
		if err := engine.SeedCollateralParams(strings.ToUpper(strings.TrimSpace(col.Symbol)), risk); err != nil {
			logger.Error("Failed to seed collateral risk parameters",
				slog.String("symbol", col.Symbol), slog.Any("error", err))
			os.Exit(1)
		}
	}

	if err := manager.SetPaused("cdp", cfg.Pauses.CDP); err != nil {
		logger.Error("Failed to store pause flags", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Genesis state written",
		slog.String("dataDir", cfg.DataDir),
		slog.String("network", cfg.NetworkName),
		slog.String("stable", params.StableSymbol),
		slog.Int("collaterals", len(cfg.Collateral)),
		slog.String("vault", vault.String()),
	)
}
