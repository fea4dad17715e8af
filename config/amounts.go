package config

import (
	"fmt"
	"math/big"
	"strings"
)

const rayDecimals = 18

// parseDecimalRay converts a decimal string such as "1.5" into a ray scaled
// integer (18 fractional digits). Empty input parses as nil.
func parseDecimalRay(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, fmt.Errorf("negative value %q not allowed", trimmed)
	}
	parts := strings.SplitN(trimmed, ".", 2)
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if len(frac) > rayDecimals {
		return nil, fmt.Errorf("value %q exceeds %d decimal places", trimmed, rayDecimals)
	}
	frac += strings.Repeat("0", rayDecimals-len(frac))
	digits := intPart + frac
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("malformed decimal value %q", trimmed)
		}
	}
	parsed, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("malformed decimal value %q", trimmed)
	}
	return parsed, nil
}

// parseUintAmount converts an integer string in base units into a big integer.
// Empty input parses as nil.
func parseUintAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", trimmed)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q not allowed", trimmed)
	}
	return parsed, nil
}
