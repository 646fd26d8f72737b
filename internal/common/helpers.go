package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	BTCDecimals = 8 // 1 BTC = 10^8 satoshis

	// MaxSatoshis is the total supply cap; no valid amount exceeds it.
	MaxSatoshis = 21_000_000 * 100_000_000
)

// SatoshisToBTC converts satoshis to BTC string without float precision loss
func SatoshisToBTC(sats int64) string {
	if sats < 0 {
		return "-" + formatWithDecimals(uint64(-sats), BTCDecimals)
	}
	return formatWithDecimals(uint64(sats), BTCDecimals)
}

// BTCToSatoshis converts BTC decimal string to satoshis without float precision loss.
// More than 8 fractional digits is an error, not a silent truncation.
func BTCToSatoshis(btc string) (int64, error) {
	v, err := parseWithDecimals(btc, BTCDecimals)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("amount must be positive")
	}
	if v > MaxSatoshis {
		return 0, fmt.Errorf("amount %s exceeds 21M BTC", btc)
	}
	return int64(v), nil
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 8) = "0.24981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.24981836", 8) = 24981836
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty string")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	parts := strings.Split(s, ".")

	if len(parts) == 1 {
		n, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		for i := 0; i < decimals; i++ {
			if n > (1<<64-1)/10 {
				return 0, fmt.Errorf("amount %q out of range", s)
			}
			n *= 10
		}
		return n, nil
	}

	if len(parts) != 2 {
		return 0, errors.New("invalid decimal format")
	}

	whole := parts[0]
	frac := parts[1]
	if whole == "" {
		whole = "0"
	}

	if len(frac) > decimals {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	return strconv.ParseUint(whole+frac, 10, 64)
}

// ExplorerTxURL returns a block explorer link for txid, or "" for networks without a public explorer.
func ExplorerTxURL(network, txid string) string {
	switch network {
	case "testnet3":
		return "https://blockstream.info/testnet/tx/" + txid
	case "mainnet":
		return "https://blockstream.info/tx/" + txid
	default:
		return ""
	}
}
