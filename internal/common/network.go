package common

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// NetParams maps a network name (as used by BITCOIN_NETWORK) to chain parameters.
func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil
	case chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

// ValidateAddress decodes address and checks that it belongs to params.
func ValidateAddress(address string, params *chaincfg.Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("invalid bitcoin address: %w", err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("address %s is not for %s", address, params.Name)
	}
	return addr, nil
}
