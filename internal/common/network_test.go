package common

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

const (
	testnetP2WPKH = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	mainnetP2WPKH = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
)

func TestNetParams(t *testing.T) {
	p, err := NetParams("testnet3")
	require.NoError(t, err)
	require.Equal(t, &chaincfg.TestNet3Params, p)

	_, err = NetParams("testnet4")
	require.Error(t, err)
}

func TestValidateAddress(t *testing.T) {
	addr, err := ValidateAddress(testnetP2WPKH, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Equal(t, testnetP2WPKH, addr.EncodeAddress())

	_, err = ValidateAddress(mainnetP2WPKH, &chaincfg.TestNet3Params)
	require.Error(t, err)

	_, err = ValidateAddress("not-an-address", &chaincfg.TestNet3Params)
	require.Error(t, err)
}
