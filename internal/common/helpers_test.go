package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatoshisToBTC(t *testing.T) {
	require.Equal(t, "0.00000001", SatoshisToBTC(1))
	require.Equal(t, "0.24981836", SatoshisToBTC(24981836))
	require.Equal(t, "50.00000000", SatoshisToBTC(5_000_000_000))
	require.Equal(t, "-0.00010000", SatoshisToBTC(-10_000))
}

func TestBTCToSatoshis(t *testing.T) {
	cases := map[string]int64{
		"1":          100_000_000,
		"0.5":        50_000_000,
		".001":       100_000,
		"0.00000001": 1,
		" 2.1 ":      210_000_000,
	}
	for in, want := range cases {
		got, err := BTCToSatoshis(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestBTCToSatoshisRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0", "0.000000001", "1.2.3", "21000001"} {
		_, err := BTCToSatoshis(in)
		require.Error(t, err, in)
	}
}

func TestExplorerTxURL(t *testing.T) {
	require.Equal(t, "https://blockstream.info/testnet/tx/ab", ExplorerTxURL("testnet3", "ab"))
	require.Equal(t, "https://blockstream.info/tx/ab", ExplorerTxURL("mainnet", "ab"))
	require.Empty(t, ExplorerTxURL("regtest", "ab"))
}
