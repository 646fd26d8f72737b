package main

import (
	"testing"

	"github.com/AlexZinkM/btc-node-gateway/internal/config"

	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params := parseParams([]string{"0000abc", "2", "true", `{"a":1}`, "tips"})
	got := make([]string, len(params))
	for i, p := range params {
		got[i] = string(p)
	}
	require.Equal(t, []string{`"0000abc"`, `2`, `true`, `{"a":1}`, `"tips"`}, got)
	require.Empty(t, parseParams(nil))
}

func TestParseBlockRef(t *testing.T) {
	const hash = "000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"

	h, height, err := parseBlockRef(hash)
	require.NoError(t, err)
	require.Equal(t, hash, h)
	require.Zero(t, height)

	h, height, err = parseBlockRef("2542000")
	require.NoError(t, err)
	require.Empty(t, h)
	require.EqualValues(t, 2542000, height)

	for _, bad := range []string{"-1", "abc", "zz" + hash[2:]} {
		_, _, err := parseBlockRef(bad)
		require.Error(t, err, bad)
	}
}

func TestUpstreamBaseAndWallet(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:18332", upstreamBase("http://127.0.0.1:18332/"))
	require.Equal(t, "http://127.0.0.1:18332", upstreamBase("http://127.0.0.1:18332/wallet/main"))

	require.Equal(t, "main", selectedWallet(&config.Config{RPCURL: "http://127.0.0.1:18332/wallet/main"}))
	require.Equal(t, "other", selectedWallet(&config.Config{RPCURL: "http://127.0.0.1:18332/wallet/main", RPCWallet: "other"}))
	require.Empty(t, selectedWallet(&config.Config{RPCURL: "http://127.0.0.1:18332"}))
}

func TestIndent(t *testing.T) {
	require.Equal(t, "{\n  \"result\": 1\n}", indent([]byte(`{"result":1}`+"\n")))
	require.Equal(t, "not json", indent([]byte("not json")))
}
