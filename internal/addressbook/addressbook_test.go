package addressbook

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

const (
	testnetAddr = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	mainnetAddr = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
)

// legacyAddr is the testnet P2PKH address of an all-zero hash.
var legacyAddr = func() string {
	addr, err := btcutil.NewAddressPubKeyHash(make([]byte, 20), &chaincfg.TestNet3Params)
	if err != nil {
		panic(err)
	}
	return addr.EncodeAddress()
}()

func TestOpenMissingFile(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)
	require.Empty(t, b.List(""))
}

func TestOpenWithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	content := "\xEF\xBB\xBF" + `[{"address":"` + testnetAddr + `","network":"testnet3","createdAt":"2024-01-02T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	b, err := Open(path)
	require.NoError(t, err)
	entries := b.List("testnet3")
	require.Len(t, entries, 1)
	require.Equal(t, testnetAddr, entries[0].Address)
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Open(path)
	require.Error(t, err)
}

func TestAddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book", "addresses.json")
	b, err := Open(path)
	require.NoError(t, err)

	e, err := b.Add(Entry{Address: testnetAddr, Label: "savings", Wallet: "main", Network: "testnet3"})
	require.NoError(t, err)
	require.False(t, e.CreatedAt.IsZero())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := Open(path)
	require.NoError(t, err)
	entries := reopened.List("")
	require.Len(t, entries, 1)
	require.Equal(t, "savings", entries[0].Label)
	require.Equal(t, "main", entries[0].Wallet)
}

func TestAddRejects(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)

	_, err = b.Add(Entry{Address: testnetAddr, Network: "testnet3"})
	require.NoError(t, err)

	_, err = b.Add(Entry{Address: testnetAddr, Network: "testnet3"})
	require.ErrorIs(t, err, ErrDuplicateAddress)

	_, err = b.Add(Entry{Address: mainnetAddr, Network: "testnet3"})
	require.Error(t, err)

	_, err = b.Add(Entry{Address: "not-an-address", Network: "testnet3"})
	require.Error(t, err)

	_, err = b.Add(Entry{Address: testnetAddr, Network: "moonnet"})
	require.Error(t, err)
}

func TestListFiltersAndSorts(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = b.Add(Entry{Address: legacyAddr, Network: "testnet3", CreatedAt: now})
	require.NoError(t, err)
	_, err = b.Add(Entry{Address: mainnetAddr, Network: "mainnet", CreatedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = b.Add(Entry{Address: testnetAddr, Network: "testnet3", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	testnet := b.List("testnet3")
	require.Len(t, testnet, 2)
	require.Equal(t, testnetAddr, testnet[0].Address)
	require.Equal(t, legacyAddr, testnet[1].Address)

	all := b.List("")
	require.Len(t, all, 3)
	require.Equal(t, mainnetAddr, all[0].Address)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	b, err := Open(path)
	require.NoError(t, err)

	_, err = b.Add(Entry{Address: testnetAddr, Network: "testnet3"})
	require.NoError(t, err)

	require.NoError(t, b.Remove(testnetAddr))
	require.ErrorIs(t, b.Remove(testnetAddr), ErrNotFound)

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Empty(t, reopened.List(""))
}

func TestRemoveUpperCaseBech32(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)

	_, err = b.Add(Entry{Address: testnetAddr, Network: "testnet3"})
	require.NoError(t, err)

	require.NoError(t, b.Remove(strings.ToUpper(testnetAddr)))
	require.Empty(t, b.List(""))
	require.ErrorIs(t, b.Remove(strings.ToUpper(testnetAddr)), ErrNotFound)
}

func TestConcurrentAdd(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Add(Entry{Address: testnetAddr, Network: "testnet3"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, ErrDuplicateAddress)
		}
	}
	require.Equal(t, 1, ok)
	require.Len(t, b.List(""), 1)
}
