package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	scryptCost = 1 << 10
	os.Exit(m.Run())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.cwt")
	in := &model.CredentialsData{User: "root", Password: "hellohello", CreatedAt: "2026-10-18T00:00:00Z"}

	require.NoError(t, EncryptCredentials(path, "testnet3", "http://146.190.33.39:18331", in, []byte("pw")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	file, out, err := DecryptCredentials(path, []byte("pw"))
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Equal(t, "testnet3", file.Network)

	endpoint, err := ReadEndpoint(path)
	require.NoError(t, err)
	require.Equal(t, "http://146.190.33.39:18331", endpoint)
}

func TestDecryptWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.cwt")
	require.NoError(t, EncryptCredentials(path, "testnet3", "", &model.CredentialsData{User: "u"}, []byte("right")))

	_, _, err := DecryptCredentials(path, []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestEncryptRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.cwt")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	err := EncryptCredentials(path, "testnet3", "", &model.CredentialsData{}, []byte("pw"))
	require.True(t, errors.Is(err, ErrFileExists))
}

func TestEncryptRequiresExtension(t *testing.T) {
	err := EncryptCredentials(filepath.Join(t.TempDir(), "node.json"), "testnet3", "", &model.CredentialsData{}, []byte("pw"))
	require.Error(t, err)
}

func TestReadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadEndpoint(filepath.Join(dir, "missing.cwt"))
	require.EqualError(t, err, "file does not exist")

	empty := filepath.Join(dir, "empty.cwt")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = ReadEndpoint(empty)
	require.EqualError(t, err, "file is empty")
}

func TestStripBOM(t *testing.T) {
	require.Equal(t, []byte("{}"), StripBOM([]byte{0xEF, 0xBB, 0xBF, '{', '}'}))
	require.Equal(t, []byte("{}"), StripBOM([]byte("{}")))
}

func TestReencryptCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.cwt")
	in := &model.CredentialsData{User: "root", Password: "hellohello", CreatedAt: "2026-10-18T00:00:00Z"}
	require.NoError(t, EncryptCredentials(path, "testnet3", "http://127.0.0.1:18332", in, []byte("old")))

	before, _, err := DecryptCredentials(path, []byte("old"))
	require.NoError(t, err)

	require.ErrorIs(t, ReencryptCredentials(path, []byte("wrong"), []byte("new")), ErrInvalidPassword)
	require.NoError(t, ReencryptCredentials(path, []byte("old"), []byte("new")))

	_, _, err = DecryptCredentials(path, []byte("old"))
	require.ErrorIs(t, err, ErrInvalidPassword)

	after, out, err := DecryptCredentials(path, []byte("new"))
	require.NoError(t, err)
	require.Equal(t, "root", out.User)
	require.Equal(t, "hellohello", out.Password)
	require.Equal(t, before.Endpoint, after.Endpoint)
	require.NotEqual(t, before.Salt, after.Salt)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "node.*.cwt"))
	require.NoError(t, err)
	require.Empty(t, matches)
}
