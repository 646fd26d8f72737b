package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the credentials file.
	// N=2^18 (~256MB RAM, 0.5-2s per derivation); the file is decrypted once at startup.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// scryptCost is a variable so tests can lower it.
var scryptCost = scryptN

// ErrFileExists is returned when the target credentials file already has content.
var ErrFileExists = errors.New("credentials file is not empty")

// EncryptCredentials encrypts RPC credentials and writes them to a .cwt file.
// password must be []byte for security (caller should zero it after use)
func EncryptCredentials(filePath string, network, endpoint string, data *model.CredentialsData, password []byte) error {
	// Check file extension (should be .cwt)
	if !strings.HasSuffix(filePath, ".cwt") {
		return errors.New("file must have .cwt extension")
	}
	if len(password) == 0 {
		return errors.New("password cannot be empty")
	}

	// An existing empty file may be reused, anything else is refused
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("%w: %s", ErrFileExists, filePath)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	credFile := model.CredentialsFile{
		Network:    network,
		Endpoint:   endpoint,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(credFile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	// UTF-8 BOM for proper display in Windows editors
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptCost, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
