package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/btc-node-gateway/internal/model"
)

// ErrInvalidPassword is returned when the GCM tag does not verify.
var ErrInvalidPassword = errors.New("invalid password")

// DecryptCredentials reads and decrypts a .cwt credentials file
// password must be []byte for security (caller should zero it after use)
func DecryptCredentials(filePath string, password []byte) (*model.CredentialsFile, *model.CredentialsData, error) {
	credFile, err := readCredentialsFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(credFile.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(credFile.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(credFile.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var data model.CredentialsData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return credFile, &data, nil
}

// ReadEndpoint reads only the endpoint from a .cwt file (without decryption)
func ReadEndpoint(filePath string) (string, error) {
	credFile, err := readCredentialsFile(filePath)
	if err != nil {
		return "", err
	}
	return credFile.Endpoint, nil
}

func readCredentialsFile(filePath string) (*model.CredentialsFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var credFile model.CredentialsFile
	if err := json.Unmarshal(StripBOM(fileData), &credFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials file: %w", err)
	}

	return &credFile, nil
}

// StripBOM drops a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
