package crypto

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReencryptCredentials decrypts filePath with oldPassword and rewrites it under
// newPassword with a fresh salt and nonce. The file is replaced atomically.
func ReencryptCredentials(filePath string, oldPassword, newPassword []byte) error {
	credFile, data, err := DecryptCredentials(filePath, oldPassword)
	if err != nil {
		return err
	}

	// temp file in the same directory keeps the rename on one filesystem
	base := strings.TrimSuffix(filepath.Base(filePath), ".cwt")
	tmp, err := os.CreateTemp(filepath.Dir(filePath), base+".*.cwt")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := EncryptCredentials(tmpPath, credFile.Network, credFile.Endpoint, data, newPassword); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
