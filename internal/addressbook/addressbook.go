// Package addressbook keeps the receiving addresses the gateway handed out,
// together with the wallet and network they belong to.
package addressbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/crypto"
)

var (
	// ErrDuplicateAddress is returned by Add when the address is already recorded.
	ErrDuplicateAddress = errors.New("address already recorded")

	// ErrNotFound is returned by Remove for unknown addresses.
	ErrNotFound = errors.New("address not found")
)

// Entry is one recorded address.
type Entry struct {
	Address   string    `json:"address"`
	Label     string    `json:"label,omitempty"`
	Wallet    string    `json:"wallet,omitempty"`
	Network   string    `json:"network"`
	CreatedAt time.Time `json:"createdAt"`
}

// Book is a JSON file backed address book. Safe for concurrent use.
type Book struct {
	path string

	mu      sync.Mutex
	entries []Entry
}

// Open loads the book stored at path. A missing file is an empty book.
func Open(path string) (*Book, error) {
	if path == "" {
		return nil, errors.New("address book path is required")
	}
	b := &Book{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read address book: %w", err)
	}

	data = crypto.StripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(data, &b.entries); err != nil {
		return nil, fmt.Errorf("failed to parse address book %s: %w", path, err)
	}
	return b, nil
}

// Path returns the backing file.
func (b *Book) Path() string {
	return b.path
}

// Add validates e.Address against e.Network and records it.
func (b *Book) Add(e Entry) (Entry, error) {
	params, err := common.NetParams(e.Network)
	if err != nil {
		return Entry{}, err
	}
	addr, err := common.ValidateAddress(e.Address, params)
	if err != nil {
		return Entry{}, err
	}
	e.Address = addr.EncodeAddress()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.entries {
		if existing.Address == e.Address {
			return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateAddress, e.Address)
		}
	}

	entries := append(b.entries[:len(b.entries):len(b.entries)], e)
	if err := save(b.path, entries); err != nil {
		return Entry{}, err
	}
	b.entries = entries
	return e, nil
}

// List returns the entries of network ("" for all) ordered by creation time.
func (b *Book) List(network string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if network == "" || e.Network == network {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove deletes address from the book. The address is matched in the
// encoding Add stored, so an upper-case bech32 address finds its entry.
func (b *Book) Remove(address string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, e := range b.entries {
		if e.Address == address || e.Address == canonical(address, e.Network) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	entries := make([]Entry, 0, len(b.entries)-1)
	entries = append(entries, b.entries[:idx]...)
	entries = append(entries, b.entries[idx+1:]...)
	if err := save(b.path, entries); err != nil {
		return err
	}
	b.entries = entries
	return nil
}

// canonical returns address as Add would store it for network, or "" when it
// does not decode there.
func canonical(address, network string) string {
	params, err := common.NetParams(network)
	if err != nil {
		return ""
	}
	addr, err := common.ValidateAddress(address, params)
	if err != nil {
		return ""
	}
	return addr.EncodeAddress()
}

// save writes entries to a temp file next to path and renames it into place.
func save(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal address book: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write address book: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write address book: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace address book: %w", err)
	}
	return nil
}
