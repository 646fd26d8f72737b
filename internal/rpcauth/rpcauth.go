// Package rpcauth creates and checks bitcoin.conf rpcauth lines
// ("user:salt$hmac", HMAC-SHA256 keyed by the salt over the password).
package rpcauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const saltLen = 16

var ErrMalformed = errors.New("malformed rpcauth entry")

// Entry is one parsed rpcauth line.
type Entry struct {
	User string
	Salt string
	HMAC string
}

// String renders the entry the way bitcoin.conf expects it after "rpcauth=".
func (e Entry) String() string {
	return e.User + ":" + e.Salt + "$" + e.HMAC
}

// Verify reports whether password matches the entry.
func (e Entry) Verify(password string) bool {
	want, err := hex.DecodeString(e.HMAC)
	if err != nil {
		return false
	}
	return hmac.Equal(want, sum(e.Salt, password))
}

// Generate builds an entry for user with a fresh random salt.
func Generate(user, password string) (Entry, error) {
	if user == "" || strings.Contains(user, ":") {
		return Entry{}, fmt.Errorf("invalid rpc user %q", user)
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return Entry{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	s := hex.EncodeToString(salt)
	return Entry{User: user, Salt: s, HMAC: hex.EncodeToString(sum(s, password))}, nil
}

// Parse reads "user:salt$hmac". A leading "rpcauth=" is tolerated.
func Parse(line string) (Entry, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "rpcauth=")
	user, rest, ok := strings.Cut(line, ":")
	if !ok || user == "" {
		return Entry{}, ErrMalformed
	}
	salt, mac, ok := strings.Cut(rest, "$")
	if !ok || salt == "" || mac == "" {
		return Entry{}, ErrMalformed
	}
	if _, err := hex.DecodeString(mac); err != nil {
		return Entry{}, fmt.Errorf("%w: hmac is not hex", ErrMalformed)
	}
	return Entry{User: user, Salt: salt, HMAC: mac}, nil
}

// ParseAll parses every non-empty line, failing on the first bad one.
func ParseAll(lines []string) ([]Entry, error) {
	out := make([]Entry, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		e, err := Parse(l)
		if err != nil {
			return nil, fmt.Errorf("rpcauth %q: %w", l, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// RandomPassword returns 32 random bytes as url-safe base64.
func RandomPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Authenticator checks basic-auth credentials against a set of entries.
type Authenticator struct {
	byUser map[string][]Entry
}

// NewAuthenticator indexes entries by user; a user may appear more than once.
func NewAuthenticator(entries []Entry) *Authenticator {
	a := &Authenticator{byUser: make(map[string][]Entry, len(entries))}
	for _, e := range entries {
		a.byUser[e.User] = append(a.byUser[e.User], e)
	}
	return a
}

// Enabled is false when no entries are configured.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.byUser) > 0
}

// Check reports whether user/password match any entry.
func (a *Authenticator) Check(user, password string) bool {
	if a == nil {
		return false
	}
	for _, e := range a.byUser[user] {
		if e.Verify(password) {
			return true
		}
	}
	return false
}

func sum(salt, password string) []byte {
	m := hmac.New(sha256.New, []byte(salt))
	m.Write([]byte(password))
	return m.Sum(nil)
}
