package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the credentials file password is prompted at runtime and stored in memory - use GetCredentialsPasswordBytes()
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	ProxyListen string `envconfig:"PROXY_LISTEN" default:":18331"`

	RPCURL             string        `envconfig:"RPC_URL" default:"http://127.0.0.1:18332"`
	RPCUser            string        `envconfig:"RPC_USER"`
	RPCPassword        string        `envconfig:"RPC_PASSWORD"`
	RPCCredentialsFile string        `envconfig:"RPC_CREDENTIALS_FILE"`
	RPCCookieFile      string        `envconfig:"RPC_COOKIE_FILE"` // used when neither RPC_PASSWORD nor RPC_CREDENTIALS_FILE is set
	RPCWallet          string        `envconfig:"RPC_WALLET"`
	RPCTimeout         time.Duration `envconfig:"RPC_TIMEOUT" default:"2s"`
	Network            string        `envconfig:"BITCOIN_NETWORK" default:"testnet3"`

	ProxyRPCAuth        []string `envconfig:"PROXY_RPCAUTH"`
	ProxyAllowedMethods []string `envconfig:"PROXY_ALLOWED_METHODS"`
	ProxyRateLimit      float64  `envconfig:"PROXY_RATE_LIMIT" default:"10"`
	ProxyBurst          int      `envconfig:"PROXY_BURST" default:"20"`

	BlockCacheSize  int    `envconfig:"BLOCK_CACHE_SIZE" default:"256"`
	PayCooldown     int    `envconfig:"PAY_COOLDOWN_MINUTES" default:"1"`
	AddressBookPath string `envconfig:"ADDRESS_BOOK_PATH" default:"addresses.json"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile   string `envconfig:"LOG_FILE"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads the environment into a fresh Config without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Set replaces the global configuration instance (used by CLI flag overrides and tests).
func Set(c *Config) {
	cfg = c
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks values envconfig cannot express with tags.
func (c *Config) Validate() error {
	switch c.Network {
	case "mainnet", "testnet3", "regtest", "signet":
	default:
		return fmt.Errorf("unsupported BITCOIN_NETWORK %q", c.Network)
	}
	if c.RPCTimeout <= 0 {
		return errors.New("RPC_TIMEOUT must be positive")
	}
	if c.ProxyRateLimit < 0 || c.ProxyBurst < 0 {
		return errors.New("PROXY_RATE_LIMIT and PROXY_BURST cannot be negative")
	}
	if c.BlockCacheSize <= 0 {
		return errors.New("BLOCK_CACHE_SIZE must be positive")
	}
	if c.PayCooldown < 0 {
		return errors.New("PAY_COOLDOWN_MINUTES cannot be negative")
	}
	return nil
}

// GetPort returns REST API port from configuration
func GetPort() string {
	return Get().Port
}

// GetProxyListen returns the listen address of the JSON-RPC proxy
func GetProxyListen() string {
	return Get().ProxyListen
}

// GetRPCURL returns the upstream bitcoind RPC URL
func GetRPCURL() string {
	return Get().RPCURL
}

// GetRPCWallet returns the default wallet name (empty means node default)
func GetRPCWallet() string {
	return Get().RPCWallet
}

// GetRPCTimeout returns the per-request RPC timeout
func GetRPCTimeout() time.Duration {
	return Get().RPCTimeout
}

// GetNetwork returns the bitcoin network name
func GetNetwork() string {
	return Get().Network
}

// GetPayCooldown returns cooldown in minutes from configuration
func GetPayCooldown() int {
	return Get().PayCooldown
}

// GetAddressBookPath returns path to the address book file
func GetAddressBookPath() string {
	return Get().AddressBookPath
}

// GetBlockCacheSize returns the number of cached getblock responses
func GetBlockCacheSize() int {
	return Get().BlockCacheSize
}

var passwordBytes []byte

// PromptForPassword prompts the user for the credentials file password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter credentials password: ")
	if err != nil {
		return err
	}
	SetPassword(raw)
	clear(raw)
	return nil
}

// ReadPassword prints prompt to stderr and reads a non-empty password from the
// terminal without echo. Caller must zero the returned slice.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}

// ReadNewPassword asks for a password twice and fails when the entries differ.
func ReadNewPassword() ([]byte, error) {
	password, err := ReadPassword("New password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := ReadPassword("Repeat new password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if !bytes.Equal(password, confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

// SetPassword stores a copy of the credentials file password in memory.
func SetPassword(raw []byte) {
	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
}

// GetCredentialsPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetCredentialsPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
