package model

// CredentialsFile represents the encrypted .cwt credentials file structure
type CredentialsFile struct {
	Network    string `json:"network"`
	Endpoint   string `json:"endpoint"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// CredentialsData represents decrypted RPC credentials
type CredentialsData struct {
	User      string `json:"user"`
	Password  string `json:"password"`
	CreatedAt string `json:"createdAt"`
}

// WalletInfo is the subset of the getwalletinfo result the gateway exposes
type WalletInfo struct {
	WalletName            string   `json:"walletname"`
	WalletVersion         int      `json:"walletversion"`
	Format                string   `json:"format,omitempty"`
	Balance               float64  `json:"balance"`
	UnconfirmedBalance    float64  `json:"unconfirmed_balance"`
	ImmatureBalance       float64  `json:"immature_balance"`
	TxCount               int      `json:"txcount"`
	KeyPoolSize           int      `json:"keypoolsize"`
	KeyPoolSizeHDInternal int      `json:"keypoolsize_hd_internal,omitempty"`
	UnlockedUntil         *int64   `json:"unlocked_until,omitempty"`
	PayTxFee              float64  `json:"paytxfee"`
	PrivateKeysEnabled    bool     `json:"private_keys_enabled"`
	AvoidReuse            bool     `json:"avoid_reuse"`
	Descriptors           bool     `json:"descriptors"`
	ExternalSigner        bool     `json:"external_signer,omitempty"`
	Scanning              any      `json:"scanning,omitempty"`
	LastProcessedBlock    *BlockID `json:"lastprocessedblock,omitempty"`
}

// BlockID identifies a block by hash and height
type BlockID struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
}

// CreateWalletRequest represents request for POST /bitcoin/wallet/create
type CreateWalletRequest struct {
	Name               string `json:"name"`
	DisablePrivateKeys bool   `json:"disablePrivateKeys"`
	Blank              bool   `json:"blank"`
	Passphrase         string `json:"passphrase,omitempty"`
	AvoidReuse         bool   `json:"avoidReuse"`
	Descriptors        *bool  `json:"descriptors,omitempty"`
}

// LoadWalletRequest represents request for POST /bitcoin/wallet/load
type LoadWalletRequest struct {
	Name string `json:"name"`
}

// WalletResponse represents response for wallet create/load
type WalletResponse struct {
	Name    string `json:"name"`
	Warning string `json:"warning,omitempty"`
}
