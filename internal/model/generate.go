package model

// NewAddressRequest represents request for POST /bitcoin/address/new
type NewAddressRequest struct {
	Wallet string `json:"wallet"`
	Label  string `json:"label"`
	Type   string `json:"type"` // legacy, p2sh-segwit, bech32, bech32m
}

// NewAddressResponse represents response for POST /bitcoin/address/new
type NewAddressResponse struct {
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
	Wallet  string `json:"wallet,omitempty"`
	QR      string `json:"QR"` // base64 PNG
}
