package model

// StatusResponse represents response for GET /bitcoin/status
type StatusResponse struct {
	Chain                string      `json:"chain"`
	Blocks               int32       `json:"blocks"`
	Headers              int32       `json:"headers"`
	BestBlockHash        string      `json:"bestblockhash"`
	VerificationProgress float64     `json:"verificationprogress"`
	Synced               bool        `json:"synced"`
	Wallet               *WalletInfo `json:"wallet,omitempty"`
}

// HealthResponse represents response for GET /health and GET /ready
type HealthResponse struct {
	Status string `json:"status"`
	Blocks *int64 `json:"blocks,omitempty"`
}
