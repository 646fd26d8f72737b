package model

// PayRequest represents request for POST /bitcoin/pay
type PayRequest struct {
	Wallet    string `json:"wallet"`
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"` // BTC, up to 8 decimals
}

// PayResponse represents response for POST /bitcoin/pay
type PayResponse struct {
	TxID     string `json:"txId"`
	Fee      string `json:"fee"`
	Explorer string `json:"explorer,omitempty"`
}
