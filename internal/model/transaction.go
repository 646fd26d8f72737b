package model

// TxRequest represents request for POST /bitcoin/tx/{fund,sign,send}
type TxRequest struct {
	Wallet string `json:"wallet"`
	Hex    string `json:"hex"`
}

// FundResponse represents response for POST /bitcoin/tx/fund
type FundResponse struct {
	Hex       string `json:"hex"`
	Fee       string `json:"fee"`
	ChangePos int    `json:"changepos"`
}

// SignResponse represents response for POST /bitcoin/tx/sign
type SignResponse struct {
	Hex      string `json:"hex"`
	Complete bool   `json:"complete"`
}

// SendResponse represents response for POST /bitcoin/tx/send
type SendResponse struct {
	TxID     string `json:"txId"`
	Explorer string `json:"explorer,omitempty"`
}
