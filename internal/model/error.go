package model

// ErrorResponse is the JSON body of every API error.
// RPCCode carries the bitcoind error code when the node rejected the call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	RPCCode int    `json:"rpcCode,omitempty"`
}
