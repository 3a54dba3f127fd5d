package core

// CallbackPayload is a decoded gateway result notification.
// It exists only for the duration of one reconciliation.
type CallbackPayload struct {
	// ReturnStatus is the gateway's result_code field; "SUCCESS"
	// (case-insensitive) means the payment completed.
	ReturnStatus string
	// MerchantOrderID is the merchant-assigned order id (out_trade_no).
	MerchantOrderID string
	AppID           string
	MerchantID      string
	// Fields holds the full decoded field map, including
	// gateway-specific fields irrelevant to reconciliation.
	Fields map[string]string
}

// CallbackAck is the acknowledgement the gateway expects for an accepted
// SUCCESS notification. All four fields must be populated.
type CallbackAck struct {
	ReturnCode string
	ReturnMsg  string
	AppID      string
	MerchantID string
}
