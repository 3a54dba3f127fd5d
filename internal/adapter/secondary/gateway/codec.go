package gateway

import (
	"fmt"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

// NotificationCodec is a secondary adapter that implements the
// CallbackCodec output port for the gateway's XML notification dialect
type NotificationCodec struct {
	apiKey string
}

// NewNotificationCodec creates a codec bound to the shared API key
func NewNotificationCodec(apiKey string) *NotificationCodec {
	return &NotificationCodec{apiKey: apiKey}
}

// DecodeNotification parses a raw notification body, checks the fields
// reconciliation depends on, and verifies the signature before anything
// may act on the payload.
func (c *NotificationCodec) DecodeNotification(raw []byte) (*core.CallbackPayload, error) {
	fields, err := DecodeMap(raw)
	if err != nil {
		return nil, &output.DecodeError{Reason: "malformed notification", Err: err}
	}
	for _, required := range []string{"result_code", "out_trade_no", "appid", "mch_id"} {
		if fields[required] == "" {
			return nil, &output.DecodeError{Reason: fmt.Sprintf("missing field %s", required)}
		}
	}
	if !VerifySign(fields, c.apiKey) {
		return nil, output.ErrBadSignature
	}
	return &core.CallbackPayload{
		ReturnStatus:    fields["result_code"],
		MerchantOrderID: fields["out_trade_no"],
		AppID:           fields["appid"],
		MerchantID:      fields["mch_id"],
		Fields:          fields,
	}, nil
}

// EncodeAck renders the four-field acknowledgement document
func (c *NotificationCodec) EncodeAck(ack *core.CallbackAck) ([]byte, error) {
	return EncodeMap(map[string]string{
		"return_code": ack.ReturnCode,
		"return_msg":  ack.ReturnMsg,
		"appid":       ack.AppID,
		"mch_id":      ack.MerchantID,
	}), nil
}
