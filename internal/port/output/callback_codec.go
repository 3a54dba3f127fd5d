package output

import (
	"errors"
	"fmt"

	"github.com/paybridge/wechat-bridge/internal/core"
)

// ErrBadSignature is returned when a notification's signature does not
// verify against the shared API key. No effect may be invoked for it.
var ErrBadSignature = errors.New("callback signature mismatch")

// DecodeError is a typed failure to decode an inbound notification.
// The notification is rejected: no acknowledgement, no effect.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode notification: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode notification: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CallbackCodec is an output port (secondary port) for the gateway's
// notification wire dialect.
// Secondary adapters (gateway protocol codecs) will implement this.
type CallbackCodec interface {
	// DecodeNotification parses and authenticates a raw notification
	// body. Returns *DecodeError for malformed or incomplete payloads
	// and ErrBadSignature when authentication fails.
	DecodeNotification(raw []byte) (*core.CallbackPayload, error)

	// EncodeAck renders the acknowledgement the gateway's retry
	// protocol expects for an accepted SUCCESS notification.
	EncodeAck(ack *core.CallbackAck) ([]byte, error)
}
