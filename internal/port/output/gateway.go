package output

import (
	"context"
	"fmt"

	"github.com/paybridge/wechat-bridge/internal/core"
)

// GatewayErrorKind classifies a failed gateway call
type GatewayErrorKind string

const (
	// GatewayErrorNetwork covers transport failures (dial, timeout, read)
	GatewayErrorNetwork GatewayErrorKind = "NETWORK"
	// GatewayErrorMalformed covers responses the client cannot decode or
	// whose signature does not verify
	GatewayErrorMalformed GatewayErrorKind = "MALFORMED_RESPONSE"
	// GatewayErrorRejected covers orders the gateway refused
	GatewayErrorRejected GatewayErrorKind = "REJECTED"
)

// GatewayError is a typed failure of the remote order-creation call.
// It propagates to the order initiation caller and is never retried here.
type GatewayError struct {
	Kind GatewayErrorKind
	Code string
	Msg  string
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s [%s]: %s", e.Kind, e.Code, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Msg)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// OrderHandle is the correlation handle returned by a successful
// order-creation call. CodeURL is renderable as a payment QR code.
type OrderHandle struct {
	CodeURL  string
	PrepayID string
}

// GatewayClient is an output port (secondary port) for the external
// payment gateway's order-creation call.
// Secondary adapters (gateway protocol clients) will implement this.
type GatewayClient interface {
	// CreateOrder sends the order to the gateway and returns its
	// correlation handle, or a *GatewayError. It performs no local
	// retry and never touches the session registry.
	CreateOrder(ctx context.Context, order *core.Order) (*OrderHandle, error)
}
