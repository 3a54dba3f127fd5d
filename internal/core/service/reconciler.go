package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"github.com/paybridge/wechat-bridge/pkg/metrics"
)

const successValue = "SUCCESS"

// ConflictError reports a notification whose outcome contradicts the
// terminal status already recorded for the order. The conflicting effect
// is never invoked.
type ConflictError struct {
	OrderID  string
	Resolved core.OrderStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order %s already resolved as %s", e.OrderID, e.Resolved)
}

// Reconciler turns a raw gateway notification into a validated,
// idempotently applied outcome plus the acknowledgement the gateway's
// retry protocol expects.
//
// State machine per order, terminal once resolved:
//
//	PENDING -> RESOLVED_SUCCESS (result_code SUCCESS accepted)
//	PENDING -> RESOLVED_FAIL    (anything else accepted)
//
// A repeat notification with the same outcome is acknowledged without
// re-invoking the effects; a repeat with the opposite outcome is a
// conflict and invokes nothing.
type Reconciler struct {
	codec    output.CallbackCodec
	orders   output.OrderRepository
	notifier output.OutcomeNotifier
	metrics  *metrics.ReconcilerMetrics
}

// NewReconciler creates a new callback reconciler. Metrics may be nil.
func NewReconciler(
	codec output.CallbackCodec,
	orders output.OrderRepository,
	notifier output.OutcomeNotifier,
	m *metrics.ReconcilerMetrics,
) *Reconciler {
	return &Reconciler{
		codec:    codec,
		orders:   orders,
		notifier: notifier,
		metrics:  m,
	}
}

// Reconcile processes one notification attempt. It returns the encoded
// acknowledgement for an accepted SUCCESS outcome, a nil body for an
// accepted FAIL outcome, and an error when the notification is rejected
// (decode failure, bad signature, outcome conflict).
func (r *Reconciler) Reconcile(raw []byte) ([]byte, error) {
	payload, err := r.codec.DecodeNotification(raw)
	if err != nil {
		return nil, err
	}

	outcome := core.OutcomeFail
	if strings.EqualFold(payload.ReturnStatus, successValue) {
		outcome = core.OutcomeSuccess
	}
	orderID := payload.MerchantOrderID

	invoke := true
	result, err := r.orders.Resolve(orderID, outcome.Status())
	switch {
	case errors.Is(err, output.ErrOrderNotFound):
		// No local record (order created out of band): reconcile
		// statelessly; the push is keyed by order id regardless.
		log.Printf("No order record for %s; reconciling without state", orderID)
	case err != nil:
		return nil, fmt.Errorf("resolve order %s: %w", orderID, err)
	case !result.Applied && result.Prior == outcome.Status():
		// Duplicate delivery of the same terminal outcome: acknowledge
		// again, skip the effects.
		log.Printf("Duplicate %s notification for order %s", outcome, orderID)
		if r.metrics != nil {
			r.metrics.Duplicates.Inc()
		}
		invoke = false
	case !result.Applied:
		if r.metrics != nil {
			r.metrics.Conflicts.Inc()
		}
		return nil, &ConflictError{OrderID: orderID, Resolved: result.Prior}
	}

	if invoke {
		var effectErr error
		if outcome == core.OutcomeSuccess {
			effectErr = r.notifier.PaySuccess(orderID)
		} else {
			effectErr = r.notifier.PayFail(orderID)
		}
		if effectErr != nil {
			// The transition is recorded; a secondary sink failure
			// must not make the gateway re-drive the effects.
			log.Printf("Outcome notifier error for order %s: %v", orderID, effectErr)
		}
	}

	if outcome != core.OutcomeSuccess {
		return nil, nil
	}
	return r.codec.EncodeAck(&core.CallbackAck{
		ReturnCode: successValue,
		ReturnMsg:  "OK",
		AppID:      payload.AppID,
		MerchantID: payload.MerchantID,
	})
}
