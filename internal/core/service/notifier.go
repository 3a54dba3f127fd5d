package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/core/session"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"github.com/paybridge/wechat-bridge/pkg/metrics"
)

// PushNotifier realizes the OutcomeNotifier effects as pushes through the
// session registry. The registry keys every push by order id, so each
// order carries its own delivery binding; nothing here is shared mutable
// state across orders.
//
// A missing or disconnected waiter is recovered locally: logged, counted,
// and reported as success to the reconciler, since the notification
// sender must never be failed for it.
type PushNotifier struct {
	registry *session.Registry
	metrics  *metrics.ReconcilerMetrics
}

// NewPushNotifier creates a registry-backed outcome notifier.
// Metrics may be nil.
func NewPushNotifier(registry *session.Registry, m *metrics.ReconcilerMetrics) *PushNotifier {
	return &PushNotifier{registry: registry, metrics: m}
}

// PaySuccess pushes the success outcome to the order's waiter
func (n *PushNotifier) PaySuccess(orderID string) error {
	return n.push(orderID, core.OutcomeSuccess)
}

// PayFail pushes the failure outcome to the order's waiter
func (n *PushNotifier) PayFail(orderID string) error {
	return n.push(orderID, core.OutcomeFail)
}

func (n *PushNotifier) push(orderID string, outcome core.Outcome) error {
	err := n.registry.Push(orderID, string(outcome))
	switch {
	case errors.Is(err, session.ErrNoWaiter):
		log.Printf("No waiter for order %s; outcome %s dropped", orderID, outcome)
		if n.metrics != nil {
			n.metrics.DeliveryMisses.Inc()
		}
		return nil
	case errors.Is(err, session.ErrSinkClosed):
		log.Printf("Stale sink for order %s; outcome %s not delivered", orderID, outcome)
		if n.metrics != nil {
			n.metrics.StaleSinks.Inc()
		}
		return nil
	case err != nil:
		return fmt.Errorf("push outcome for order %s: %w", orderID, err)
	}
	if n.metrics != nil {
		n.metrics.Deliveries.WithLabelValues(string(outcome)).Inc()
	}
	return nil
}

// MultiNotifier fans an effect out to several sinks (e.g. a registry push
// plus a broker publish). All sinks run; errors are joined.
type MultiNotifier []output.OutcomeNotifier

// PaySuccess runs the success effect on every sink
func (m MultiNotifier) PaySuccess(orderID string) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.PaySuccess(orderID))
	}
	return errors.Join(errs...)
}

// PayFail runs the failure effect on every sink
func (m MultiNotifier) PayFail(orderID string) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.PayFail(orderID))
	}
	return errors.Join(errs...)
}

var (
	_ output.OutcomeNotifier = (*PushNotifier)(nil)
	_ output.OutcomeNotifier = (MultiNotifier)(nil)
)
