package service

import (
	"testing"

	"github.com/paybridge/wechat-bridge/internal/adapter/secondary/memory"
	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCodec hands back a prepared payload, bypassing the wire dialect
type stubCodec struct {
	payload *core.CallbackPayload
	err     error
}

func (c *stubCodec) DecodeNotification(raw []byte) (*core.CallbackPayload, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.payload, nil
}

func (c *stubCodec) EncodeAck(ack *core.CallbackAck) ([]byte, error) {
	return []byte(ack.ReturnCode + "|" + ack.ReturnMsg + "|" + ack.AppID + "|" + ack.MerchantID), nil
}

// recordingNotifier records every effect invocation
type recordingNotifier struct {
	successes []string
	failures  []string
}

func (n *recordingNotifier) PaySuccess(orderID string) error {
	n.successes = append(n.successes, orderID)
	return nil
}

func (n *recordingNotifier) PayFail(orderID string) error {
	n.failures = append(n.failures, orderID)
	return nil
}

func pendingOrder(t *testing.T, repo output.OrderRepository, id string) {
	t.Helper()
	require.NoError(t, repo.Create(&core.Order{
		ID:               id,
		AmountMinorUnits: 100,
		Description:      "Widget",
		NotifyURL:        "https://host/cb",
		Status:           core.OrderStatusPending,
	}))
}

func payload(status, orderID string) *core.CallbackPayload {
	return &core.CallbackPayload{
		ReturnStatus:    status,
		MerchantOrderID: orderID,
		AppID:           "A1",
		MerchantID:      "M1",
	}
}

func TestReconcileSuccess(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("SUCCESS", "ORD001")}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	require.NoError(t, err)
	assert.Equal(t, "SUCCESS|OK|A1|M1", string(ack))
	assert.Equal(t, []string{"ORD001"}, notifier.successes)
	assert.Empty(t, notifier.failures)

	order, err := repo.GetByID("ORD001")
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusResolvedSuccess, order.Status)
}

func TestReconcileSuccessCaseInsensitive(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("success", "ORD001")}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	require.NoError(t, err)
	assert.NotNil(t, ack)
	assert.Equal(t, []string{"ORD001"}, notifier.successes)
}

func TestReconcileFail(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("FAIL", "ORD001")}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	require.NoError(t, err)
	assert.Nil(t, ack)
	assert.Equal(t, []string{"ORD001"}, notifier.failures)
	assert.Empty(t, notifier.successes)

	order, err := repo.GetByID("ORD001")
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusResolvedFail, order.Status)
}

func TestReconcileUnrecognizedStatusResolvesFail(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("WHATEVER", "ORD001")}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	require.NoError(t, err)
	assert.Nil(t, ack)
	assert.Equal(t, []string{"ORD001"}, notifier.failures)
}

func TestReconcileDecodeErrorInvokesNothing(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	decodeErr := &output.DecodeError{Reason: "missing field result_code"}
	r := NewReconciler(&stubCodec{err: decodeErr}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	assert.Nil(t, ack)
	var de *output.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, notifier.successes)
	assert.Empty(t, notifier.failures)

	order, err := repo.GetByID("ORD001")
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusPending, order.Status)
}

// Duplicate terminal notifications acknowledge again but never re-invoke
// the effects.
func TestReconcileDuplicateSuccess(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("SUCCESS", "ORD001")}, repo, notifier, nil)

	first, err := r.Reconcile(nil)
	require.NoError(t, err)
	second, err := r.Reconcile(nil)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, []string{"ORD001"}, notifier.successes)
}

// A notification contradicting the recorded outcome invokes nothing and
// produces no acknowledgement.
func TestReconcileConflictingOutcome(t *testing.T) {
	repo := memory.NewOrderRepository()
	pendingOrder(t, repo, "ORD001")
	notifier := &recordingNotifier{}
	codec := &stubCodec{payload: payload("SUCCESS", "ORD001")}
	r := NewReconciler(codec, repo, notifier, nil)

	_, err := r.Reconcile(nil)
	require.NoError(t, err)

	codec.payload = payload("FAIL", "ORD001")
	ack, err := r.Reconcile(nil)

	assert.Nil(t, ack)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "ORD001", conflict.OrderID)
	assert.Equal(t, core.OrderStatusResolvedSuccess, conflict.Resolved)
	assert.Empty(t, notifier.failures)

	order, err := repo.GetByID("ORD001")
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusResolvedSuccess, order.Status)
}

// An order with no local record still reconciles: effect invoked, ack
// formed. The push delivery is keyed by order id regardless of state.
func TestReconcileUnknownOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	notifier := &recordingNotifier{}
	r := NewReconciler(&stubCodec{payload: payload("SUCCESS", "GHOST1")}, repo, notifier, nil)

	ack, err := r.Reconcile(nil)

	require.NoError(t, err)
	assert.Equal(t, "SUCCESS|OK|A1|M1", string(ack))
	assert.Equal(t, []string{"GHOST1"}, notifier.successes)
}
