package output

// OutcomeNotifier is an output port (secondary port) for the pair of
// terminal-outcome effects invoked by the reconciler. The contract is
// generic over any sink: a session-registry push, a message broker, or a
// fan-out over several of them.
type OutcomeNotifier interface {
	// PaySuccess runs the success effect for an order
	PaySuccess(orderID string) error
	// PayFail runs the failure effect for an order
	PayFail(orderID string) error
}
