package app

import (
	"errors"

	stripe "github.com/stripe/stripe-go/v79"
)

// Typed errors for the saga layer.
var (
	// ErrUnsupportedSource indicates a source kind no gateway operation
	// supports. Raised before any external call; a config/programming
	// error, never compensated.
	ErrUnsupportedSource = errors.New("unsupported source type")
	// ErrUnexpectedEvent indicates a message reached a saga that has no
	// handler for its event type.
	ErrUnexpectedEvent = errors.New("unexpected event")
)

// isRejection reports whether the gateway definitively rejected the request
// as a business matter (invalid request, declined card). Only these trigger
// compensation of the domain aggregate. Transient failures (network errors,
// 5xx, rate limits) return false and propagate so the bus redelivers:
// declining a payment that may in fact have succeeded is the worse outcome.
func isRejection(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	if stripeErr.HTTPStatusCode >= 500 {
		return false
	}
	switch stripeErr.Type {
	case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeCard:
		return true
	default:
		return false
	}
}

// rejectionMessage extracts the gateway's human-readable rejection reason.
func rejectionMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
