// Package mirror holds the event-sourced shadow copies of Stripe resources.
// Each aggregate is correlated with its domain counterpart by sharing the
// same aggregate id and is rebuilt by folding its event history in order.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
)

var (
	// ErrUnknownEvent indicates a stored event name with no registered shape.
	ErrUnknownEvent = errors.New("unknown mirror event")
	// ErrStatusInvariant indicates the gateway returned a resource whose
	// status is illegal for the operation that produced it. This is semantic
	// drift between gateway and saga, not a gateway error; never swallow it.
	ErrStatusInvariant = errors.New("gateway status violates invariant")
	// ErrMirrorExists indicates a second create for an id that already has
	// a mirror aggregate.
	ErrMirrorExists = errors.New("mirror aggregate already exists")
)

// Event is the closed union of mirror events. Every member wraps the
// verbatim Stripe resource; serialization is a single "object" field holding
// the resource's full JSON representation.
type Event interface {
	EventName() string
	isMirrorEvent()
}

// Wire identifiers for mirror events. The "stripe." prefix keeps them
// disjoint from the domain event vocabulary.
const (
	NamePaymentIntentCreated   = "stripe.payment_intent.created"
	NamePaymentIntentCanceled  = "stripe.payment_intent.canceled"
	NamePaymentIntentSucceeded = "stripe.payment_intent.succeeded"
	NamePaymentMethodAttached  = "stripe.payment_method.attached"
	NamePaymentMethodUpdated   = "stripe.payment_method.updated"
	NameRefundCreated          = "stripe.refund.created"
	NameTokenCreated           = "stripe.token.created"
)

type PaymentIntentCreated struct{ Intent *stripe.PaymentIntent }
type PaymentIntentCanceled struct{ Intent *stripe.PaymentIntent }
type PaymentIntentSucceeded struct{ Intent *stripe.PaymentIntent }
type PaymentMethodAttached struct{ Method *stripe.PaymentMethod }
type PaymentMethodUpdated struct{ Method *stripe.PaymentMethod }
type RefundCreated struct{ Refund *stripe.Refund }
type TokenCreated struct{ Token *stripe.Token }

func (PaymentIntentCreated) EventName() string   { return NamePaymentIntentCreated }
func (PaymentIntentCanceled) EventName() string  { return NamePaymentIntentCanceled }
func (PaymentIntentSucceeded) EventName() string { return NamePaymentIntentSucceeded }
func (PaymentMethodAttached) EventName() string  { return NamePaymentMethodAttached }
func (PaymentMethodUpdated) EventName() string   { return NamePaymentMethodUpdated }
func (RefundCreated) EventName() string          { return NameRefundCreated }
func (TokenCreated) EventName() string           { return NameTokenCreated }

func (PaymentIntentCreated) isMirrorEvent()   {}
func (PaymentIntentCanceled) isMirrorEvent()  {}
func (PaymentIntentSucceeded) isMirrorEvent() {}
func (PaymentMethodAttached) isMirrorEvent()  {}
func (PaymentMethodUpdated) isMirrorEvent()   {}
func (RefundCreated) isMirrorEvent()          {}
func (TokenCreated) isMirrorEvent()           {}

// envelope is the single-field serialization contract: the full gateway
// resource representation and nothing else.
type envelope struct {
	Object json.RawMessage `json:"object"`
}

func wrap(resource any) ([]byte, error) {
	object, err := json.Marshal(resource)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Object: object})
}

func unwrap(payload []byte, resource any) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Object, resource)
}

// MarshalEvent serializes a mirror event payload.
func MarshalEvent(event Event) ([]byte, error) {
	switch e := event.(type) {
	case PaymentIntentCreated:
		return wrap(e.Intent)
	case PaymentIntentCanceled:
		return wrap(e.Intent)
	case PaymentIntentSucceeded:
		return wrap(e.Intent)
	case PaymentMethodAttached:
		return wrap(e.Method)
	case PaymentMethodUpdated:
		return wrap(e.Method)
	case RefundCreated:
		return wrap(e.Refund)
	case TokenCreated:
		return wrap(e.Token)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

// UnmarshalEvent reconstructs a mirror event from its wire name and payload.
func UnmarshalEvent(name string, payload []byte) (Event, error) {
	switch name {
	case NamePaymentIntentCreated, NamePaymentIntentCanceled, NamePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := unwrap(payload, &intent); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		switch name {
		case NamePaymentIntentCreated:
			return PaymentIntentCreated{Intent: &intent}, nil
		case NamePaymentIntentCanceled:
			return PaymentIntentCanceled{Intent: &intent}, nil
		default:
			return PaymentIntentSucceeded{Intent: &intent}, nil
		}
	case NamePaymentMethodAttached, NamePaymentMethodUpdated:
		var method stripe.PaymentMethod
		if err := unwrap(payload, &method); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		if name == NamePaymentMethodAttached {
			return PaymentMethodAttached{Method: &method}, nil
		}
		return PaymentMethodUpdated{Method: &method}, nil
	case NameRefundCreated:
		var refund stripe.Refund
		if err := unwrap(payload, &refund); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return RefundCreated{Refund: &refund}, nil
	case NameTokenCreated:
		var token stripe.Token
		if err := unwrap(payload, &token); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return TokenCreated{Token: &token}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}
