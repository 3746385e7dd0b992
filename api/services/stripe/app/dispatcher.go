package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

// Saga handles one message end to end. A returned error means the message
// must be redelivered.
type Saga interface {
	Handle(ctx context.Context, msg messaging.Message) error
}

// Dispatcher routes messages to the saga owning the aggregate kind the
// event belongs to.
type Dispatcher struct {
	intents *PaymentIntentSaga
	methods *PaymentMethodSaga
	refunds *RefundSaga
	tokens  *TokenSaga
}

func NewDispatcher(intents *PaymentIntentSaga, methods *PaymentMethodSaga, refunds *RefundSaga, tokens *TokenSaga) *Dispatcher {
	return &Dispatcher{intents: intents, methods: methods, refunds: refunds, tokens: tokens}
}

func (d *Dispatcher) Handle(ctx context.Context, msg messaging.Message) error {
	switch msg.Payload.(type) {
	case domain.PaymentIntentAuthorized, domain.PaymentIntentCaptured, domain.PaymentIntentCanceled,
		mirror.PaymentIntentCreated, mirror.PaymentIntentSucceeded, mirror.PaymentIntentCanceled:
		return d.intents.Handle(ctx, msg)
	case domain.PaymentMethodCreated, domain.PaymentMethodUpdated,
		mirror.PaymentMethodAttached, mirror.PaymentMethodUpdated:
		return d.methods.Handle(ctx, msg)
	case domain.RefundCreated, mirror.RefundCreated:
		return d.refunds.Handle(ctx, msg)
	case domain.TokenCreated, mirror.TokenCreated:
		return d.tokens.Handle(ctx, msg)
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedEvent, msg.Payload.EventName())
	}
}

// DecodePayload resolves the union a wire name belongs to. Gateway mirror
// events carry the "stripe." prefix; everything else is a domain event.
func DecodePayload(name string, payload []byte) (messaging.Payload, error) {
	if strings.HasPrefix(name, "stripe.") {
		event, err := mirror.UnmarshalEvent(name, payload)
		if err != nil {
			return nil, err
		}
		return event, nil
	}
	event, err := domain.UnmarshalEvent(name, payload)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// EncodePayload serializes either union for the wire.
func EncodePayload(payload messaging.Payload) ([]byte, error) {
	switch event := payload.(type) {
	case domain.Event:
		return domain.MarshalEvent(event)
	case mirror.Event:
		return mirror.MarshalEvent(event)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedEvent, payload.EventName())
	}
}
