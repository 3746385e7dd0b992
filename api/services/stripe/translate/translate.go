// Package translate turns incoming Stripe webhook events into bus messages
// carrying mirror events. Correlation relies on the aggregate id the sagas
// stamp into each resource's metadata at creation time.
package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v79"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

var (
	// ErrUnknownEventType indicates a webhook event type outside the
	// subscribed set. The webhook endpoint should be configured to only
	// deliver the supported types; anything else is a misconfiguration.
	ErrUnknownEventType = errors.New("unknown webhook event type")
	// ErrNoCorrelation indicates the resource carries no aggregate id, so
	// the event cannot be routed to any aggregate.
	ErrNoCorrelation = errors.New("webhook resource has no aggregate correlation")
)

// Translate converts one webhook event into a bus message. The message is
// recorded at the gateway's own event timestamp, not at receipt time.
func Translate(event stripe.Event) (messaging.Message, error) {
	payload, aggregateID, err := translatePayload(event)
	if err != nil {
		return messaging.Message{}, err
	}
	if aggregateID == "" {
		return messaging.Message{}, fmt.Errorf("%w: %s", ErrNoCorrelation, event.Type)
	}
	return messaging.NewMessage(aggregateID, payload).
		WithRecordedAt(time.Unix(event.Created, 0).UTC()), nil
}

func translatePayload(event stripe.Event) (messaging.Payload, string, error) {
	switch event.Type {
	case "payment_intent.created", "payment_intent.canceled", "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, "", fmt.Errorf("failed to decode %s: %w", event.Type, err)
		}
		aggregateID := intent.Metadata[config.AggregateIDMetadata]
		switch event.Type {
		case "payment_intent.created":
			return mirror.PaymentIntentCreated{Intent: &intent}, aggregateID, nil
		case "payment_intent.canceled":
			return mirror.PaymentIntentCanceled{Intent: &intent}, aggregateID, nil
		default:
			return mirror.PaymentIntentSucceeded{Intent: &intent}, aggregateID, nil
		}
	case "payment_method.attached", "payment_method.updated":
		var method stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &method); err != nil {
			return nil, "", fmt.Errorf("failed to decode %s: %w", event.Type, err)
		}
		aggregateID := method.Metadata[config.AggregateIDMetadata]
		if event.Type == "payment_method.attached" {
			return mirror.PaymentMethodAttached{Method: &method}, aggregateID, nil
		}
		return mirror.PaymentMethodUpdated{Method: &method}, aggregateID, nil
	case "refund.created":
		var refund stripe.Refund
		if err := json.Unmarshal(event.Data.Raw, &refund); err != nil {
			return nil, "", fmt.Errorf("failed to decode %s: %w", event.Type, err)
		}
		return mirror.RefundCreated{Refund: &refund}, refund.Metadata[config.AggregateIDMetadata], nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}
}
